package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/tui"
)

// pageFlags are the paging flags shared by the list commands. Pages are
// one-based on the command line and zero-based on the wire.
type pageFlags struct {
	page int
	size int
	all  bool
	sort []string
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.page, "page", 1, "page to show, starting at 1")
	cmd.Flags().IntVar(&p.size, "size", 0, "page size (default from config)")
	cmd.Flags().BoolVar(&p.all, "all", false, "read every page")
	cmd.Flags().StringSliceVar(&p.sort, "sort", nil, "sort keys such as +title or -runtime, repeatable")
}

func (p *pageFlags) pagination() (api.Pagination, error) {
	if p.page < 1 {
		return api.Pagination{}, fmt.Errorf("--page must be 1 or greater, got %d", p.page)
	}
	if p.size < 0 {
		return api.Pagination{}, fmt.Errorf("--size must not be negative, got %d", p.size)
	}
	return api.Pagination{Page: p.page - 1, Size: p.size}, nil
}

func (p *pageFlags) sortKeys() (api.Sort, error) {
	return api.ParseSort(p.sort...)
}

// patchFlags collect --from-file, --set and --unset into an edit.
type patchFlags struct {
	file  string
	set   []string
	unset []string
}

func (p *patchFlags) register(cmd *cobra.Command, unset bool) {
	cmd.Flags().StringVar(&p.file, "from-file", "", "JSON merge document laid over the current value, - for stdin")
	cmd.Flags().StringArrayVar(&p.set, "set", nil, "field=value to replace, repeatable; values are read as JSON when they parse")
	if unset {
		cmd.Flags().StringArrayVar(&p.unset, "unset", nil, "field to remove, repeatable")
	}
}

func (p *patchFlags) operations() ([]api.Operation, error) {
	ops := make([]api.Operation, 0, len(p.set)+len(p.unset))
	for _, expr := range p.set {
		op, err := api.ParseAssignment(expr)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	for _, field := range p.unset {
		if field = strings.TrimSpace(field); field != "" {
			ops = append(ops, api.Remove(field))
		}
	}
	if len(ops) == 0 && p.file == "" {
		return nil, errors.New("nothing to change, use --from-file, --set field=value or --unset field")
	}
	return ops, nil
}

// plan diffs current against the edit the flags describe. An empty result
// means the edit changes nothing.
func (p *patchFlags) plan(a *app, current any) ([]api.Operation, error) {
	ops, err := p.operations()
	if err != nil {
		return nil, err
	}

	var merge []byte
	switch p.file {
	case "":
	case "-":
		if merge, err = io.ReadAll(a.reader()); err != nil {
			return nil, fmt.Errorf("failed to read merge document: %w", err)
		}
	default:
		if merge, err = os.ReadFile(p.file); err != nil {
			return nil, fmt.Errorf("failed to read merge document: %w", err)
		}
	}

	return api.Plan(current, merge, ops)
}

// reader returns the shared line reader over stdin.
func (a *app) reader() *bufio.Reader {
	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	return a.lines
}

func (a *app) readLine() (string, error) {
	line, err := a.reader().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *app) confirm(out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	response, err := a.readLine()
	if err != nil {
		fmt.Fprintln(out)
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// readPassword prompts with a masked field on a terminal and reads a plain
// line otherwise, so passwords can be piped in.
func (a *app) readPassword(ctx context.Context, out io.Writer) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && isTerminal(f) {
		return tui.PromptPassword(ctx, "Password: ", f, out)
	}
	password, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}
