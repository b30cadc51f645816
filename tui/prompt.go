package tui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user abandons a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// passwordModel reads one line without echoing it.
type passwordModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPasswordModel(label string) passwordModel {
	ti := textinput.New()
	ti.Prompt = label
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	_ = ti.Focus()
	return passwordModel{input: ti}
}

func (m passwordModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.input.View() + "\n"
}

// PromptPassword asks for a secret on the terminal, drawing on out. The
// typed characters are masked.
func PromptPassword(ctx context.Context, label string, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(newPasswordModel(label), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m := final.(passwordModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.input.Value(), nil
}
