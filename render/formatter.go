package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/query"
)

const (
	branch     = "├"
	lastBranch = "╰"
	stem       = "│"
	indentMid  = "│   "
	indentLast = "    "
)

// FormatOptions controls how much of each entry is printed
type FormatOptions struct {
	ShowDetails bool
	Color       bool
}

// ConsoleFormatter provides console output formatting for films, comments,
// users and friendships
type ConsoleFormatter struct {
	options FormatOptions
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options FormatOptions) *ConsoleFormatter {
	return &ConsoleFormatter{
		options: options,
		title:   lipgloss.NewStyle().Bold(true),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		muted:   lipgloss.NewStyle().Faint(true),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (f *ConsoleFormatter) paint(style lipgloss.Style, text string) string {
	if !f.options.Color || text == "" {
		return text
	}
	return style.Render(text)
}

// FormatMoviePage formats one page of films for console display
func (f *ConsoleFormatter) FormatMoviePage(page *api.Page[api.Movie]) string {
	if page == nil || len(page.Content) == 0 {
		return f.noResults("No films found", pageInfo(page))
	}

	var sb strings.Builder
	f.header(&sb, "Film", len(page.Content))

	for i, movie := range page.Content {
		isLast := i == len(page.Content)-1
		f.formatMovie(&sb, movie, isLast)
		if !isLast {
			sb.WriteString(stem + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(f.pageFooter(page.Pagination))
	return sb.String()
}

// FormatMovies formats a list of films collected across pages
func (f *ConsoleFormatter) FormatMovies(movies []api.Movie) string {
	return f.FormatMoviePage(&api.Page[api.Movie]{Content: movies, Pagination: api.PageInfo{Number: -1}})
}

// FormatMovie formats a single film with everything the backend returned
func (f *ConsoleFormatter) FormatMovie(movie api.Movie) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n", f.paint(f.title, movieTitle(movie)))
	if movie.Tagline != "" {
		fmt.Fprintf(&sb, "%s\n", f.paint(f.muted, movie.Tagline))
	}
	sb.WriteString("\n")

	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.paint(f.label, label), value))
		}
	}

	add("ID", movie.ID)
	add("Status", movie.Status)
	if movie.ReleaseDate != nil {
		add("Released", movie.ReleaseDate.String())
	}
	if movie.Runtime > 0 {
		add("Runtime", fmt.Sprintf("%d min", movie.Runtime))
	}
	add("Genres", strings.Join(movie.Genres, ", "))
	add("Keywords", strings.Join(movie.Keywords, ", "))
	if movie.Collection != nil {
		add("Collection", movie.Collection.Name)
	}
	if directors := crewWithJob(movie.Crew, "Director"); len(directors) > 0 {
		add("Directed by", strings.Join(directors, ", "))
	}
	if len(movie.Cast) > 0 {
		cast := make([]string, 0, len(movie.Cast))
		for _, c := range movie.Cast {
			if c.Character != "" {
				cast = append(cast, fmt.Sprintf("%s (%s)", c.Name, c.Character))
			} else {
				cast = append(cast, c.Name)
			}
		}
		add("Cast", strings.Join(cast, ", "))
	}
	if len(movie.Producers) > 0 {
		producers := make([]string, len(movie.Producers))
		for i, p := range movie.Producers {
			producers[i] = p.Name
		}
		add("Producers", strings.Join(producers, ", "))
	}
	if movie.Budget > 0 {
		add("Budget", formatMoney(movie.Budget))
	}
	if movie.Revenue > 0 {
		add("Revenue", formatMoney(movie.Revenue))
	}
	add("Poster", movie.Poster())

	f.tree(&sb, lines)

	if movie.Overview != "" {
		fmt.Fprintf(&sb, "\n%s\n", movie.Overview)
	}

	return sb.String()
}

// FormatCommentPage formats one page of comments
func (f *ConsoleFormatter) FormatCommentPage(page *api.Page[api.Comment]) string {
	if page == nil || len(page.Content) == 0 {
		return f.noResults("No reviews found", pageInfo(page))
	}

	var sb strings.Builder
	f.header(&sb, "Review", len(page.Content))

	for i, comment := range page.Content {
		isLast := i == len(page.Content)-1
		f.formatComment(&sb, comment, isLast)
		if !isLast {
			sb.WriteString(stem + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(f.pageFooter(page.Pagination))
	return sb.String()
}

// FormatComments formats comments collected across pages
func (f *ConsoleFormatter) FormatComments(comments []api.Comment) string {
	return f.FormatCommentPage(&api.Page[api.Comment]{Content: comments, Pagination: api.PageInfo{Number: -1}})
}

// FormatUser formats a user profile
func (f *ConsoleFormatter) FormatUser(user api.User) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n\n", f.paint(f.title, user.DisplayName()))

	lines := []string{fmt.Sprintf("%s: %s", f.paint(f.label, "Email"), user.Email)}
	if user.Country != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", f.paint(f.label, "Country"), user.Country))
	}
	if user.Birthday != nil && !user.Birthday.IsZero() {
		lines = append(lines, fmt.Sprintf("%s: %s", f.paint(f.label, "Birthday"), user.Birthday))
	}
	if len(user.Roles) > 0 {
		lines = append(lines, fmt.Sprintf("%s: %s", f.paint(f.label, "Roles"), strings.Join(user.Roles, ", ")))
	}
	if f.options.ShowDetails && user.Picture != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", f.paint(f.label, "Picture"), user.Picture))
	}

	f.tree(&sb, lines)
	return sb.String()
}

// FormatUserPage formats one page of users
func (f *ConsoleFormatter) FormatUserPage(page *api.Page[api.User]) string {
	if page == nil || len(page.Content) == 0 {
		return f.noResults("No users found", pageInfo(page))
	}

	var sb strings.Builder
	f.header(&sb, "User", len(page.Content))

	for i, user := range page.Content {
		isLast := i == len(page.Content)-1
		prefix := branch
		if isLast {
			prefix = lastBranch
		}
		fmt.Fprintf(&sb, "%s── %s <%s>\n", prefix, f.paint(f.title, user.DisplayName()), user.Email)
		if f.options.ShowDetails && user.Country != "" {
			indent := indentMid
			if isLast {
				indent = indentLast
			}
			fmt.Fprintf(&sb, "%sCountry: %s\n", indent, user.Country)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(f.pageFooter(page.Pagination))
	return sb.String()
}

// FormatUsers formats users collected across pages
func (f *ConsoleFormatter) FormatUsers(users []api.User) string {
	return f.FormatUserPage(&api.Page[api.User]{Content: users, Pagination: api.PageInfo{Number: -1}})
}

// FormatFriends formats friendships grouped into pending requests and
// accepted friends
func (f *ConsoleFormatter) FormatFriends(friends []query.Friend) string {
	if len(friends) == 0 {
		return "No friends yet"
	}

	pending, accepted := query.SplitFriends(friends)

	var sb strings.Builder
	if len(accepted) > 0 {
		fmt.Fprintf(&sb, "\nFriends (%d):\n", len(accepted))
		f.formatFriendGroup(&sb, accepted)
	}
	if len(pending) > 0 {
		fmt.Fprintf(&sb, "\n%s (%d):\n", f.paint(f.warn, "Pending"), len(pending))
		f.formatFriendGroup(&sb, pending)
	}

	return sb.String()
}

func (f *ConsoleFormatter) formatFriendGroup(sb *strings.Builder, friends []query.Friend) {
	for i, friend := range friends {
		isLast := i == len(friends)-1
		prefix := branch
		if isLast {
			prefix = lastBranch
		}

		fmt.Fprintf(sb, "%s── %s", prefix, f.paint(f.title, friend.Name()))
		if friend.Name() != friend.Email {
			fmt.Fprintf(sb, " <%s>", friend.Email)
		}
		sb.WriteString("\n")

		indent := indentMid
		if isLast {
			indent = indentLast
		}
		var parts []string
		if friend.ID != "" {
			parts = append(parts, "ID: "+friend.ID)
		}
		if friend.Since != nil && !friend.Since.IsZero() {
			parts = append(parts, "Since: "+friend.Since.String())
		}
		if !friend.IsConfirmed() {
			if friend.User == friend.Email {
				parts = append(parts, "wants to be your friend")
			} else {
				parts = append(parts, "awaiting answer")
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(sb, "%s%s\n", indent, f.paint(f.muted, strings.Join(parts, " | ")))
		}
	}
}

// formatMovie formats a single film entry of a list
func (f *ConsoleFormatter) formatMovie(sb *strings.Builder, movie api.Movie, isLast bool) {
	prefix := branch
	if isLast {
		prefix = lastBranch
	}

	fmt.Fprintf(sb, "%s── %s\n", prefix, f.paint(f.title, movieTitle(movie)))

	indent := indentMid
	if isLast {
		indent = indentLast
	}

	var parts []string
	if len(movie.Genres) > 0 {
		parts = append(parts, strings.Join(movie.Genres, ", "))
	}
	if movie.Runtime > 0 {
		parts = append(parts, fmt.Sprintf("%d min", movie.Runtime))
	}
	if movie.Status != "" {
		parts = append(parts, movie.Status)
	}
	if len(parts) > 0 {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.Join(parts, " | "))
	}

	if !f.options.ShowDetails {
		return
	}

	if movie.ID != "" {
		fmt.Fprintf(sb, "%sID: %s\n", indent, movie.ID)
	}
	if directors := crewWithJob(movie.Crew, "Director"); len(directors) > 0 {
		fmt.Fprintf(sb, "%sDirected by: %s\n", indent, strings.Join(directors, ", "))
	}
	if movie.Tagline != "" {
		fmt.Fprintf(sb, "%s%s\n", indent, f.paint(f.muted, movie.Tagline))
	}
}

// formatComment formats a single comment entry
func (f *ConsoleFormatter) formatComment(sb *strings.Builder, comment api.Comment, isLast bool) {
	prefix := branch
	if isLast {
		prefix = lastBranch
	}

	author := "anonymous"
	if comment.User != nil {
		author = comment.User.Email
		if comment.User.Name != "" {
			author = comment.User.Name
		}
	}

	fmt.Fprintf(sb, "%s── %s %s", prefix, f.paint(f.warn, stars(comment.Rating)), f.paint(f.title, author))
	if comment.Film != nil && comment.Film.Title != "" {
		fmt.Fprintf(sb, " on %s", comment.Film.Title)
	}
	sb.WriteString("\n")

	indent := indentMid
	if isLast {
		indent = indentLast
	}

	if comment.Comment != "" {
		for _, line := range strings.Split(strings.TrimSpace(comment.Comment), "\n") {
			fmt.Fprintf(sb, "%s%s\n", indent, line)
		}
	}
	if f.options.ShowDetails && comment.ID != "" {
		fmt.Fprintf(sb, "%s%s\n", indent, f.paint(f.muted, "ID: "+comment.ID))
	}
}

func (f *ConsoleFormatter) header(sb *strings.Builder, noun string, count int) {
	fmt.Fprintf(sb, "\n%s", noun)
	if count != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(sb, " (%d):\n\n", count)
}

// tree prints lines as the children of a detail header
func (f *ConsoleFormatter) tree(sb *strings.Builder, lines []string) {
	for i, line := range lines {
		prefix := branch
		if i == len(lines)-1 {
			prefix = lastBranch
		}
		fmt.Fprintf(sb, "%s─ %s\n", prefix, line)
	}
}

// noResults reports an empty page. The footer stays when other pages hold
// results, so a page emptied by a local filter still shows how to move on.
func (f *ConsoleFormatter) noResults(msg string, p api.PageInfo) string {
	if p.Number < 0 || !(p.HasNext || p.HasPrevious) {
		return msg
	}
	return msg + "\n\n" + f.pageFooter(p)
}

func pageInfo[T any](page *api.Page[T]) api.PageInfo {
	if page == nil {
		return api.PageInfo{Number: -1}
	}
	return page.Pagination
}

// pageFooter describes where the page sits in the collection. Page numbers are
// shown one-based. Lists gathered across pages carry Number -1 and get no
// footer.
func (f *ConsoleFormatter) pageFooter(p api.PageInfo) string {
	if p.Number < 0 {
		return ""
	}

	footer := fmt.Sprintf("Page %d", p.Number+1)
	if p.TotalPages > 0 {
		footer += fmt.Sprintf(" of %d", p.TotalPages)
	}
	if p.TotalElements > 0 {
		footer += fmt.Sprintf(" (%d total)", p.TotalElements)
	}

	var hints []string
	if p.HasPrevious {
		hints = append(hints, fmt.Sprintf("--page %d for previous", p.Number))
	}
	if p.HasNext {
		hints = append(hints, fmt.Sprintf("--page %d for next", p.Number+2))
	}
	if len(hints) > 0 {
		footer += " | " + strings.Join(hints, ", ")
	}

	return f.paint(f.muted, footer) + "\n"
}

func movieTitle(movie api.Movie) string {
	if year := movie.Year(); year > 0 {
		return fmt.Sprintf("%s (%d)", movie.Title, year)
	}
	return movie.Title
}

func crewWithJob(crew []api.Crew, job string) []string {
	var names []string
	for _, c := range crew {
		if strings.EqualFold(c.Job, job) {
			names = append(names, c.Name)
		}
	}
	return names
}

// stars renders a 1..10 rating as five half-steps
func stars(rating int) string {
	rating = min(max(rating, 0), 10)
	full := rating / 2
	s := strings.Repeat("★", full)
	if rating%2 == 1 {
		s += "½"
	}
	return fmt.Sprintf("%s %d/10", s, rating)
}

func formatMoney(n int64) string {
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return "$" + string(out)
}
