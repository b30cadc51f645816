package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/s0up4200/marquee/api"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
		b.WriteString("\n")
		return b.String()
	case m.inDetail:
		b.WriteString(m.viewport.View())
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	if m.inDetail && m.detailMovie != nil {
		return headerStyle.Render("marquee › " + m.detailMovie.Title)
	}

	q := m.currentQuery()
	parts := []string{headerStyle.Render("marquee")}
	parts = append(parts, pageLabel(m.pageInfo))
	if len(q.Filter.Keywords) > 0 {
		parts = append(parts, "keywords: "+strings.Join(q.Filter.Keywords, ", "))
	}
	if len(q.Filter.Genres) > 0 {
		parts = append(parts, "genres: "+strings.Join(q.Filter.Genres, ", "))
	}
	parts = append(parts, "sort: "+sortLabel(m.sortIndex))
	return strings.Join(parts, "  ")
}

func (m Model) renderStatus() string {
	switch {
	case m.mode == inputKeywords:
		return "keywords: " + m.input.View()
	case m.mode == inputGenres:
		return "genres: " + m.input.View()
	case m.err != nil:
		return errorStyle.Render("error: " + m.err.Error())
	case m.loading || (m.inDetail && m.detailLoading):
		return statusStyle.Render("loading...")
	case m.status != "":
		return statusStyle.Render(m.status)
	default:
		return ""
	}
}

func pageLabel(p api.PageInfo) string {
	label := fmt.Sprintf("page %d", p.Number+1)
	if p.TotalPages > 0 {
		label += fmt.Sprintf("/%d", p.TotalPages)
	}
	return label
}
