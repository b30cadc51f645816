package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/query"
	"github.com/s0up4200/marquee/render"
)

// sortCycle is the order the sort key steps through. The empty entry is the
// backend's default order.
var sortCycle = []string{"", "+title", "-title", "+runtime", "-runtime"}

// inputMode says what the text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputKeywords
	inputGenres
)

// Options configures the browser.
type Options struct {
	Context  context.Context
	Movies   api.MovieService
	Comments api.CommentService
	Logger   zerolog.Logger
	// Query is the first page shown; its filter and sort are kept until
	// the user changes them.
	Query api.MovieQuery
	// CommentQuery supplies the sort and page size of the detail pane.
	CommentQuery api.CommentQuery
	Color        bool
}

// Model is the root state of the browser.
type Model struct {
	ctx      context.Context
	list     *query.Binding[api.MovieQuery, api.Movie]
	detail   *query.Entity[api.Movie]
	comments *query.Comments
	format   *render.ConsoleFormatter

	initial      api.MovieQuery
	commentQuery api.CommentQuery

	keys     keyMap
	help     help.Model
	table    table.Model
	input    textinput.Model
	viewport viewport.Model

	width  int
	height int
	ready  bool

	movies    []api.Movie
	pageInfo  api.PageInfo
	mode      inputMode
	sortIndex int
	showHelp  bool

	inDetail      bool
	detailMovie   *api.Movie
	detailPage    *api.Page[api.Comment]
	detailLoading bool

	loading bool
	status  string
	err     error
}

// New creates the browser model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.CharLimit = 100

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	return Model{
		ctx:          ctx,
		list:         query.Movies(opts.Movies, opts.Logger),
		detail:       query.Movie(opts.Movies, opts.Logger),
		comments:     query.NewComments(opts.Comments, opts.Logger),
		format:       render.NewConsoleFormatter(render.FormatOptions{Color: opts.Color}),
		initial:      opts.Query,
		commentQuery: opts.CommentQuery,
		keys:         defaultKeyMap(),
		help:         help.New(),
		table:        t,
		input:        ti,
		sortIndex:    sortIndexOf(opts.Query.Sort),
		loading:      true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return setMovies(m.ctx, m.list, m.initial)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		if m.inDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case moviesMsg:
		if errors.Is(msg.err, query.ErrSuperseded) || errors.Is(msg.err, query.ErrNoPage) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		switch {
		case msg.state.Page != nil:
			m.movies = msg.state.Page.Content
			m.pageInfo = msg.state.Page.Pagination
			m.table.SetRows(rows(m.movies))
			if m.table.Cursor() >= len(m.movies) {
				m.table.SetCursor(0)
			}
		case msg.err != nil:
			// the rows on screen belong to another query
			m.movies = nil
			m.pageInfo = api.PageInfo{}
			m.table.SetRows(nil)
			m.table.SetCursor(0)
		}
		return m, nil

	case movieMsg:
		if errors.Is(msg.err, query.ErrSuperseded) {
			return m, nil
		}
		m.err = msg.err
		if msg.movie != nil {
			m.detailMovie = msg.movie
		}
		m.updateDetail()
		return m, nil

	case commentsMsg:
		if errors.Is(msg.err, query.ErrSuperseded) || errors.Is(msg.err, query.ErrNoPage) {
			return m, nil
		}
		m.detailLoading = false
		m.err = msg.err
		m.detailPage = msg.state.Page
		m.updateDetail()
		return m, nil
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if !m.pageInfo.HasNext {
			m.status = "no next page"
			return m, nil
		}
		m.status = ""
		m.loading = true
		return m, stepMovies(m.ctx, m.list, 1)

	case key.Matches(msg, m.keys.Prev):
		if !m.pageInfo.HasPrevious {
			m.status = "no previous page"
			return m, nil
		}
		m.status = ""
		m.loading = true
		return m, stepMovies(m.ctx, m.list, -1)

	case key.Matches(msg, m.keys.Search):
		return m.openInput(inputKeywords, "keywords, comma separated", m.currentQuery().Filter.Keywords), nil

	case key.Matches(msg, m.keys.Genre):
		return m.openInput(inputGenres, "genres, comma separated", m.currentQuery().Filter.Genres), nil

	case key.Matches(msg, m.keys.Sort):
		m.sortIndex = (m.sortIndex + 1) % len(sortCycle)
		q := m.currentQuery()
		q.Sort, _ = api.ParseSort(sortCycle[m.sortIndex])
		m.status = "sort: " + sortLabel(m.sortIndex)
		return m.applyQuery(q)

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, refreshMovies(m.ctx, m.list)

	case key.Matches(msg, m.keys.Open):
		i := m.table.Cursor()
		if i < 0 || i >= len(m.movies) {
			return m, nil
		}
		movie := m.movies[i]
		m.inDetail = true
		m.detailMovie = &movie
		m.detailPage = nil
		m.detailLoading = true
		m.updateDetail()

		cq := m.commentQuery
		cq.Movie = movie.ID
		cq.User = ""
		cq.Pagination.Page = 0
		return m, tea.Batch(
			loadMovie(m.ctx, m.detail, movie.ID),
			setComments(m.ctx, m.comments, cq),
		)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.inDetail = false
		m.err = nil
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if m.detailPage == nil || !m.detailPage.Pagination.HasNext {
			m.status = "no more reviews"
			return m, nil
		}
		m.status = ""
		return m, stepComments(m.ctx, m.comments, 1)

	case key.Matches(msg, m.keys.Prev):
		if m.detailPage == nil || !m.detailPage.Pagination.HasPrevious {
			m.status = "no earlier reviews"
			return m, nil
		}
		m.status = ""
		return m, stepComments(m.ctx, m.comments, -1)

	case key.Matches(msg, m.keys.Reload):
		return m, refreshComments(m.ctx, m.comments)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		values := splitList(m.input.Value())
		q := m.currentQuery()
		switch m.mode {
		case inputKeywords:
			q.Filter.Keywords = values
		case inputGenres:
			q.Filter.Genres = values
		}
		m.mode = inputNone
		m.input.Blur()
		return m.applyQuery(q)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openInput(mode inputMode, placeholder string, current []string) Model {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(strings.Join(current, ", "))
	m.input.CursorEnd()
	// The blink command is dropped; a static cursor is enough here.
	_ = m.input.Focus()
	return m
}

// applyQuery points the list at q, starting again from the first page.
func (m Model) applyQuery(q api.MovieQuery) (tea.Model, tea.Cmd) {
	q.Pagination.Page = 0
	m.loading = true
	return m, setMovies(m.ctx, m.list, q)
}

// currentQuery is the query the list binding holds, or the initial one
// before anything was loaded.
func (m Model) currentQuery() api.MovieQuery {
	state := m.list.Snapshot()
	if !state.Loaded && state.Page == nil && state.Err == nil {
		return m.initial
	}
	return state.Query
}

func (m *Model) resize() {
	m.help.Width = m.width
	m.table.SetColumns(columns(m.width))
	// header, status line, help line and the table header
	m.table.SetHeight(max(m.height-6, 3))
	m.viewport = viewport.New(m.width, max(m.height-4, 3))
	m.updateDetail()
}

func (m *Model) updateDetail() {
	if !m.inDetail || m.detailMovie == nil {
		return
	}
	var b strings.Builder
	b.WriteString(m.format.FormatMovie(*m.detailMovie))
	b.WriteString("\n")
	switch {
	case m.detailLoading:
		b.WriteString("Loading reviews...\n")
	case m.detailPage != nil:
		b.WriteString(m.format.FormatCommentPage(m.detailPage))
	}
	m.viewport.SetContent(b.String())
}

func columns(width int) []table.Column {
	title := max(width-48, 20)
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Year", Width: 6},
		{Title: "Runtime", Width: 8},
		{Title: "Genres", Width: 22},
		{Title: "Status", Width: 10},
	}
}

func rows(movies []api.Movie) []table.Row {
	out := make([]table.Row, len(movies))
	for i, mv := range movies {
		year, runtime := "", ""
		if y := mv.Year(); y > 0 {
			year = fmt.Sprint(y)
		}
		if mv.Runtime > 0 {
			runtime = fmt.Sprintf("%d min", mv.Runtime)
		}
		out[i] = table.Row{mv.Title, year, runtime, strings.Join(mv.Genres, ", "), mv.Status}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortIndexOf(s api.Sort) int {
	if len(s) == 0 {
		return 0
	}
	dir := "+"
	if s[0].Direction == api.Desc {
		dir = "-"
	}
	for i, entry := range sortCycle {
		if entry == dir+s[0].Field {
			return i
		}
	}
	return 0
}

func sortLabel(i int) string {
	if sortCycle[i] == "" {
		return "default"
	}
	return sortCycle[i]
}

// Run starts the browser and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(contextOf(opts)))
	_, err := p.Run()
	return err
}

func contextOf(opts Options) context.Context {
	if opts.Context == nil {
		return context.Background()
	}
	return opts.Context
}
