package filter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/marquee/api"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// The compile environment knows every name a film or a comment
	// exposes, so typos fail here rather than at evaluation.
	env := make(map[string]any, 64)
	maps.Copy(env, c.helperFuncs)
	addMovieEnvironment(env, api.Movie{})
	addCommentEnvironment(env, api.Comment{})

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

func (f *exprFilter) MatchMovie(movie api.Movie) bool {
	ok, err := f.EvaluateMovie(movie)
	return err == nil && ok
}

func (f *exprFilter) MatchComment(comment api.Comment) bool {
	ok, err := f.EvaluateComment(comment)
	return err == nil && ok
}

func (f *exprFilter) EvaluateMovie(movie api.Movie) (bool, error) {
	env := f.environment()
	addMovieEnvironment(env, movie)
	return f.run(env, fmt.Sprintf("film '%s'", movie.Title))
}

func (f *exprFilter) EvaluateComment(comment api.Comment) (bool, error) {
	env := f.environment()
	addCommentEnvironment(env, comment)
	return f.run(env, fmt.Sprintf("comment '%s'", comment.ID))
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

func (f *exprFilter) environment() map[string]any {
	env := make(map[string]any, 48)
	maps.Copy(env, f.helpers)
	return env
}

func (f *exprFilter) run(env map[string]any, subject string) (bool, error) {
	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, Subject: subject, Err: err}
	}
	// AsBool guarantees the type
	return result.(bool), nil
}

// createHelperFunctions creates the helper functions shared by every subject
func createHelperFunctions() map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"yearsAgo": func(years int) time.Time {
			return time.Now().AddDate(-years, 0, 0)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse(time.DateOnly, dateStr)
			return t
		},
		// Case-insensitive string helpers; the case-sensitive forms are
		// expr's own contains / startsWith / endsWith operators
		"containsFold": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"hasPrefixFold": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"hasSuffixFold": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
	}
}

// addMovieEnvironment exposes a film's fields and film-specific helpers
func addMovieEnvironment(env map[string]any, movie api.Movie) {
	env["Movie"] = movie
	env["Title"] = movie.Title
	env["Year"] = movie.Year()
	env["Released"] = releaseTime(movie.ReleaseDate)
	env["Runtime"] = movie.Runtime
	env["Status"] = movie.Status
	env["Budget"] = movie.Budget
	env["Revenue"] = movie.Revenue
	env["Overview"] = movie.Overview
	env["Tagline"] = movie.Tagline
	env["Genres"] = movie.Genres
	env["Keywords"] = movie.Keywords
	env["CollectionName"] = ""
	if movie.Collection != nil {
		env["CollectionName"] = movie.Collection.Name
	}

	env["hasGenre"] = createHasAnyFunc(movie.Genres)
	env["hasKeyword"] = createHasAnyFunc(movie.Keywords)
	env["castIncludes"] = createCastIncludesFunc(movie.Cast)
	env["crewIncludes"] = createCrewIncludesFunc(movie.Crew, "")
	env["directedBy"] = createCrewIncludesFunc(movie.Crew, "Director")
	env["producedBy"] = createProducedByFunc(movie.Producers)
}

// addCommentEnvironment exposes a comment's fields and comment helpers
func addCommentEnvironment(env map[string]any, comment api.Comment) {
	var author, authorName, film, filmTitle string
	if comment.User != nil {
		author, authorName = comment.User.Email, comment.User.Name
	}
	if comment.Film != nil {
		film, filmTitle = comment.Film.ID, comment.Film.Title
	}

	env["Comment"] = comment
	env["Rating"] = comment.Rating
	env["Text"] = comment.Comment
	env["Author"] = author
	env["AuthorName"] = authorName
	env["Film"] = film
	env["FilmTitle"] = filmTitle

	env["by"] = func(email string) bool {
		return strings.EqualFold(author, email)
	}
	env["mentions"] = func(word string) bool {
		return strings.Contains(strings.ToLower(comment.Comment), strings.ToLower(word))
	}
}

func releaseTime(d *api.Date) time.Time {
	if d == nil || d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year, time.Month(d.Month), max(d.Day, 1), 0, 0, 0, 0, time.UTC)
}

// Helper factory functions; values are lower-cased once per subject

func createHasAnyFunc(values []string) func(string) bool {
	lower := make([]string, len(values))
	for i, v := range values {
		lower[i] = strings.ToLower(v)
	}
	return func(value string) bool {
		return slices.Contains(lower, strings.ToLower(value))
	}
}

func createCastIncludesFunc(cast []api.Cast) func(string) bool {
	return func(name string) bool {
		return slices.ContainsFunc(cast, func(c api.Cast) bool {
			return strings.EqualFold(c.Name, name)
		})
	}
}

func createCrewIncludesFunc(crew []api.Crew, job string) func(string) bool {
	return func(name string) bool {
		return slices.ContainsFunc(crew, func(c api.Crew) bool {
			return strings.EqualFold(c.Name, name) && (job == "" || strings.EqualFold(c.Job, job))
		})
	}
}

func createProducedByFunc(producers []api.Producer) func(string) bool {
	return func(name string) bool {
		return slices.ContainsFunc(producers, func(p api.Producer) bool {
			return strings.EqualFold(p.Name, name)
		})
	}
}
