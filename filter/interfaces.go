package filter

import (
	"github.com/s0up4200/marquee/api"
)

// CompiledFilter is a pre-compiled expression ready for evaluation against
// films and comments
type CompiledFilter interface {
	// MatchMovie reports whether the film satisfies the expression.
	// Evaluation errors count as no match.
	MatchMovie(movie api.Movie) bool

	// MatchComment reports whether the comment satisfies the expression
	MatchComment(comment api.Comment) bool

	// EvaluateMovie is MatchMovie with the evaluation error exposed
	EvaluateMovie(movie api.Movie) (bool, error)

	// EvaluateComment is MatchComment with the evaluation error exposed
	EvaluateComment(comment api.Comment) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
