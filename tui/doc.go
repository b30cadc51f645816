// Package tui is the interactive film browser behind `marquee browse`.
//
// The model never calls the backend directly: the film list, the detail
// entity and the review pane each sit behind a query binding, and every
// fetch runs as a tea.Cmd whose result arrives as a message. A result the
// binding reports as superseded is ignored.
package tui
