// Package render turns backend entities into the tree-shaped text the CLI
// prints. Formatters return strings and never write to stdout themselves.
package render
