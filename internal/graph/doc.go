// Package graph provides pure queries over task dependency structure:
// reference validation, cycle detection and critical-path depths.
//
// Nothing in this package mutates its inputs or holds state, so every
// function is safe to call concurrently.
package graph
