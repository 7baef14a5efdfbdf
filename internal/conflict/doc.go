// Package conflict detects file-level contention between tasks and
// watches plan files for external edits.
//
// File references are extracted from task descriptions with layered
// heuristics; two tasks mentioning the same file are flagged so a
// scheduler can avoid dispatching them into the same batch.
package conflict
