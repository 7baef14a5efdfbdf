// Package plan defines the core data model for execution plans and the
// parser that extracts phases and tasks from a plan document.
//
// A plan document is UTF-8 text containing phase headers ("Phase N: Title"
// at any heading level) and task list items whose first token is a dotted
// numeric id (e.g. "1.2" or "1.2.3"). The document is the immutable
// structural source of truth: it is re-parsed but never mutated. Mutable
// per-task status lives in the store package.
//
// Parsing is forgiving by design: malformed elements are recorded as
// StructuralErrors and skipped, never fatal.
package plan
