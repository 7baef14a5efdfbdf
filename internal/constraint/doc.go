// Package constraint parses scheduling annotations out of plan document
// free text: [SEQUENTIAL] task groups, [PARALLEL] phase declarations, and
// inline "(depends: ...)" references.
//
// The annotation grammar is deliberately small and its failure modes are a
// compatibility contract: malformed ranges expand to empty rather than
// erroring, and a single malformed token voids an entire dependency
// extraction. Callers that want stricter behavior must validate the
// surrounding document themselves.
package constraint
