// Package store persists task execution status for a plan.
//
// State lives in a JSON file guarded by an advisory file lock, with a
// shadow backup refreshed on every successful read. Every mutation is a
// locked read-modify-write followed by an atomic rename, so concurrent
// processes operating on the same state directory never observe a torn
// file. Corrupt state degrades in tiers: backup first, then a rebuild
// from the plan document with all tasks pending.
package store
