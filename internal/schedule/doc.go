// Package schedule computes which tasks are ready to run and selects the
// next batch under a pluggable dispatch strategy.
//
// Readiness is a pure function of the plan document and a status map;
// the store package supplies statuses and this package never mutates
// them.
package schedule
