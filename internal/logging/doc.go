// Package logging provides structured JSON logging to a per-state-dir
// debug log file.
package logging
