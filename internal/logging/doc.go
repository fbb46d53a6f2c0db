// Package logging wires log/slog for the daemon and CLI.
//
// Two output formats are supported: a console handler that prints
// "timestamp LEVEL component: message key=value" lines, and a JSON handler
// for machine consumption. Helpers expose typed attribute constructors so
// call sites never touch slog directly, plus context-derived fields (memo
// stem, stage, run ID) for correlated pipeline logs.
package logging
