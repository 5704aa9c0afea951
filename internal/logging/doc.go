// Package logging assembles the slog loggers used by the hocg command and the
// reconciliation packages.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag every line of a run with its run ID, the source
// being ingested and the card being reconciled. A no-op logger is provided
// for tests and for wiring code that cannot fail.
package logging
