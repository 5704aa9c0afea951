// Package overrides holds the curated fixes for known upstream data errors.
//
// Rules come from a small built-in table plus an optional user catalog
// (JSON or YAML, either a bare list or {"overrides": [...]}). They run as a
// separate pass after matching and merging so the core algorithms stay free
// of per-card special cases. The engine also consults an Index while
// importing: pinned identifiers are redirected to their true card and
// skip-listed images never enter the database.
package overrides
