// Package store holds the canonical card database shared by every
// reconciliation worker.
//
// # Locking
//
// A single sync.RWMutex guards the database. Get, Range, Snapshot and Len take
// the read lock and hand out deep copies. Update and UpdateAll hold the write
// lock across the whole read-decide-write unit, which keeps matching and
// merging serialized per card.
//
// # Storage
//
// The database is one JSON object keyed by card number (hocg_cards.json under
// the assets directory). Save writes it through a temp file and a rename so an
// interrupted run never leaves a truncated file. Open takes a gofrs/flock lock
// next to the file so two sync runs cannot interleave writes.
package store
