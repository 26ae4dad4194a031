// Package store persists marking runs in SQLite.
//
// A run is one row in runs plus one row per node in marks, and, when the
// run kept explanations, one row per hop in hops. Downstream tools read
// verdicts and chains without re-running the marker.
//
// # Ordering
//
// Runs are listed by seq, the insertion order. Marks are listed by kind,
// then node with COLLATE BINARY. Hops are listed by position, 0 being the
// node's own mark and the last being the root.
//
// # Schema
//
// schema.sql creates the tables. Indexes added later are migrations
// keyed on PRAGMA user_version, so stores written by older builds open
// and upgrade in place. Every connection runs in WAL mode with foreign
// keys on: a mark must belong to a stored run and a hop to a stored mark.
package store
