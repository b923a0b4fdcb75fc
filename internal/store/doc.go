// Package store keeps comboing results in SQLite.
//
// Each run of the comboer gets a UUID and a row in runs; per-event,
// per-reaction combo counts go to reaction_counts. The schema is managed by
// golang-migrate from migrations embedded in the binary.
package store
