package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists comboing runs and their per-event reaction counts.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the SQLite database at path and brings its
// schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	s := &Store{DB: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Run is one invocation of the comboer.
type Run struct {
	ID         string
	StartedAt  time.Time
	Version    string
	ConfigJSON string
}

// StartRun records a new run and returns it.
func (s *Store) StartRun(version, configJSON string) (*Run, error) {
	r := &Run{
		ID:         uuid.New().String(),
		StartedAt:  time.Now().UTC(),
		Version:    version,
		ConfigJSON: configJSON,
	}
	_, err := s.Exec(`INSERT INTO runs (id, started_at, version, config_json) VALUES (?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Version, r.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return r, nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	r := &Run{}
	err := s.QueryRow(`SELECT id, started_at, version, config_json FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.StartedAt, &r.Version, &r.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return r, nil
}

// RecordReactionCount stores how many final combos a reaction produced for
// one event. Re-recording the same event replaces the earlier count.
func (s *Store) RecordReactionCount(runID string, eventNumber uint64, reaction string, numCombos int) error {
	_, err := s.Exec(`INSERT OR REPLACE INTO reaction_counts (run_id, event_number, reaction, num_combos) VALUES (?, ?, ?, ?)`,
		runID, int64(eventNumber), reaction, numCombos)
	if err != nil {
		return fmt.Errorf("failed to record count for %s: %w", reaction, err)
	}
	return nil
}

// ReactionTotal aggregates one reaction over a run.
type ReactionTotal struct {
	Reaction string
	// Events is the number of events with at least one combo.
	Events    int
	NumCombos int
}

// ReactionTotals aggregates the counts of a run per reaction, ordered by name.
func (s *Store) ReactionTotals(runID string) ([]ReactionTotal, error) {
	rows, err := s.Query(`
		SELECT reaction,
		       SUM(CASE WHEN num_combos > 0 THEN 1 ELSE 0 END),
		       SUM(num_combos)
		FROM reaction_counts
		WHERE run_id = ?
		GROUP BY reaction
		ORDER BY reaction`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reaction totals: %w", err)
	}
	defer rows.Close()

	var out []ReactionTotal
	for rows.Next() {
		var t ReactionTotal
		if err := rows.Scan(&t.Reaction, &t.Events, &t.NumCombos); err != nil {
			return nil, fmt.Errorf("failed to scan reaction total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
