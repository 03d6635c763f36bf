package runlog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/slamfront/internal/timeutil"
)

// Decision is the persisted record of one processed batch.
type Decision struct {
	DecisionID string `json:"decision_id"`
	// BatchStart and BatchStop bound the batch's measurement timestamps.
	BatchStart   int64  `json:"batch_start"`
	BatchStop    int64  `json:"batch_stop"`
	SeedClusters int    `json:"seed_clusters"`
	Variants     int    `json:"variants"`
	CandidateID  string `json:"candidate_id,omitempty"`
	// Timeshift is nil when no candidate was committed.
	Timeshift      *int64 `json:"timeshift,omitempty"`
	Unused         int    `json:"unused"`
	ConnectedCount int    `json:"connected_count"`
	Outcome        string `json:"outcome"`
	Error          string `json:"error,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// Pragmas are applied to every connection opened by Open.
var Pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens the SQLite database at path, applies Pragmas and migrates the
// schema to the latest version.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	for _, pragma := range Pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Store provides persistence for batch decisions.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewStore creates a new Store. A nil clock selects the real clock.
func NewStore(db *sql.DB, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{db: db, clock: clock}
}

// Insert persists d. If DecisionID is empty, a UUID is generated; if
// CreatedAt is zero, it is set from the store's clock.
func (s *Store) Insert(d *Decision) error {
	if d.DecisionID == "" {
		d.DecisionID = uuid.New().String()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = s.clock.Now().UnixNano()
	}

	var candidateID, errText interface{}
	if d.CandidateID != "" {
		candidateID = d.CandidateID
	}
	if d.Error != "" {
		errText = d.Error
	}
	var timeshift interface{}
	if d.Timeshift != nil {
		timeshift = *d.Timeshift
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO batch_decisions (
				decision_id, batch_start, batch_stop, seed_clusters, variants,
				candidate_id, timeshift, unused, connected_count, outcome,
				error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.DecisionID, d.BatchStart, d.BatchStop, d.SeedClusters, d.Variants,
			candidateID, timeshift, d.Unused, d.ConnectedCount, d.Outcome,
			errText, d.CreatedAt,
		)
		return err
	})
}

// ListRecent returns up to limit decisions, newest first.
func (s *Store) ListRecent(limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT decision_id, batch_start, batch_stop, seed_clusters, variants,
		       candidate_id, timeshift, unused, connected_count, outcome,
		       error, created_at
		FROM batch_decisions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Summary returns the number of decisions per outcome.
func (s *Store) Summary() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM batch_decisions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// scanDecision scans a decision row from a sql.Rows cursor.
func scanDecision(rows *sql.Rows) (*Decision, error) {
	var d Decision
	var candidateID, errText sql.NullString
	var timeshift sql.NullInt64
	err := rows.Scan(
		&d.DecisionID, &d.BatchStart, &d.BatchStop, &d.SeedClusters, &d.Variants,
		&candidateID, &timeshift, &d.Unused, &d.ConnectedCount, &d.Outcome,
		&errText, &d.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan decision row: %w", err)
	}
	d.CandidateID = candidateID.String
	d.Error = errText.String
	if timeshift.Valid {
		v := timeshift.Int64
		d.Timeshift = &v
	}
	return &d, nil
}

// retryOnBusy runs fn, retrying with exponential backoff while SQLite
// reports the database as locked.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("database busy after %d attempts: %w", maxAttempts, err)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
