package sink

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/oswinhale/steading/internal/metrics"
)

// SQLiteStore keeps run history queryable after the fact: one row per run,
// one row per day.
type SQLiteStore struct {
	conn  *sqlx.DB
	runID string
}

// OpenSQLite opens (or creates) the history database and registers a run.
func OpenSQLite(path, runID string, seed int64, days, population int) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	st := &SQLiteStore{conn: conn, runID: runID}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	_, err = conn.Exec(
		`INSERT INTO runs (id, seed, days, population, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, seed, days, population, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}
	return st, nil
}

func (st *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		days INTEGER NOT NULL,
		population INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		population INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		trades INTEGER NOT NULL,
		mean_wellbeing REAL NOT NULL,
		wealth_gini REAL NOT NULL,
		total_food_value REAL NOT NULL,
		payload_json TEXT NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// WriteSnapshot inserts one day's row. The full snapshot travels as JSON so
// the schema never lags the struct.
func (st *SQLiteStore) WriteSnapshot(s metrics.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot day %d: %w", s.Day, err)
	}
	_, err = st.conn.Exec(
		`INSERT INTO snapshots
		 (run_id, day, population, births, deaths, trades,
		  mean_wellbeing, wealth_gini, total_food_value, payload_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.runID, s.Day, s.Population, s.Births, s.Deaths, s.Trades,
		s.MeanWellbeing, s.WealthGini, s.TotalFoodValue, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot day %d: %w", s.Day, err)
	}
	return nil
}

// SnapshotRow is the queryable shape of a stored day.
type SnapshotRow struct {
	Day           int     `db:"day"`
	Population    int     `db:"population"`
	Births        int     `db:"births"`
	Deaths        int     `db:"deaths"`
	Trades        int     `db:"trades"`
	MeanWellbeing float64 `db:"mean_wellbeing"`
	WealthGini    float64 `db:"wealth_gini"`
	TotalFood     float64 `db:"total_food_value"`
}

// History returns the run's stored days in order.
func (st *SQLiteStore) History() ([]SnapshotRow, error) {
	var rows []SnapshotRow
	err := st.conn.Select(&rows,
		`SELECT day, population, births, deaths, trades,
		        mean_wellbeing, wealth_gini, total_food_value
		 FROM snapshots WHERE run_id = ? ORDER BY day`, st.runID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return rows, nil
}

// Close closes the database.
func (st *SQLiteStore) Close() error {
	return st.conn.Close()
}
