// Package store keeps link outputs of simulation runs in SQLite
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/LdDl/net2otm/engine"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	KIND_VEHICLES = "link_veh"
	KIND_FLOWS    = "link_flw"
)

// Store wraps SQLite connection
type Store struct {
	sql *sql.DB
}

// Run is a stored run header
type Run struct {
	CreatedAt      time.Time
	ID             string
	DocumentPath   string
	SimulationTime float64
	SampleDt       float64
	Trials         int
}

// Open opens (or creates) the database and runs migrations. Use ":memory:" for a temporary database
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "Can't open database")
	}
	// Every connection to ':memory:' gets its own database
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "Can't ping database")
	}
	st := &Store{sql: sqlDB}
	if err := st.migrate(); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "Can't migrate database")
	}
	return st, nil
}

func (st *Store) Close() error {
	return st.sql.Close()
}

func (st *Store) migrate() error {
	version := 0
	st.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := st.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS runs (
				id              TEXT PRIMARY KEY,
				created_at      TEXT NOT NULL,
				document_path   TEXT NOT NULL,
				simulation_time REAL NOT NULL,
				sample_dt       REAL NOT NULL,
				trials          INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS link_samples (
				run_id  TEXT NOT NULL REFERENCES runs(id),
				kind    TEXT NOT NULL,
				link_id TEXT NOT NULL,
				samples TEXT NOT NULL,
				PRIMARY KEY (run_id, kind, link_id)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores result under a new run identifier
func (st *Store) SaveRun(ctx context.Context, result *engine.Result) (string, error) {
	if result == nil {
		return "", errors.New("result is nil")
	}
	runID := uuid.New().String()
	tx, err := st.sql.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, document_path, simulation_time, sample_dt, trials) VALUES (?, ?, ?, ?, ?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339Nano), result.DocumentPath, result.SimulationTime, result.SampleDt, result.Trials,
	)
	if err != nil {
		return "", errors.Wrap(err, "Can't insert run")
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO link_samples (run_id, kind, link_id, samples) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", errors.Wrap(err, "Can't prepare statement")
	}
	defer stmt.Close()
	for kind, series := range map[string]engine.LinkSeries{KIND_VEHICLES: result.LinkVehicles, KIND_FLOWS: result.LinkFlows} {
		for linkID, values := range series {
			data, err := json.Marshal(values)
			if err != nil {
				return "", errors.Wrap(err, "Can't encode samples")
			}
			if _, err := stmt.ExecContext(ctx, runID, kind, linkID, string(data)); err != nil {
				return "", errors.Wrapf(err, "Can't insert samples of link %s", linkID)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "Can't commit run")
	}
	return runID, nil
}

// GetRun returns header of the run
func (st *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{}
	var createdAt string
	err := st.sql.QueryRowContext(ctx,
		"SELECT id, created_at, document_path, simulation_time, sample_dt, trials FROM runs WHERE id = ?", runID,
	).Scan(&run.ID, &createdAt, &run.DocumentPath, &run.SimulationTime, &run.SampleDt, &run.Trials)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't find run %s", runID)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse run time")
	}
	return run, nil
}

// LinkSeries returns samples of the given kind for a single link
func (st *Store) LinkSeries(ctx context.Context, runID, kind, linkID string) ([]float64, error) {
	var data string
	err := st.sql.QueryRowContext(ctx,
		"SELECT samples FROM link_samples WHERE run_id = ? AND kind = ? AND link_id = ?", runID, kind, linkID,
	).Scan(&data)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't find %s samples of link %s", kind, linkID)
	}
	values := make([]float64, 0)
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, errors.Wrap(err, "Can't decode samples")
	}
	return values, nil
}

// Links returns identifiers of links having samples of the given kind
func (st *Store) Links(ctx context.Context, runID, kind string) ([]string, error) {
	rows, err := st.sql.QueryContext(ctx, "SELECT link_id FROM link_samples WHERE run_id = ? AND kind = ?", runID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query links")
	}
	defer rows.Close()
	links := make([]string, 0)
	for rows.Next() {
		var linkID string
		if err := rows.Scan(&linkID); err != nil {
			return nil, errors.Wrap(err, "Can't scan link")
		}
		links = append(links, linkID)
	}
	sort.Strings(links)
	return links, rows.Err()
}
