package trace

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	level  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS accepts (
	run_id       TEXT NOT NULL REFERENCES runs(run_id),
	seq          INTEGER NOT NULL,
	clock        INTEGER NOT NULL,
	conveyor     TEXT NOT NULL,
	cargo_id     TEXT NOT NULL,
	requested_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS transfers (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	seq           INTEGER NOT NULL,
	clock         INTEGER NOT NULL,
	from_conveyor TEXT NOT NULL,
	to_conveyor   TEXT NOT NULL,
	batch_size    INTEGER NOT NULL,
	cargo_ids     TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS deferrals (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	seq           INTEGER NOT NULL,
	clock         INTEGER NOT NULL,
	from_conveyor TEXT NOT NULL,
	to_conveyor   TEXT NOT NULL,
	batch_size    INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS extractions (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	seq       INTEGER NOT NULL,
	clock     INTEGER NOT NULL,
	conveyor  TEXT NOT NULL,
	cargo_ids TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// ExportSQLite writes the trace into a SQLite database at path, creating
// the tables on first use. Several runs can share one file; rows are keyed
// by run ID.
func ExportSQLite(ctx context.Context, path string, st *SimulationTrace) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("sqlite path is required")
	}
	if st == nil {
		return fmt.Errorf("trace is nil")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (run_id, level) VALUES (?, ?)`, st.RunID, string(st.Config.Level)); err != nil {
		return fmt.Errorf("insert run %s: %w", st.RunID, err)
	}
	for _, r := range st.Accepts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accepts (run_id, seq, clock, conveyor, cargo_id, requested_at) VALUES (?, ?, ?, ?, ?, ?)`,
			st.RunID, r.Seq, r.Clock, r.Conveyor, r.CargoID, r.RequestedAt); err != nil {
			return fmt.Errorf("insert accept %d: %w", r.Seq, err)
		}
	}
	for _, r := range st.Transfers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transfers (run_id, seq, clock, from_conveyor, to_conveyor, batch_size, cargo_ids) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.RunID, r.Seq, r.Clock, r.From, r.To, len(r.CargoIDs), strings.Join(r.CargoIDs, ",")); err != nil {
			return fmt.Errorf("insert transfer %d: %w", r.Seq, err)
		}
	}
	for _, r := range st.Deferrals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deferrals (run_id, seq, clock, from_conveyor, to_conveyor, batch_size) VALUES (?, ?, ?, ?, ?, ?)`,
			st.RunID, r.Seq, r.Clock, r.From, r.To, r.BatchSize); err != nil {
			return fmt.Errorf("insert deferral %d: %w", r.Seq, err)
		}
	}
	for _, r := range st.Extractions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO extractions (run_id, seq, clock, conveyor, cargo_ids) VALUES (?, ?, ?, ?, ?)`,
			st.RunID, r.Seq, r.Clock, r.Conveyor, strings.Join(r.CargoIDs, ",")); err != nil {
			return fmt.Errorf("insert extraction %d: %w", r.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace: %w", err)
	}
	return nil
}
