package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geocluster/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	algorithm     TEXT NOT NULL,
	record_count  INTEGER NOT NULL,
	cluster_count INTEGER NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS points (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	point_id     TEXT NOT NULL,
	description  TEXT NOT NULL,
	cleaned_text TEXT NOT NULL,
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	cluster_id   INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS clusters (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	cluster_id   INTEGER NOT NULL,
	top_terms    TEXT NOT NULL,
	member_count INTEGER NOT NULL,
	color        TEXT NOT NULL,
	PRIMARY KEY (run_id, cluster_id)
);

CREATE INDEX IF NOT EXISTS idx_points_run_id ON points(run_id);
CREATE INDEX IF NOT EXISTS idx_clusters_run_id ON clusters(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun writes the run, its points and its cluster summaries in a single
// transaction. Point order is preserved via the position column.
func (s *SQLiteStore) SaveRun(ctx context.Context, detail RunDetail) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	created := detail.Run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, algorithm, record_count, cluster_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		detail.Run.ID, detail.Run.Algorithm, detail.Run.RecordCount, detail.Run.ClusterCount, created,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for i, r := range detail.Records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO points (run_id, position, point_id, description, cleaned_text, latitude, longitude, cluster_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			detail.Run.ID, i, r.ID, r.Description, r.CleanedText, r.Latitude, r.Longitude, r.ClusterID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert point %s", r.ID)
		}
	}

	for id, summary := range detail.Summaries {
		terms, err := json.Marshal(summary.TopTerms)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal terms")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO clusters (run_id, cluster_id, top_terms, member_count, color) VALUES (?, ?, ?, ?, ?)`,
			detail.Run.ID, id, string(terms), summary.MemberCount, detail.Colors[id],
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert cluster %d", id)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	var run Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, algorithm, record_count, cluster_count, created_at FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &run.Algorithm, &run.RecordCount, &run.ClusterCount, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	detail := &RunDetail{
		Run:       run,
		Summaries: make(map[int]model.ClusterSummary),
		Colors:    make(map[int]string),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT point_id, description, cleaned_text, latitude, longitude, cluster_id
		 FROM points WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query points")
	}
	defer rows.Close()

	for rows.Next() {
		var r model.ClusteredRecord
		if err := rows.Scan(&r.ID, &r.Description, &r.CleanedText, &r.Latitude, &r.Longitude, &r.ClusterID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		detail.Records = append(detail.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate points")
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT cluster_id, top_terms, member_count, color FROM clusters WHERE run_id = ?`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query clusters")
	}
	defer crows.Close()

	for crows.Next() {
		var (
			summary  model.ClusterSummary
			rawTerms string
			color    string
		)
		if err := crows.Scan(&summary.ClusterID, &rawTerms, &summary.MemberCount, &color); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cluster")
		}
		if err := json.Unmarshal([]byte(rawTerms), &summary.TopTerms); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal terms")
		}
		detail.Summaries[summary.ClusterID] = summary
		detail.Colors[summary.ClusterID] = color
	}
	if err := crows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate clusters")
	}

	return detail, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, algorithm, record_count, cluster_count, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Algorithm, &r.RecordCount, &r.ClusterCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
