package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sitetrack/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS site_state (
	site       TEXT PRIMARY KEY,
	completed  TEXT NOT NULL DEFAULT '[]',
	notes      TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveState(ctx context.Context, site string, snap *model.Snapshot) error {
	completedJSON, notesJSON, err := marshalSnapshot(snap)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO site_state (site, completed, notes, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(site) DO UPDATE SET completed = excluded.completed,
		   notes = excluded.notes, updated_at = excluded.updated_at`,
		site, completedJSON, notesJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save state %s", site)
}

func (s *SQLiteStore) LoadState(ctx context.Context, site string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT completed, notes FROM site_state WHERE site = ?`, site,
	)

	var completedJSON, notesJSON string
	err := row.Scan(&completedJSON, &notesJSON)
	if err == sql.ErrNoRows {
		return &model.Snapshot{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load state %s", site)
	}
	return unmarshalSnapshot(completedJSON, notesJSON)
}

// helpers shared by both backends

func marshalSnapshot(snap *model.Snapshot) (string, string, error) {
	completed := snap.Completed
	if completed == nil {
		completed = []string{}
	}
	notes := snap.Notes
	if notes == nil {
		notes = []model.Note{}
	}

	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal completed")
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return "", "", eris.Wrap(err, "marshal notes")
	}
	return string(completedJSON), string(notesJSON), nil
}

func unmarshalSnapshot(completedJSON, notesJSON string) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(completedJSON), &snap.Completed); err != nil {
		return nil, eris.Wrap(err, "unmarshal completed")
	}
	if err := json.Unmarshal([]byte(notesJSON), &snap.Notes); err != nil {
		return nil, eris.Wrap(err, "unmarshal notes")
	}
	return &snap, nil
}
