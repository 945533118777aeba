package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitetrack/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS site_state (
	site       TEXT PRIMARY KEY,
	completed  JSONB NOT NULL DEFAULT '[]',
	notes      JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveState(ctx context.Context, site string, snap *model.Snapshot) error {
	completedJSON, notesJSON, err := marshalSnapshot(snap)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO site_state (site, completed, notes, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (site) DO UPDATE SET completed = EXCLUDED.completed,
		   notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`,
		site, completedJSON, notesJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save state %s", site)
}

func (s *PostgresStore) LoadState(ctx context.Context, site string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT completed::text, notes::text FROM site_state WHERE site = $1`, site,
	)

	var completedJSON, notesJSON string
	err := row.Scan(&completedJSON, &notesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.Snapshot{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load state %s", site)
	}
	return unmarshalSnapshot(completedJSON, notesJSON)
}
