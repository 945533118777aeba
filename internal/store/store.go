package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sells-group/sitetrack/internal/model"
)

// Store persists per-site progress: completed feature ids and field
// notes. LoadState returns an empty snapshot, never an error, for a
// site that has no saved state yet.
type Store interface {
	SaveState(ctx context.Context, site string, snap *model.Snapshot) error
	LoadState(ctx context.Context, site string) (*model.Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool abstracts pgxpool.Pool so the Postgres backend can be unit
// tested with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}
