package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps snapshots in the snapshots table created by the
// database migrations.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a PostgresStore over db.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, id string) (any, bool, error) {
	var body string
	err := s.db.QueryRow(ctx, `SELECT body::text FROM snapshots WHERE identity = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	tree, err := Decode([]byte(body))
	if err != nil {
		return nil, false, fmt.Errorf("snapshot %q: %w", id, err)
	}
	return tree, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, tree any) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO snapshots (identity, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (identity) DO UPDATE
		SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`, id, string(data))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM snapshots WHERE identity = $1`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT identity FROM snapshots ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return keys, nil
}
