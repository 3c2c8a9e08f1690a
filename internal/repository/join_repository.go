package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JoinRepository remembers which waitlist solicitud a user created per item.
type JoinRepository struct {
	db *pgxpool.Pool
}

func NewJoinRepository(db *pgxpool.Pool) *JoinRepository {
	return &JoinRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS wait_joins (
	email        TEXT        NOT NULL,
	item_id      BIGINT      NOT NULL,
	solicitud_id BIGINT      NOT NULL,
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (email, item_id)
)`

// EnsureSchema creates the wait_joins table when missing.
func (r *JoinRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create wait_joins: %w", err)
	}
	return nil
}

// RunAtomic executes a function within a transaction
func (r *JoinRepository) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type txKey struct{}

func (r *JoinRepository) getExecutor(ctx context.Context) PgxExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

// PgxExecutor is an interface that matches both *pgx.Conn/Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Joined returns item id -> solicitud id for email.
func (r *JoinRepository) Joined(ctx context.Context, email string) (map[int64]int64, error) {
	email = normalizeEmail(email)
	out := make(map[int64]int64)
	if email == "" {
		return out, nil
	}

	rows, err := r.getExecutor(ctx).Query(ctx,
		"SELECT item_id, solicitud_id FROM wait_joins WHERE email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("failed to query joins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, solicitudID int64
		if err := rows.Scan(&itemID, &solicitudID); err != nil {
			return nil, fmt.Errorf("failed to scan join: %w", err)
		}
		out[itemID] = solicitudID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read joins: %w", err)
	}
	return out, nil
}

func (r *JoinRepository) remember(ctx context.Context, email string, itemID, solicitudID int64) error {
	_, err := r.getExecutor(ctx).Exec(ctx, `
		INSERT INTO wait_joins (email, item_id, solicitud_id) VALUES ($1, $2, $3)
		ON CONFLICT (email, item_id) DO UPDATE SET solicitud_id = EXCLUDED.solicitud_id, joined_at = now()`,
		email, itemID, solicitudID)
	if err != nil {
		return fmt.Errorf("failed to remember join: %w", err)
	}
	return nil
}

func (r *JoinRepository) forget(ctx context.Context, email string, itemID int64) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		"DELETE FROM wait_joins WHERE email = $1 AND item_id = $2", email, itemID)
	if err != nil {
		return fmt.Errorf("failed to forget join: %w", err)
	}
	return nil
}

// Sync applies remember and forget for email in one transaction.
func (r *JoinRepository) Sync(ctx context.Context, email string, remember map[int64]int64, forget []int64) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	return r.RunAtomic(ctx, func(ctx context.Context) error {
		for itemID, solicitudID := range remember {
			if err := r.remember(ctx, email, itemID, solicitudID); err != nil {
				return err
			}
		}
		for _, itemID := range forget {
			if err := r.forget(ctx, email, itemID); err != nil {
				return err
			}
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
