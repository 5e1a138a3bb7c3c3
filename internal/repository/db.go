package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repositories rely on.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	// ErrDuplicateToken means the generated feed token is already taken.
	ErrDuplicateToken = errors.New("calendar subscription token already exists")
	// ErrDuplicateSubscription means an equivalent subscription already exists for the user.
	ErrDuplicateSubscription = errors.New("calendar subscription already exists")
	// ErrQuotaExceeded means the user is at the subscription limit.
	ErrQuotaExceeded = errors.New("calendar subscription limit reached")
)

const tokenUniqueConstraint = "calendar_subscriptions_token_key"

// IsDuplicateKeyError detects unique constraint violations (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if pgErr.ConstraintName == tokenUniqueConstraint {
		return fmt.Errorf("%w: %s", ErrDuplicateToken, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s", ErrDuplicateSubscription, pgErr.ConstraintName)
}

// withTx runs fn in a transaction, rolling back when fn fails.
func withTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
