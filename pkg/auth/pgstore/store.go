// Package pgstore implements auth.Store on PostgreSQL.
//
// The schema comes from pkg/pg/migrations. Email uniqueness is enforced by
// the users_email_key index, so concurrent writers racing for one address
// are resolved by the database and the loser gets auth.ErrEmailTaken.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/pg"
)

const userColumns = `id, email, password_hash, confirmed, created_at, updated_at`

// Store is an auth.Store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ auth.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.Confirmed, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpdateUser locks the row with SELECT ... FOR UPDATE, applies fn and writes
// the result back in the same transaction.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, fn func(*auth.User) error) (*auth.User, error) {
	var updated *auth.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if err := fn(u); err != nil {
			return err
		}
		u.ID = id

		if _, err := tx.Exec(ctx,
			`UPDATE users SET email = $2, password_hash = $3, confirmed = $4, updated_at = $5 WHERE id = $1`,
			u.ID, u.Email, u.PasswordHash, u.Confirmed, u.UpdatedAt,
		); err != nil {
			return mapWriteErr(err)
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func mapWriteErr(err error) error {
	if pg.IsDuplicateKeyError(err) {
		if pg.ConstraintName(err) == "users_pkey" {
			return errors.Join(auth.ErrUserExists, err)
		}
		return errors.Join(auth.ErrEmailTaken, err)
	}
	return fmt.Errorf("failed to write user: %w", err)
}
