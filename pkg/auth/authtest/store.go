// Package authtest holds a conformance suite for auth.Store implementations.
package authtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/auth"
)

// NewUser returns an unsaved user with the given email and a dummy hash.
func NewUser(email string) *auth.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: []byte("$2a$04$placeholderplaceholderplaceholderplaceholderplace"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// uniqueEmail keeps parallel runs against a shared database apart.
func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8] + "@example.com"
}

// RunStoreTests checks that s honours the auth.Store contract.
// The store may be shared between subtests; every subtest uses fresh emails.
func RunStoreTests(t *testing.T, s auth.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		u := NewUser(uniqueEmail("create"))
		require.NoError(t, s.CreateUser(ctx, u))

		byID, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
		assert.Equal(t, u.PasswordHash, byID.PasswordHash)
		assert.False(t, byID.Confirmed)
		assert.WithinDuration(t, u.CreatedAt, byID.CreatedAt, time.Millisecond)

		byEmail, err := s.GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		email := uniqueEmail("dup")
		require.NoError(t, s.CreateUser(ctx, NewUser(email)))
		assert.ErrorIs(t, s.CreateUser(ctx, NewUser(email)), auth.ErrEmailTaken)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		_, err = s.GetUserByEmail(ctx, uniqueEmail("missing"))
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		_, err = s.UpdateUser(ctx, uuid.New(), func(*auth.User) error { return nil })
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		assert.ErrorIs(t, s.DeleteUser(ctx, uuid.New()), auth.ErrUserNotFound)
	})

	t.Run("update applies mutation", func(t *testing.T) {
		u := NewUser(uniqueEmail("update"))
		require.NoError(t, s.CreateUser(ctx, u))

		newEmail := uniqueEmail("updated")
		updated, err := s.UpdateUser(ctx, u.ID, func(cur *auth.User) error {
			cur.Email = newEmail
			cur.Confirmed = true
			cur.PasswordHash = []byte("new-hash")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, newEmail, updated.Email)
		assert.True(t, updated.Confirmed)

		got, err := s.GetUserByEmail(ctx, newEmail)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, []byte("new-hash"), got.PasswordHash)

		_, err = s.GetUserByEmail(ctx, u.Email)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("update keeps state when fn fails", func(t *testing.T) {
		u := NewUser(uniqueEmail("rollback"))
		require.NoError(t, s.CreateUser(ctx, u))

		boom := errors.New("boom")
		_, err := s.UpdateUser(ctx, u.ID, func(cur *auth.User) error {
			cur.Confirmed = true
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, got.Confirmed)
	})

	t.Run("update rejects taken email", func(t *testing.T) {
		first := NewUser(uniqueEmail("first"))
		second := NewUser(uniqueEmail("second"))
		require.NoError(t, s.CreateUser(ctx, first))
		require.NoError(t, s.CreateUser(ctx, second))

		_, err := s.UpdateUser(ctx, second.ID, func(cur *auth.User) error {
			cur.Email = first.Email
			return nil
		})
		assert.ErrorIs(t, err, auth.ErrEmailTaken)

		got, err := s.GetUserByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second.Email, got.Email)
	})

	t.Run("concurrent updates to one address", func(t *testing.T) {
		const n = 6
		target := uniqueEmail("target")
		users := make([]*auth.User, n)
		for i := range n {
			users[i] = NewUser(uniqueEmail("racer"))
			require.NoError(t, s.CreateUser(ctx, users[i]))
		}

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.UpdateUser(ctx, users[i].ID, func(cur *auth.User) error {
					cur.Email = target
					return nil
				})
			}(i)
		}
		wg.Wait()

		var winners int
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			assert.ErrorIs(t, err, auth.ErrEmailTaken)
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("delete", func(t *testing.T) {
		u := NewUser(uniqueEmail("delete"))
		require.NoError(t, s.CreateUser(ctx, u))
		require.NoError(t, s.DeleteUser(ctx, u.ID))

		_, err := s.GetUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		assert.NoError(t, s.CreateUser(ctx, NewUser(u.Email)), "email is free again")
	})
}
