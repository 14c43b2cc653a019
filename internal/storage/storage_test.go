package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wellness-tracker/internal/common/errors"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		s := newTestStorage(t)

		user, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "a@example.com", user.Email)
		assert.NotEqual(t, "password123", user.PasswordHash)

		fetched, err := s.GetUserByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, fetched.ID)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		s := newTestStorage(t)

		_, err := s.CreateUser(ctx, "", "password123")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

		_, err = s.CreateUser(ctx, "a@example.com", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		s := newTestStorage(t)

		_, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, "a@example.com", "different")
		assert.Error(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		s := newTestStorage(t)

		_, err := s.GetUserByEmail(ctx, "nobody@example.com")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}

func TestValidateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.CreateUser(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := s.ValidateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", user.Email)
	})

	t.Run("wrong password and unknown email produce the same error", func(t *testing.T) {
		_, errWrongPassword := s.ValidateUser(ctx, "a@example.com", "wrong")
		_, errUnknownEmail := s.ValidateUser(ctx, "nobody@example.com", "password123")

		require.Error(t, errWrongPassword)
		require.Error(t, errUnknownEmail)
		assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
		assert.True(t, apperrors.IsType(errWrongPassword, apperrors.ErrTypeAuth))
		assert.True(t, apperrors.IsType(errUnknownEmail, apperrors.ErrTypeAuth))
	})
}

func TestCheckins(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list newest first", func(t *testing.T) {
		s := newTestStorage(t)
		user, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			_, err := s.CreateCheckin(ctx, user.ID, i, i+1, "note")
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		checkins, err := s.ListCheckins(ctx, user.ID, 10)
		require.NoError(t, err)
		require.Len(t, checkins, 3)
		assert.Equal(t, 3, checkins[0].Mood)
		assert.Equal(t, 1, checkins[2].Mood)
	})

	t.Run("scores outside 1-10 rejected", func(t *testing.T) {
		s := newTestStorage(t)
		user, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)

		for _, tc := range []struct{ mood, energy int }{
			{0, 5}, {11, 5}, {5, 0}, {5, 11},
		} {
			_, err := s.CreateCheckin(ctx, user.ID, tc.mood, tc.energy, "")
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation),
				"mood=%d energy=%d", tc.mood, tc.energy)
		}
	})

	t.Run("list is scoped to the user", func(t *testing.T) {
		s := newTestStorage(t)
		userA, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)
		userB, err := s.CreateUser(ctx, "b@example.com", "password123")
		require.NoError(t, err)

		_, err = s.CreateCheckin(ctx, userA.ID, 5, 5, "")
		require.NoError(t, err)

		checkins, err := s.ListCheckins(ctx, userB.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, checkins)
	})

	t.Run("out-of-range limit falls back to the default", func(t *testing.T) {
		s := newTestStorage(t)
		user, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)

		_, err = s.CreateCheckin(ctx, user.ID, 5, 5, "")
		require.NoError(t, err)

		for _, limit := range []int{0, -1, 500} {
			checkins, err := s.ListCheckins(ctx, user.ID, limit)
			require.NoError(t, err, "limit %d", limit)
			assert.Len(t, checkins, 1, "limit %d", limit)
		}
	})
}

func TestSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when never saved", func(t *testing.T) {
		s := newTestStorage(t)

		settings, err := s.GetSettings(ctx, "unknown-user")
		require.NoError(t, err)
		assert.True(t, settings.RemindersEnabled)
		assert.Equal(t, "UTC", settings.Timezone)
	})

	t.Run("upsert and read back", func(t *testing.T) {
		s := newTestStorage(t)
		user, err := s.CreateUser(ctx, "a@example.com", "password123")
		require.NoError(t, err)

		err = s.UpdateSettings(ctx, &Settings{
			UserID:           user.ID,
			RemindersEnabled: false,
			Timezone:         "Europe/Berlin",
		})
		require.NoError(t, err)

		settings, err := s.GetSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, settings.RemindersEnabled)
		assert.Equal(t, "Europe/Berlin", settings.Timezone)

		// Second write updates in place
		err = s.UpdateSettings(ctx, &Settings{UserID: user.ID, RemindersEnabled: true})
		require.NoError(t, err)

		settings, err = s.GetSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, settings.RemindersEnabled)
		assert.Equal(t, "UTC", settings.Timezone)
	})
}
