package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/session"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s, err := New(log, filepath.Join(t.TempDir(), "sessions.sqlite"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	value, err := s.Save(ctx, session.Session{
		Token: "api-token",
		User:  domain.User{ID: 3, Email: "ann@example.com", Role: domain.RoleUser},
	})
	require.NoError(t, err)

	sess, err := s.Load(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, value, sess.ID)
	assert.Equal(t, "api-token", sess.Token)
	assert.Equal(t, "ann@example.com", sess.User.Email)

	require.NoError(t, s.Delete(ctx, value))
	_, err = s.Load(ctx, value)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestLoadUnknown(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, session.ErrNoSession)
	_, err = s.Load(ctx, "0b7f2d3a-5a0e-4c1e-9f52-1c1f0f8d0a11")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	value, err := s.Save(ctx, session.Session{
		Token:     "api-token",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err)

	_, err = s.Load(ctx, value)
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = s.Save(ctx, session.Session{Token: "a", ExpiresAt: time.Now().Add(-time.Second)})
	require.NoError(t, err)
	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReopenKeepsSessions(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	file := filepath.Join(t.TempDir(), "sessions.sqlite")

	s, err := New(log, file, time.Hour)
	require.NoError(t, err)
	value, err := s.Save(ctx, session.Session{Token: "api-token"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(log, file, time.Hour)
	require.NoError(t, err)
	defer s.Close()
	sess, err := s.Load(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, "api-token", sess.Token)
}
