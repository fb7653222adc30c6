package mem

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/session"
)

type countingStore struct {
	mu      sync.Mutex
	data    map[string]session.Session
	saves   int
	loads   int
	deletes int
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string]session.Session)}
}

// Save assigns an ID and a one hour expiry when they are missing.
func (s *countingStore) Save(_ context.Context, sess session.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	value := "s" + strconv.Itoa(s.saves)
	if sess.ID == "" {
		sess.ID = value
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = time.Now().Add(time.Hour)
	}
	s.data[value] = sess
	return value, nil
}

func (s *countingStore) Load(_ context.Context, value string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	sess, ok := s.data[value]
	if !ok || !sess.Valid(time.Now()) {
		return session.Session{}, session.ErrNoSession
	}
	return sess, nil
}

func (s *countingStore) Delete(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.data, value)
	return nil
}

func TestCacheServesRepeatedLoads(t *testing.T) {
	ctx := context.Background()
	next := newCountingStore()
	c := New(next)

	value, err := c.Save(ctx, session.Session{Token: "t", User: domain.User{ID: 1}, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		s, err := c.Load(ctx, value)
		require.NoError(t, err)
		assert.Equal(t, "t", s.Token)
	}
	assert.Equal(t, 1, next.loads)
	assert.Equal(t, 1, c.Len())
}

func TestCacheFillsFromStore(t *testing.T) {
	ctx := context.Background()
	next := newCountingStore()
	value, err := next.Save(ctx, session.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	c := New(next)
	_, err = c.Load(ctx, value)
	require.NoError(t, err)
	_, err = c.Load(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, 1, next.loads)
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	next := newCountingStore()
	c := New(next)
	value, err := c.Save(ctx, session.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, value))
	assert.Equal(t, 1, next.deletes)
	assert.Equal(t, 0, c.Len())
	_, err = c.Load(ctx, value)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestCacheDropsExpired(t *testing.T) {
	ctx := context.Background()
	next := newCountingStore()
	c := New(next)
	now := time.Now()
	c.now = func() time.Time { return now }
	value, err := c.Save(ctx, session.Session{Token: "t", ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	next.data[value] = session.Session{Token: "t", ExpiresAt: time.Now().Add(-time.Second)}
	_, err = c.Load(ctx, value)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, next.loads)
}

func TestCacheConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c := New(newCountingStore())
	value, err := c.Save(ctx, session.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = c.Load(ctx, value)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestCacheKeepsStoredSession(t *testing.T) {
	tests := []struct {
		name    string
		in      session.Session
		wantID  string
		expires bool
	}{
		{
			name:    "store assigns id and expiry",
			in:      session.Session{Token: "t"},
			wantID:  "s1",
			expires: true,
		},
		{
			name:    "caller id kept",
			in:      session.Session{ID: "own", Token: "t", ExpiresAt: time.Now().Add(time.Minute)},
			wantID:  "own",
			expires: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			next := newCountingStore()
			c := New(next)

			value, err := c.Save(ctx, tt.in)
			require.NoError(t, err)
			got, err := c.Load(ctx, value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.expires, !got.ExpiresAt.IsZero())
			assert.Equal(t, next.data[value], got)
			assert.Equal(t, 1, next.loads)
		})
	}
}

func TestCacheSweepsExpiredOnSave(t *testing.T) {
	ctx := context.Background()
	next := newCountingStore()
	c := New(next)
	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := c.Save(ctx, session.Session{Token: "t", ExpiresAt: now.Add(time.Minute)})
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := c.Save(ctx, session.Session{Token: "t", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}
