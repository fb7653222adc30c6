package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/goserg/meetups/internal/migrate"
	"github.com/goserg/meetups/internal/session"
)

// Storage keeps sessions server side; the cookie only carries the id.
type Storage struct {
	db  *sql.DB
	ttl time.Duration
	log *logrus.Entry
}

var _ session.Store = (*Storage)(nil)

func New(l *logrus.Logger, fileName string, ttl time.Duration) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "session-storage",
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = migrate.UpSessionDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("session storage connected")
	return &Storage{
		db:  db,
		ttl: ttl,
		log: log,
	}, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Save(ctx context.Context, sess session.Session) (string, error) {
	now := time.Now()
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = now.Add(s.ttl)
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return "", err
	}
	if _, err := s.DeleteExpired(ctx); err != nil {
		s.log.WithError(err).Warn("unable to delete expired sessions")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_json, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Token, string(user), now.Unix(), sess.ExpiresAt.Unix(),
	)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func (s *Storage) Load(ctx context.Context, value string) (session.Session, error) {
	if _, err := uuid.Parse(value); err != nil {
		return session.Session{}, session.ErrNoSession
	}
	var (
		token     string
		user      string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_json, expires_at FROM sessions WHERE id = ?`, value,
	).Scan(&token, &user, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNoSession
		}
		return session.Session{}, err
	}
	sess := session.Session{
		ID:        value,
		Token:     token,
		ExpiresAt: time.Unix(expiresAt, 0),
	}
	if err := json.Unmarshal([]byte(user), &sess.User); err != nil {
		return session.Session{}, err
	}
	if !sess.Valid(time.Now()) {
		if err := s.Delete(ctx, value); err != nil {
			s.log.WithError(err).Warn("unable to delete expired session")
		}
		return session.Session{}, session.ErrNoSession
	}
	return sess, nil
}

func (s *Storage) Delete(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, value)
	return err
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (s *Storage) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
