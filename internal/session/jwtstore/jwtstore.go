package jwtstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/session"
)

// Store keeps the whole session in an HS256 signed cookie.
type Store struct {
	secret []byte
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

type claims struct {
	jwt.StandardClaims
	Token string      `json:"tok"`
	User  domain.User `json:"usr"`
}

func New(secret string, ttl time.Duration) *Store {
	return &Store{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Store) Save(_ context.Context, sess session.Session) (string, error) {
	now := time.Now()
	expiresAt := sess.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}
	id := sess.ID
	if id == "" {
		id = uuid.NewString()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		StandardClaims: jwt.StandardClaims{
			Id:        id,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
			Subject:   strconv.FormatInt(sess.User.ID, 10),
		},
		Token: sess.Token,
		User:  sess.User,
	})
	return token.SignedString(s.secret)
}

func (s *Store) Load(_ context.Context, value string) (session.Session, error) {
	if value == "" {
		return session.Session{}, session.ErrNoSession
	}
	var c claims
	token, err := jwt.ParseWithClaims(value, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return session.Session{}, fmt.Errorf("%w: token expired", session.ErrNoSession)
		}
		return session.Session{}, fmt.Errorf("%w: %v", session.ErrNoSession, err)
	}
	if !token.Valid || c.Token == "" {
		return session.Session{}, session.ErrNoSession
	}
	return session.Session{
		ID:        c.Id,
		Token:     c.Token,
		User:      c.User,
		ExpiresAt: time.Unix(c.ExpiresAt, 0),
	}, nil
}

// Delete is a no-op: the session only exists in the cookie.
func (s *Store) Delete(context.Context, string) error {
	return nil
}
