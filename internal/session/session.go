package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/meetups/internal/domain"
)

const CookieName = "session"

var ErrNoSession = errors.New("no session")

// Session is what the browser keeps between requests: the API bearer token
// and the signed in user.
type Session struct {
	ID        string
	Token     string
	User      domain.User
	ExpiresAt time.Time
}

func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && (s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt))
}

// Store persists sessions. The string returned by Save is the cookie value
// that Load and Delete accept.
type Store interface {
	Save(ctx context.Context, s Session) (string, error)
	Load(ctx context.Context, value string) (Session, error)
	Delete(ctx context.Context, value string) error
}

func Cookie(value string, expires time.Time, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
