package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goserg/meetups/internal/apiclient"
	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/session"
	"github.com/goserg/meetups/internal/web/webpath"
)

const stateKey = "state"

// requestState is the per-request view of the browser session. It is handed
// to the API client as its Credentials.
type requestState struct {
	ctx       *fiber.Ctx
	store     session.Store
	value     string
	sess      session.Session
	requestID string
	log       *logrus.Entry
}

var (
	_ apiclient.Credentials = (*requestState)(nil)
	_ apiclient.RequestIDer = (*requestState)(nil)
)

func (r *requestState) Token() string {
	return r.sess.Token
}

func (r *requestState) RequestID() string {
	return r.requestID
}

// Clear forgets the session on both ends: the stored entry and the cookie.
func (r *requestState) Clear() {
	if r.value != "" {
		if err := r.store.Delete(context.Background(), r.value); err != nil {
			r.log.WithError(err).Warn("unable to delete session")
		}
	}
	r.value = ""
	r.sess = session.Session{}
	clearCookie(r.ctx, session.CookieName)
}

func (r *requestState) user() *domain.User {
	if r.sess.Token == "" {
		return nil
	}
	u := r.sess.User
	return &u
}

func state(c *fiber.Ctx) *requestState {
	st, _ := c.Locals(stateKey).(*requestState)
	if st == nil {
		return &requestState{ctx: c, store: nopStore{}}
	}
	return st
}

func (s *Server) api(c *fiber.Ctx) *apiclient.Client {
	return s.client.WithCredentials(state(c))
}

// requestContext assigns the request id, restores the session from its
// cookie and writes the access log line.
func (s *Server) requestContext(c *fiber.Ctx) error {
	start := time.Now()
	rid := c.Get(apiclient.HeaderRequestID)
	if _, err := uuid.Parse(rid); err != nil {
		rid = uuid.NewString()
	}
	c.Set(apiclient.HeaderRequestID, rid)
	log := s.log.WithField("request_id", rid)

	st := &requestState{
		ctx:       c,
		store:     s.sessions,
		requestID: rid,
		log:       log,
	}
	if value := c.Cookies(session.CookieName); value != "" {
		sess, err := s.sessions.Load(c.UserContext(), value)
		switch {
		case err == nil:
			st.value = value
			st.sess = sess
		case errors.Is(err, session.ErrNoSession):
			log.WithError(err).Debug("dropping stale session cookie")
			clearCookie(c, session.CookieName)
		default:
			log.WithError(err).Error("unable to load session")
			clearCookie(c, session.CookieName)
		}
	}
	c.Locals(stateKey, st)

	err := c.Next()
	entry := log.WithFields(logrus.Fields{
		"method":  c.Method(),
		"path":    c.Path(),
		"latency": time.Since(start).String(),
	})
	if err != nil {
		entry = entry.WithError(err)
	} else {
		entry = entry.WithField("status", c.Response().StatusCode())
	}
	entry.Info("request")
	return err
}

// requireUser sends guests to the login page.
func (s *Server) requireUser(c *fiber.Ctx) error {
	if state(c).user() == nil {
		setFlash(c, flashError, "Please sign in to continue")
		return c.Redirect(webpath.Login)
	}
	return c.Next()
}

func (s *Server) startSession(c *fiber.Ctx, auth domain.AuthResponse) error {
	if auth.Token == "" {
		return errors.New("api returned no token")
	}
	expires := time.Now().Add(s.ttl)
	sess := session.Session{
		Token:     auth.Token,
		User:      auth.User,
		ExpiresAt: expires,
	}
	value, err := s.sessions.Save(c.UserContext(), sess)
	if err != nil {
		return err
	}
	c.Cookie(session.Cookie(value, expires, s.secure))
	st := state(c)
	st.value = value
	st.sess = sess
	return nil
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

type nopStore struct{}

func (nopStore) Save(context.Context, session.Session) (string, error) {
	return "", errors.New("no session store")
}

func (nopStore) Load(context.Context, string) (session.Session, error) {
	return session.Session{}, session.ErrNoSession
}

func (nopStore) Delete(context.Context, string) error {
	return nil
}
