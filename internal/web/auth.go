package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/meetups/internal/apiclient"
	"github.com/goserg/meetups/internal/web/webpath"
)

func (s *Server) handleLoginGet(ctx *fiber.Ctx) error {
	if state(ctx).user() != nil {
		return ctx.Redirect(webpath.Dashboard)
	}
	return s.render(ctx, "login", newData("Sign in"))
}

func (s *Server) handleLoginPost(ctx *fiber.Ctx) error {
	req, err := parseSignInRequest(ctx)
	if err != nil {
		ctx.Status(fiber.StatusUnprocessableEntity)
		return s.render(ctx, "login", newData("Sign in").With("Email", req.Email).WithErrors(err))
	}
	auth, err := s.api(ctx).Login(req.convertToDomain())
	if err != nil {
		return s.authFailed(ctx, "login", "Sign in", req.Email, err)
	}
	if err := s.startSession(ctx, auth); err != nil {
		return err
	}
	s.log.WithField("user_id", auth.User.ID).Info("user signed in")
	setFlash(ctx, flashSuccess, "Welcome back, "+auth.User.Name)
	return ctx.Redirect(webpath.Dashboard)
}

func (s *Server) handleRegisterGet(ctx *fiber.Ctx) error {
	if state(ctx).user() != nil {
		return ctx.Redirect(webpath.Dashboard)
	}
	return s.render(ctx, "register", newData("Create account"))
}

func (s *Server) handleRegisterPost(ctx *fiber.Ctx) error {
	req, err := parseSignUpRequest(ctx)
	if err != nil {
		ctx.Status(fiber.StatusUnprocessableEntity)
		return s.render(ctx, "register", newData("Create account").
			With("Email", req.Email).
			With("Name", req.Name).
			WithErrors(err))
	}
	auth, err := s.api(ctx).Register(req.convertToDomain())
	if err != nil {
		return s.authFailed(ctx, "register", "Create account", req.Email, err, "Name", req.Name)
	}
	if err := s.startSession(ctx, auth); err != nil {
		return err
	}
	s.log.WithField("user_id", auth.User.ID).Info("user registered")
	setFlash(ctx, flashSuccess, "Account created")
	return ctx.Redirect(webpath.Dashboard)
}

// authFailed shows the form again with the API's message. Rejected
// credentials come back as 401 and must not reach the error handler, which
// would redirect back to the login page and lose the message.
func (s *Server) authFailed(ctx *fiber.Ctx, view, title, email string, err error, kv ...string) error {
	var ae *apiclient.APIError
	if !errors.As(err, &ae) {
		return err
	}
	status := ae.Status
	if status == 0 {
		status = fiber.StatusBadGateway
	}
	d := newData(title).With("Email", email).WithErrors(errors.New(ae.Message))
	for i := 0; i+1 < len(kv); i += 2 {
		d = d.With(kv[i], kv[i+1])
	}
	ctx.Status(status)
	return s.render(ctx, view, d)
}

func (s *Server) handleLogout(ctx *fiber.Ctx) error {
	state(ctx).Clear()
	setFlash(ctx, flashSuccess, "You have been signed out")
	return ctx.Redirect(webpath.Home)
}
