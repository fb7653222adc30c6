package web

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/meetups/internal/domain"
)

const minPasswordLen = 6

type signInRequest struct {
	Email    string
	Password string
}

func parseSignInRequest(ctx *fiber.Ctx) (req signInRequest, err error) {
	req = signInRequest{
		Email:    strings.TrimSpace(ctx.FormValue("email")),
		Password: ctx.FormValue("password"),
	}
	if req.Email == "" {
		err = errors.Join(err, errors.New("Email is required"))
	}
	if req.Password == "" {
		err = errors.Join(err, errors.New("Password is required"))
	}
	return req, err
}

func (r signInRequest) convertToDomain() domain.LoginRequest {
	return domain.LoginRequest{Email: r.Email, Password: r.Password}
}

type signupRequest struct {
	Name     string
	Email    string
	Password string
}

func parseSignUpRequest(ctx *fiber.Ctx) (signupRequest, error) {
	var err error
	req := signupRequest{
		Name:     strings.TrimSpace(ctx.FormValue("name")),
		Email:    strings.TrimSpace(ctx.FormValue("email")),
		Password: ctx.FormValue("password"),
	}
	if req.Name == "" {
		err = errors.Join(err, errors.New("Name is required"))
	}
	err = errors.Join(err, validateEmail(req.Email))
	err = errors.Join(err, validatePassword(req.Password))
	if ctx.FormValue("password-repeat") != req.Password {
		err = errors.Join(err, errors.New("Passwords do not match"))
	}
	return req, err
}

func (r signupRequest) convertToDomain() domain.RegisterRequest {
	return domain.RegisterRequest{Name: r.Name, Email: r.Email, Password: r.Password}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("Email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return errors.New("Password must be at least 6 characters")
	}
	return nil
}
