package web

import (
	"errors"

	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/service"
	"github.com/goserg/meetups/internal/web/webpath"
)

type data struct {
	Title       string
	Path        map[string]string
	User        *domain.User
	Flash       *flash
	Errors      []string
	FieldErrors map[string]string
	Data        map[string]any
}

func newData(title string) data {
	return data{
		Title:       title,
		Path:        webpath.Path(),
		FieldErrors: make(map[string]string),
		Data:        make(map[string]any),
	}
}

func (m data) WithUser(user *domain.User) data {
	m.User = user
	return m
}

func (m data) WithFlash(f *flash) data {
	m.Flash = f
	return m
}

func (m data) With(key string, value any) data {
	if m.Data == nil {
		m.Data = make(map[string]any)
	}
	m.Data[key] = value
	return m
}

type multierr interface {
	Unwrap() []error
}

func unwrap(err error) []error {
	var merr multierr
	if errors.As(err, &merr) {
		var errs []error
		for _, err := range merr.Unwrap() {
			errs = append(errs, unwrap(err)...)
		}
		return errs
	}
	return []error{err}
}

// WithErrors lists every joined error; field errors are also indexed by
// field so the form can show them inline.
func (m data) WithErrors(err error) data {
	if err == nil {
		return m
	}
	if m.FieldErrors == nil {
		m.FieldErrors = make(map[string]string)
	}
	for _, err := range unwrap(err) {
		m.Errors = append(m.Errors, err.Error())
	}
	for field, msg := range service.FieldErrors(err) {
		m.FieldErrors[field] = msg
	}
	return m
}
