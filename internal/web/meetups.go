package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/meetups/internal/apiclient"
	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/service"
	"github.com/goserg/meetups/internal/web/webpath"
)

const imageFailedMessage = "The meetup was saved but the image upload failed. You can add the image later by editing the meetup."

func (s *Server) handleHome(ctx *fiber.Ctx) error {
	return s.listMeetups(ctx, "index", "Upcoming meetups")
}

func (s *Server) handleDashboard(ctx *fiber.Ctx) error {
	return s.listMeetups(ctx, "dashboard", "My meetups")
}

// listMeetups renders an empty list with a notice when the API is down,
// except for a rejected token which goes through the error handler.
func (s *Server) listMeetups(ctx *fiber.Ctx, view, title string) error {
	query := ctx.Query("q")
	d := newData(title).With("Query", query)
	meetups, err := s.meetups.Search(s.api(ctx), query)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		s.log.WithError(err).Warn("unable to load meetups")
		d = d.With("LoadError", apiclient.Message(err))
	}
	return s.render(ctx, view, d.With("Meetups", meetups))
}

func meetupID(ctx *fiber.Ctx) (int64, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Meetup not found")
	}
	return int64(id), nil
}

func (s *Server) handleDetail(ctx *fiber.Ctx) error {
	id, err := meetupID(ctx)
	if err != nil {
		return err
	}
	detail, err := s.meetups.Detail(s.api(ctx), id)
	if err != nil {
		return err
	}
	user := state(ctx).user()
	return s.render(ctx, "meetup", newData(detail.Meetup.Title).
		With("Meetup", detail.Meetup).
		With("Confirmed", detail.Confirmed()).
		With("Waitlisted", detail.Waitlisted()).
		With("CanEdit", domain.CanEdit(user, detail.Meetup)))
}

func (s *Server) handleCreateGet(ctx *fiber.Ctx) error {
	return s.renderForm(ctx, newData("Create meetup"), meetupForm{Capacity: "10"}, webpath.NewMeetup)
}

func (s *Server) handleCreatePost(ctx *fiber.Ctx) error {
	form, img, err := parseMeetupForm(ctx)
	if err != nil {
		return err
	}
	out, err := s.meetups.Create(s.api(ctx), form.convertToDomain(), img)
	if err != nil {
		return s.formFailed(ctx, newData("Create meetup"), form, webpath.NewMeetup, err)
	}
	s.imageOutcome(ctx, out, "Meetup created")
	return ctx.Redirect(webpath.MeetupURL(out.Meetup.ID))
}

func (s *Server) handleEditGet(ctx *fiber.Ctx) error {
	id, err := meetupID(ctx)
	if err != nil {
		return err
	}
	m, err := s.api(ctx).GetMeetup(id)
	if err != nil {
		return err
	}
	if !domain.CanEdit(state(ctx).user(), m) {
		return fiber.NewError(fiber.StatusForbidden, "You can only edit your own meetups")
	}
	return s.renderForm(ctx, newData("Edit meetup").With("Meetup", m), formFromMeetup(m), webpath.EditMeetupURL(id))
}

func (s *Server) handleEditPost(ctx *fiber.Ctx) error {
	id, err := meetupID(ctx)
	if err != nil {
		return err
	}
	form, img, err := parseMeetupForm(ctx)
	if err != nil {
		return err
	}
	out, err := s.meetups.Update(s.api(ctx), id, form.convertToDomain(), img, form.RemoveImage)
	if err != nil {
		return s.formFailed(ctx, newData("Edit meetup"), form, webpath.EditMeetupURL(id), err)
	}
	s.imageOutcome(ctx, out, "Meetup updated")
	return ctx.Redirect(webpath.MeetupURL(id))
}

func (s *Server) renderForm(ctx *fiber.Ctx, d data, form meetupForm, action string) error {
	return s.render(ctx, "form", d.
		With("Form", form).
		With("Action", action).
		With("MinDate", inputDate(domain.NewDateTime(s.now()))))
}

// formFailed keeps the user on the form: validation errors are shown per
// field, API errors as a message above the form.
func (s *Server) formFailed(ctx *fiber.Ctx, d data, form meetupForm, action string, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	if errors.Is(err, service.ErrInvalid) {
		ctx.Status(fiber.StatusUnprocessableEntity)
		return s.renderForm(ctx, d.WithErrors(err), form, action)
	}
	var ae *apiclient.APIError
	if !errors.As(err, &ae) {
		return err
	}
	status := ae.Status
	if status == 0 {
		status = fiber.StatusBadGateway
	}
	ctx.Status(status)
	return s.renderForm(ctx, d.WithErrors(errors.New(ae.Message)), form, action)
}

func (s *Server) imageOutcome(ctx *fiber.Ctx, out service.Outcome, success string) {
	if out.ImageErr != nil {
		setFlash(ctx, flashWarning, imageFailedMessage)
		return
	}
	setFlash(ctx, flashSuccess, success)
}

func (s *Server) handleRSVP(ctx *fiber.Ctx) error {
	id, err := meetupID(ctx)
	if err != nil {
		return err
	}
	m := domain.Meetup{ID: id, IsUserRSVPed: ctx.FormValue("action") == "cancel"}
	res, err := s.meetups.ToggleRSVP(s.api(ctx), m)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		setFlash(ctx, flashError, apiclient.Message(err))
		return ctx.Redirect(webpath.MeetupURL(id))
	}
	msg := res.Message
	if msg == "" {
		msg = "RSVP updated"
	}
	setFlash(ctx, flashSuccess, msg)
	return ctx.Redirect(webpath.MeetupURL(id))
}

func (s *Server) handleDelete(ctx *fiber.Ctx) error {
	id, err := meetupID(ctx)
	if err != nil {
		return err
	}
	if err := s.meetups.Delete(s.api(ctx), id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		setFlash(ctx, flashError, "Failed to delete meetup: "+apiclient.Message(err))
		return ctx.Redirect(webpath.MeetupURL(id))
	}
	setFlash(ctx, flashSuccess, "Meetup deleted")
	return ctx.Redirect(webpath.Dashboard)
}
