package web

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html"
	"github.com/sirupsen/logrus"

	embedded "github.com/goserg/meetups"
	"github.com/goserg/meetups/internal/apiclient"
	"github.com/goserg/meetups/internal/config"
	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/service"
	"github.com/goserg/meetups/internal/session"
	"github.com/goserg/meetups/internal/web/webpath"
)

// bodyLimit leaves room for a full size image plus the text fields.
const bodyLimit = service.MaxImageSize + 1<<20

type Server struct {
	client   *apiclient.Client
	meetups  *service.MeetupService
	sessions session.Store
	ttl      time.Duration
	secure   bool
	app      *fiber.App
	cfg      config.Server
	log      *logrus.Entry
	now      func() time.Time
}

func New(
	cfg config.Config,
	l *logrus.Logger,
	client *apiclient.Client,
	meetups *service.MeetupService,
	sessions session.Store,
) (*Server, error) {
	ttl, err := cfg.Session.TTL()
	if err != nil {
		return nil, err
	}
	server := Server{
		client:   client,
		meetups:  meetups,
		sessions: sessions,
		ttl:      ttl,
		secure:   cfg.Session.SecureCookie,
		cfg:      cfg.Server,
		log:      l.WithField("from", "web"),
		now:      time.Now,
	}

	fsFS, err := fs.Sub(embedded.Views, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(fsFS), ".html")
	engine.Reload(cfg.Server.Debug)
	engine.Debug(cfg.Server.Debug)
	engine.AddFunc("FormatDate", formatDate)
	engine.AddFunc("InputDate", inputDate)
	engine.AddFunc("PublicBadge", domain.PublicBadge)
	engine.AddFunc("DashboardBadge", domain.DashboardBadge)
	engine.AddFunc("ImageURL", client.ImageURL)
	engine.AddFunc("MeetupURL", webpath.MeetupURL)
	engine.AddFunc("EditMeetupURL", webpath.EditMeetupURL)
	engine.AddFunc("RSVPMeetupURL", webpath.RSVPMeetupURL)
	engine.AddFunc("DeleteMeetupURL", webpath.DeleteMeetupURL)

	app := fiber.New(fiber.Config{
		Views:                 engine,
		ErrorHandler:          server.handleError,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: !cfg.Server.Debug,
	})
	app.Use(server.requestContext)

	app.Get(webpath.Home, server.handleHome)
	app.Get(webpath.Login, server.handleLoginGet)
	app.Post(webpath.Login, server.handleLoginPost)
	app.Get(webpath.Register, server.handleRegisterGet)
	app.Post(webpath.Register, server.handleRegisterPost)
	app.Get(webpath.Logout, server.handleLogout)

	app.Get(webpath.Dashboard, server.requireUser, server.handleDashboard)
	app.Get(webpath.NewMeetup, server.requireUser, server.handleCreateGet)
	app.Post(webpath.NewMeetup, server.requireUser, server.handleCreatePost)
	app.Get(webpath.Meetup, server.handleDetail)
	app.Get(webpath.EditMeetup, server.requireUser, server.handleEditGet)
	app.Post(webpath.EditMeetup, server.requireUser, server.handleEditPost)
	app.Post(webpath.RSVPMeetup, server.requireUser, server.handleRSVP)
	app.Post(webpath.DeleteMeetup, server.requireUser, server.handleDelete)
	server.app = app
	return &server, nil
}

func (s *Server) Serve() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.log.WithField("addr", addr).Info("listening with tls")
		return s.app.ListenTLS(addr, s.cfg.CertFile, s.cfg.KeyFile)
	}
	s.log.WithField("addr", addr).Info("listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// render fills the per-request parts of d and renders view in the main layout.
func (s *Server) render(c *fiber.Ctx, view string, d data) error {
	st := state(c)
	return c.Render(view, d.WithUser(st.user()).WithFlash(popFlash(c)), "layouts/main")
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		setFlash(c, flashError, "Please sign in to continue")
		return c.Redirect(webpath.Login)
	}
	code := fiber.StatusInternalServerError
	msg := "Something went wrong"
	var fe *fiber.Error
	var ae *apiclient.APIError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case errors.As(err, &ae):
		code = ae.Status
		msg = ae.Message
		if code == 0 {
			code = fiber.StatusBadGateway
		}
	}
	entry := s.log.WithError(err).WithField("status", code)
	if code >= fiber.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.Status(code)
	rerr := s.render(c, "error", newData("Error").
		With("Status", code).
		With("Message", msg))
	if rerr != nil {
		s.log.WithError(rerr).Error("unable to render error page")
		return c.Status(code).SendString(msg)
	}
	return nil
}

func formatDate(d domain.DateTime) string {
	if d.IsZero() {
		return ""
	}
	return d.Local().Format("Monday, January 2, 2006 at 03:04 PM")
}

func inputDate(d domain.DateTime) string {
	if d.IsZero() {
		return ""
	}
	return d.Local().Format(dateInputLayout)
}
