package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/goserg/meetups/internal/config"
	"github.com/goserg/meetups/internal/domain"
)

// Credentials is where the bearer token of the current user lives.
// Clear is called once the API rejects the token.
type Credentials interface {
	Token() string
	Clear()
}

// RequestIDer is optionally implemented by Credentials to forward the id of
// the incoming request.
type RequestIDer interface {
	RequestID() string
}

const HeaderRequestID = "X-Request-ID"

// Client is a thin wrapper over the meetup REST API. It never retries:
// every call is exactly one request.
type Client struct {
	baseURL string
	log     *logrus.Entry
	creds   Credentials
}

func New(cfg config.API, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log.WithField("from", "api-client"),
	}
}

// WithCredentials returns a copy of c that authenticates with creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, v any) (request, error) {
	req := request{method: method, path: path}
	if v == nil {
		return req, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return request{}, err
	}
	req.body = body
	req.contentType = fiber.MIMEApplicationJSON
	return req, nil
}

func (c *Client) do(req request, out any) error {
	log := c.log.WithFields(logrus.Fields{
		"method": req.method,
		"path":   req.path,
	})

	agent := fiber.AcquireAgent()
	agent.Request().Header.SetMethod(req.method)
	agent.Request().SetRequestURI(c.baseURL + req.path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		log.WithError(err).Warn("bad api request")
		return newTransportError(err)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		if rid, ok := c.creds.(RequestIDer); ok && rid.RequestID() != "" {
			agent.Set(HeaderRequestID, rid.RequestID())
			log = log.WithField("request_id", rid.RequestID())
		}
	}
	if req.body != nil {
		agent.ContentType(req.contentType)
		agent.Body(req.body)
	}

	start := time.Now()
	status, body, errs := agent.Bytes()
	log = log.WithFields(logrus.Fields{
		"status":  status,
		"latency": time.Since(start),
	})
	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.WithError(err).Warn("api request failed")
		return newTransportError(err)
	}
	if status == http.StatusUnauthorized {
		log.Warn("api rejected credentials")
		if c.creds != nil {
			c.creds.Clear()
		}
		return newStatusError(status, body)
	}
	if status < 200 || status >= 300 {
		apiErr := newStatusError(status, body)
		log.WithField("message", apiErr.Message).Warn("api error")
		return apiErr
	}
	log.Debug("api request")
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.WithError(err).Warn("bad api response")
		return newTransportError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) Login(req domain.LoginRequest) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	r, err := jsonRequest(fiber.MethodPost, "/api/auth/login", req)
	if err != nil {
		return resp, err
	}
	return resp, c.do(r, &resp)
}

func (c *Client) Register(req domain.RegisterRequest) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	r, err := jsonRequest(fiber.MethodPost, "/api/auth/register", req)
	if err != nil {
		return resp, err
	}
	return resp, c.do(r, &resp)
}

func meetupPath(id int64, suffix ...string) string {
	return "/api/meetups/" + strconv.FormatInt(id, 10) + strings.Join(suffix, "")
}

func (c *Client) ListMeetups() ([]domain.Meetup, error) {
	var meetups []domain.Meetup
	err := c.do(request{method: fiber.MethodGet, path: "/api/meetups"}, &meetups)
	return meetups, err
}

func (c *Client) GetMeetup(id int64) (domain.Meetup, error) {
	var m domain.Meetup
	err := c.do(request{method: fiber.MethodGet, path: meetupPath(id)}, &m)
	return m, err
}

func (c *Client) CreateMeetup(in domain.MeetupInput) (domain.Meetup, error) {
	var m domain.Meetup
	r, err := jsonRequest(fiber.MethodPost, "/api/meetups", in)
	if err != nil {
		return m, err
	}
	return m, c.do(r, &m)
}

func (c *Client) UpdateMeetup(id int64, in domain.MeetupInput) (domain.Meetup, error) {
	var m domain.Meetup
	r, err := jsonRequest(fiber.MethodPut, meetupPath(id), in)
	if err != nil {
		return m, err
	}
	return m, c.do(r, &m)
}

func (c *Client) DeleteMeetup(id int64) error {
	return c.do(request{method: fiber.MethodDelete, path: meetupPath(id)}, nil)
}

func (c *Client) RSVP(id int64) (domain.RSVPResult, error) {
	var res domain.RSVPResult
	err := c.do(request{method: fiber.MethodPost, path: meetupPath(id, "/rsvp")}, &res)
	return res, err
}

func (c *Client) CancelRSVP(id int64) (domain.RSVPResult, error) {
	var res domain.RSVPResult
	err := c.do(request{method: fiber.MethodDelete, path: meetupPath(id, "/rsvp")}, &res)
	return res, err
}

func (c *Client) ListAttendees(id int64) ([]domain.RSVP, error) {
	var rsvps []domain.RSVP
	err := c.do(request{method: fiber.MethodGet, path: meetupPath(id, "/attendees")}, &rsvps)
	return rsvps, err
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage stores raw image bytes and returns the absolute URL of the
// stored image. It does not touch any meetup; see SetMeetupImage.
func (c *Client) UploadImage(img domain.Image) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`form-data; name="file"; filename=%q`, img.Name))
	header.Set(fiber.HeaderContentType, img.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var resp uploadResponse
	err = c.do(request{
		method:      fiber.MethodPost,
		path:        "/api/images/upload",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", newTransportError(errors.New("upload response has no url"))
	}
	return c.ImageURL(resp.URL), nil
}

type setImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// SetMeetupImage links an uploaded image to a meetup.
func (c *Client) SetMeetupImage(id int64, imageURL string) (domain.Meetup, error) {
	var m domain.Meetup
	r, err := jsonRequest(fiber.MethodPut, meetupPath(id, "/image"), setImageRequest{ImageURL: imageURL})
	if err != nil {
		return m, err
	}
	return m, c.do(r, &m)
}

// ImageURL resolves an image reference against the API base URL. Absolute
// references and empty strings are returned as is.
func (c *Client) ImageURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref
}
