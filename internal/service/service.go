package service

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/meetups/internal/domain"
)

// API is the part of the remote meetup API the pages use.
type API interface {
	ListMeetups() ([]domain.Meetup, error)
	GetMeetup(id int64) (domain.Meetup, error)
	CreateMeetup(in domain.MeetupInput) (domain.Meetup, error)
	UpdateMeetup(id int64, in domain.MeetupInput) (domain.Meetup, error)
	DeleteMeetup(id int64) error
	RSVP(id int64) (domain.RSVPResult, error)
	CancelRSVP(id int64) (domain.RSVPResult, error)
	ListAttendees(id int64) ([]domain.RSVP, error)
	UploadImage(img domain.Image) (string, error)
	SetMeetupImage(id int64, imageURL string) (domain.Meetup, error)
}

type MeetupService struct {
	log *logrus.Entry
	now func() time.Time
}

func New(log *logrus.Logger) *MeetupService {
	return &MeetupService{
		log: log.WithField("from", "meetup-service"),
		now: time.Now,
	}
}

// Outcome of a create or update. The meetup is saved even when ImageErr is
// set: the image step runs after the meetup write and is not rolled back.
type Outcome struct {
	Meetup   domain.Meetup
	ImageErr error
}

// Create validates in, creates the meetup and then attaches img when given.
// Nothing is sent to the API when validation fails.
func (s *MeetupService) Create(api API, in domain.MeetupInput, img *domain.Image) (Outcome, error) {
	if err := s.validate(in, img); err != nil {
		return Outcome{}, err
	}
	in.ImageURL = nil
	m, err := api.CreateMeetup(in)
	if err != nil {
		return Outcome{}, err
	}
	s.log.WithField("meetup_id", m.ID).Info("meetup created")
	return s.attachImage(api, m, img), nil
}

// Update works like Create on an existing meetup. removeImage drops the
// current image when no new one is given.
func (s *MeetupService) Update(api API, id int64, in domain.MeetupInput, img *domain.Image, removeImage bool) (Outcome, error) {
	if err := s.validate(in, img); err != nil {
		return Outcome{}, err
	}
	if removeImage && img == nil {
		empty := ""
		in.ImageURL = &empty
	}
	m, err := api.UpdateMeetup(id, in)
	if err != nil {
		return Outcome{}, err
	}
	s.log.WithField("meetup_id", m.ID).Info("meetup updated")
	return s.attachImage(api, m, img), nil
}

func (s *MeetupService) validate(in domain.MeetupInput, img *domain.Image) error {
	err := ValidateMeetup(in, s.now())
	if img != nil {
		err = errors.Join(err, ValidateImage(*img))
	}
	return err
}

func (s *MeetupService) attachImage(api API, m domain.Meetup, img *domain.Image) Outcome {
	out := Outcome{Meetup: m}
	if img == nil {
		return out
	}
	log := s.log.WithField("meetup_id", m.ID)
	url, err := api.UploadImage(*img)
	if err != nil {
		log.WithError(err).Warn("image upload failed, meetup kept")
		out.ImageErr = err
		return out
	}
	linked, err := api.SetMeetupImage(m.ID, url)
	if err != nil {
		log.WithError(err).Warn("image link failed, meetup kept")
		out.ImageErr = err
		return out
	}
	out.Meetup = linked
	return out
}

// Search lists meetups matching query.
func (s *MeetupService) Search(api API, query string) ([]domain.Meetup, error) {
	meetups, err := api.ListMeetups()
	if err != nil {
		return nil, err
	}
	return domain.FilterMeetups(meetups, query), nil
}

type Detail struct {
	Meetup    domain.Meetup
	Attendees []domain.RSVP
}

func (d Detail) Confirmed() []domain.RSVP {
	return d.byStatus(domain.StatusConfirmed)
}

func (d Detail) Waitlisted() []domain.RSVP {
	return d.byStatus(domain.StatusWaitlisted)
}

func (d Detail) byStatus(status domain.RSVPStatus) []domain.RSVP {
	var res []domain.RSVP
	for _, a := range d.Attendees {
		if a.Status == status {
			res = append(res, a)
		}
	}
	return res
}

// Detail loads a meetup with its attendees. A failed attendee request only
// leaves the list empty.
func (s *MeetupService) Detail(api API, id int64) (Detail, error) {
	m, err := api.GetMeetup(id)
	if err != nil {
		return Detail{}, err
	}
	attendees, err := api.ListAttendees(id)
	if err != nil {
		s.log.WithError(err).WithField("meetup_id", id).Warn("unable to load attendees")
		attendees = nil
	}
	return Detail{Meetup: m, Attendees: attendees}, nil
}

// ToggleRSVP cancels the user's RSVP if there is one, otherwise creates it.
func (s *MeetupService) ToggleRSVP(api API, m domain.Meetup) (domain.RSVPResult, error) {
	if m.IsUserRSVPed {
		return api.CancelRSVP(m.ID)
	}
	return api.RSVP(m.ID)
}

func (s *MeetupService) Delete(api API, id int64) error {
	if err := api.DeleteMeetup(id); err != nil {
		return err
	}
	s.log.WithField("meetup_id", id).Info("meetup deleted")
	return nil
}
