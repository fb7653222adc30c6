package domain

import (
	"strconv"
	"strings"

	"github.com/goserg/meetups/internal/normalize"
)

type RSVPStatus string

const (
	StatusConfirmed  RSVPStatus = "CONFIRMED"
	StatusWaitlisted RSVPStatus = "WAITLISTED"
)

type Meetup struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Date           DateTime   `json:"date"`
	Location       string     `json:"location"`
	Capacity       int        `json:"capacity"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	CreatedByName  string     `json:"createdByName"`
	CreatedByID    int64      `json:"createdById"`
	CreatedAt      DateTime   `json:"createdAt"`
	UpdatedAt      *DateTime  `json:"updatedAt,omitempty"`
	ConfirmedCount int        `json:"confirmedCount"`
	WaitlistCount  int        `json:"waitlistCount"`
	IsUserRSVPed   bool       `json:"isUserRSVPed"`
	UserRSVPStatus RSVPStatus `json:"userRSVPStatus,omitempty"`
}

// MeetupInput is the writable part of a meetup.
type MeetupInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        DateTime `json:"date"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

type RSVP struct {
	ID       int64      `json:"id"`
	User     User       `json:"user"`
	Meetup   Meetup     `json:"meetup"`
	Status   RSVPStatus `json:"status"`
	RSVPedAt DateTime   `json:"rsvpedAt"`
}

type RSVPResult struct {
	Message string     `json:"message"`
	Status  RSVPStatus `json:"status,omitempty"`
}

// Image is a file picked in a meetup form.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

func (m Meetup) SpotsAvailable() int {
	spots := m.Capacity - m.ConfirmedCount
	if spots < 0 {
		return 0
	}
	return spots
}

func (m Meetup) IsFull() bool {
	return m.ConfirmedCount >= m.Capacity
}

// Input returns the writable fields of m.
func (m Meetup) Input() MeetupInput {
	in := MeetupInput{
		Title:       m.Title,
		Description: m.Description,
		Date:        m.Date,
		Location:    m.Location,
		Capacity:    m.Capacity,
	}
	if m.ImageURL != "" {
		url := m.ImageURL
		in.ImageURL = &url
	}
	return in
}

type Badge struct {
	Text string
	Kind string
}

const (
	BadgeDefault     = "default"
	BadgeSecondary   = "secondary"
	BadgeWarning     = "warning"
	BadgeDestructive = "destructive"
)

// PublicBadge is the availability badge shown on the public listing.
func PublicBadge(m Meetup) Badge {
	spots := m.SpotsAvailable()
	switch {
	case spots == 0:
		return Badge{Text: "Full", Kind: BadgeDestructive}
	case spots <= 5:
		return Badge{Text: strconv.Itoa(spots) + " spots left", Kind: BadgeWarning}
	default:
		return Badge{Text: strconv.Itoa(spots) + " spots available", Kind: BadgeSecondary}
	}
}

// DashboardBadge puts the signed in user's own RSVP state first.
func DashboardBadge(m Meetup) Badge {
	if m.IsUserRSVPed {
		if m.UserRSVPStatus == StatusConfirmed {
			return Badge{Text: "You're confirmed", Kind: BadgeSecondary}
		}
		return Badge{Text: "You're on waitlist", Kind: BadgeWarning}
	}
	if m.IsFull() {
		return Badge{Text: "Fully booked", Kind: BadgeDestructive}
	}
	return Badge{Text: strconv.Itoa(m.Capacity-m.ConfirmedCount) + " spots left", Kind: BadgeDefault}
}

// FilterMeetups returns the meetups whose title, description or location
// contains query, ignoring case. A blank query matches everything.
// The input slice is never modified.
func FilterMeetups(meetups []Meetup, query string) []Meetup {
	if strings.TrimSpace(query) == "" {
		filtered := make([]Meetup, len(meetups))
		copy(filtered, meetups)
		return filtered
	}
	q := normalize.Fold(query)
	filtered := make([]Meetup, 0, len(meetups))
	for _, m := range meetups {
		if strings.Contains(normalize.Fold(m.Title), q) ||
			strings.Contains(normalize.Fold(m.Description), q) ||
			strings.Contains(normalize.Fold(m.Location), q) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// CanEdit reports whether user may edit or delete m. A nil user is a guest.
func CanEdit(user *User, m Meetup) bool {
	if user == nil || user.ID == 0 {
		return false
	}
	return user.ID == m.CreatedByID || user.Role == RoleAdmin
}
