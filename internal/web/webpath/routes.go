package webpath

import "strconv"

const (
	Home      = "/"
	Login     = "/login"
	Register  = "/register"
	Logout    = "/logout"
	Dashboard = "/dashboard"

	Meetups      = "/meetups"
	NewMeetup    = Meetups + "/create"
	Meetup       = Meetups + "/:id"
	EditMeetup   = Meetup + "/edit"
	RSVPMeetup   = Meetup + "/rsvp"
	DeleteMeetup = Meetup + "/delete"
)

func MeetupURL(id int64) string {
	return Meetups + "/" + strconv.FormatInt(id, 10)
}

func EditMeetupURL(id int64) string {
	return MeetupURL(id) + "/edit"
}

func RSVPMeetupURL(id int64) string {
	return MeetupURL(id) + "/rsvp"
}

func DeleteMeetupURL(id int64) string {
	return MeetupURL(id) + "/delete"
}

func Path() map[string]string {
	return map[string]string{
		"Home":      Home,
		"Login":     Login,
		"Register":  Register,
		"Logout":    Logout,
		"Dashboard": Dashboard,
		"NewMeetup": NewMeetup,
	}
}
