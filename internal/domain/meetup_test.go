package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeetups() []Meetup {
	return []Meetup{
		{ID: 1, Title: "Go Night", Description: "Talks about generics", Location: "Berlin"},
		{ID: 2, Title: "Rust meetup", Description: "Borrow checker therapy", Location: "Munich"},
		{ID: 3, Title: "Board games", Description: "Bring your own GO board", Location: "Hamburg"},
	}
}

func ids(meetups []Meetup) []int64 {
	res := make([]int64, 0, len(meetups))
	for _, m := range meetups {
		res = append(res, m.ID)
	}
	return res
}

func TestFilterMeetups(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "empty query", query: "", want: []int64{1, 2, 3}},
		{name: "blank query", query: "   ", want: []int64{1, 2, 3}},
		{name: "title ignores case", query: "go", want: []int64{1, 3}},
		{name: "upper case query", query: "RUST", want: []int64{2}},
		{name: "description", query: "checker", want: []int64{2}},
		{name: "location", query: "hamBURG", want: []int64{3}},
		{name: "leading space kept", query: " night", want: []int64{1}},
		{name: "trailing space kept", query: "munich ", want: []int64{}},
		{name: "space inside query", query: "go board", want: []int64{3}},
		{name: "no match", query: "python", want: []int64{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(FilterMeetups(testMeetups(), tt.query)))
		})
	}
}

func TestFilterMeetupsIsPure(t *testing.T) {
	list := testMeetups()
	before := testMeetups()

	first := FilterMeetups(list, "go")
	second := FilterMeetups(list, "go")

	assert.Equal(t, first, second)
	assert.Equal(t, before, list)

	all := FilterMeetups(list, "")
	all[0].Title = "changed"
	assert.Equal(t, "Go Night", list[0].Title)
}

func TestFilterMeetupsUnicode(t *testing.T) {
	list := []Meetup{{ID: 1, Title: "Ümlaut fest", Location: "ÖREBRO"}}
	assert.Len(t, FilterMeetups(list, "örebro"), 1)
	assert.Len(t, FilterMeetups(list, "ümLAUT"), 1)
}

func TestSpotsAvailable(t *testing.T) {
	assert.Equal(t, 3, Meetup{Capacity: 10, ConfirmedCount: 7}.SpotsAvailable())
	assert.Equal(t, 0, Meetup{Capacity: 10, ConfirmedCount: 10}.SpotsAvailable())
	assert.Equal(t, 0, Meetup{Capacity: 5, ConfirmedCount: 8}.SpotsAvailable())
}

func TestPublicBadge(t *testing.T) {
	tests := []struct {
		name   string
		meetup Meetup
		want   Badge
	}{
		{name: "full", meetup: Meetup{Capacity: 10, ConfirmedCount: 10}, want: Badge{Text: "Full", Kind: BadgeDestructive}},
		{name: "few left", meetup: Meetup{Capacity: 10, ConfirmedCount: 5}, want: Badge{Text: "5 spots left", Kind: BadgeWarning}},
		{name: "plenty", meetup: Meetup{Capacity: 10, ConfirmedCount: 4}, want: Badge{Text: "6 spots available", Kind: BadgeSecondary}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PublicBadge(tt.meetup))
		})
	}
}

func TestDashboardBadge(t *testing.T) {
	tests := []struct {
		name   string
		meetup Meetup
		want   string
	}{
		{name: "confirmed", meetup: Meetup{IsUserRSVPed: true, UserRSVPStatus: StatusConfirmed}, want: "You're confirmed"},
		{name: "waitlisted", meetup: Meetup{IsUserRSVPed: true, UserRSVPStatus: StatusWaitlisted}, want: "You're on waitlist"},
		{name: "fully booked", meetup: Meetup{Capacity: 3, ConfirmedCount: 3}, want: "Fully booked"},
		{name: "spots left", meetup: Meetup{Capacity: 30, ConfirmedCount: 3}, want: "27 spots left"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DashboardBadge(tt.meetup).Text)
		})
	}
}

func TestCanEdit(t *testing.T) {
	m := Meetup{CreatedByID: 7}
	assert.False(t, CanEdit(nil, m))
	assert.False(t, CanEdit(&User{}, m))
	assert.True(t, CanEdit(&User{ID: 7, Role: RoleUser}, m))
	assert.False(t, CanEdit(&User{ID: 8, Role: RoleUser}, m))
	assert.True(t, CanEdit(&User{ID: 8, Role: RoleAdmin}, m))
}

func TestMeetupInput(t *testing.T) {
	m := Meetup{Title: "t", ImageURL: "http://img/1.png"}
	in := m.Input()
	require.NotNil(t, in.ImageURL)
	assert.Equal(t, "http://img/1.png", *in.ImageURL)
	assert.Nil(t, Meetup{}.Input().ImageURL)
}

func TestDateTimeJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "zone-less", raw: `"2030-05-01T18:30:00"`, want: time.Date(2030, 5, 1, 18, 30, 0, 0, time.Local)},
		{name: "minutes only", raw: `"2030-05-01T18:30"`, want: time.Date(2030, 5, 1, 18, 30, 0, 0, time.Local)},
		{name: "fraction", raw: `"2030-05-01T18:30:00.123"`, want: time.Date(2030, 5, 1, 18, 30, 0, 123000000, time.Local)},
		{name: "rfc3339", raw: `"2030-05-01T18:30:00Z"`, want: time.Date(2030, 5, 1, 18, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var d DateTime
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &d))
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}

	var d DateTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))

	out, err := json.Marshal(NewDateTime(time.Date(2030, 5, 1, 18, 30, 0, 0, time.Local)))
	require.NoError(t, err)
	assert.Equal(t, `"2030-05-01T18:30:00"`, string(out))
}
