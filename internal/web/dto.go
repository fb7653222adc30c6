package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/goserg/meetups/internal/domain"
	"github.com/goserg/meetups/internal/service"
)

// dateInputLayout is what an <input type="datetime-local"> submits.
const dateInputLayout = "2006-01-02T15:04"

// meetupForm keeps the raw submitted values so a rejected form can be shown
// again exactly as typed.
type meetupForm struct {
	Title       string
	Description string
	Date        string
	Location    string
	Capacity    string
	ImageURL    string
	RemoveImage bool
}

func formFromMeetup(m domain.Meetup) meetupForm {
	return meetupForm{
		Title:       m.Title,
		Description: m.Description,
		Date:        inputDate(m.Date),
		Location:    m.Location,
		Capacity:    strconv.Itoa(m.Capacity),
		ImageURL:    m.ImageURL,
	}
}

func parseMeetupForm(ctx *fiber.Ctx) (meetupForm, *domain.Image, error) {
	form := meetupForm{
		Title:       strings.TrimSpace(ctx.FormValue("title")),
		Description: strings.TrimSpace(ctx.FormValue("description")),
		Date:        strings.TrimSpace(ctx.FormValue("date")),
		Location:    strings.TrimSpace(ctx.FormValue("location")),
		Capacity:    strings.TrimSpace(ctx.FormValue("capacity")),
		ImageURL:    ctx.FormValue("current-image"),
		RemoveImage: ctx.FormValue("remove-image") == "on",
	}
	fh, err := ctx.FormFile("image")
	if err != nil || fh == nil || (fh.Filename == "" && fh.Size == 0) {
		return form, nil, nil
	}
	img, err := readImage(fh)
	if err != nil {
		return form, nil, err
	}
	return form, img, nil
}

// readImage reads at most one byte over the size limit so the validator can
// reject oversized files without buffering them whole.
func readImage(fh *multipart.FileHeader) (*domain.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded image: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, service.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded image: %w", err)
	}
	return &domain.Image{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        b,
	}, nil
}

// convertToDomain never fails: values that do not parse become zero and are
// reported by service.ValidateMeetup.
func (f meetupForm) convertToDomain() domain.MeetupInput {
	in := domain.MeetupInput{
		Title:       f.Title,
		Description: f.Description,
		Location:    f.Location,
	}
	if f.Date != "" {
		if d, err := domain.ParseDateTime(f.Date); err == nil {
			in.Date = d
		}
	}
	if c, err := strconv.Atoi(f.Capacity); err == nil {
		in.Capacity = c
	}
	if f.ImageURL != "" {
		imageURL := f.ImageURL
		in.ImageURL = &imageURL
	}
	return in
}
