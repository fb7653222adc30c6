package service

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/meetups/internal/domain"
)

const (
	MinTitleLen       = 3
	MinDescriptionLen = 10
	MinLocationLen    = 3
	MinCapacity       = 1
	MaxCapacity       = 1000
	MaxImageSize      = 5 << 20
)

var imageTypes = mapset.NewSet[string](
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
)

// FieldError is a single rejected form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ErrInvalid matches any validation failure.
var ErrInvalid = errors.New("invalid meetup")

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

func fieldErr(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// ValidateMeetup checks in against the form rules. now is the reference for
// the future date rule. All violations are returned joined.
func ValidateMeetup(in domain.MeetupInput, now time.Time) error {
	var err error
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) < MinTitleLen {
		err = errors.Join(err, fieldErr("title", "Title must be at least "+strconv.Itoa(MinTitleLen)+" characters"))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < MinDescriptionLen {
		err = errors.Join(err, fieldErr("description", "Description must be at least "+strconv.Itoa(MinDescriptionLen)+" characters"))
	}
	switch {
	case in.Date.IsZero():
		err = errors.Join(err, fieldErr("date", "Date is required"))
	case !in.Date.After(now):
		err = errors.Join(err, fieldErr("date", "Date must be in the future"))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Location)) < MinLocationLen {
		err = errors.Join(err, fieldErr("location", "Location is required"))
	}
	if in.Capacity < MinCapacity || in.Capacity > MaxCapacity {
		err = errors.Join(err, fieldErr("capacity", "Capacity must be between "+strconv.Itoa(MinCapacity)+" and "+strconv.Itoa(MaxCapacity)))
	}
	return err
}

// ValidateImage checks the type and size of a picked image file.
func ValidateImage(img domain.Image) error {
	if !imageTypes.Contains(strings.ToLower(img.ContentType)) {
		return fieldErr("image", "Please select a valid image file (jpg, png, gif, or webp)")
	}
	if len(img.Data) == 0 {
		return fieldErr("image", "Image file is empty")
	}
	if len(img.Data) > MaxImageSize {
		return fieldErr("image", "File size must be less than 5MB")
	}
	return nil
}

// FieldErrors flattens a validation error into field -> message.
func FieldErrors(err error) map[string]string {
	res := make(map[string]string)
	collectFieldErrors(err, res)
	return res
}

func collectFieldErrors(err error, res map[string]string) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectFieldErrors(e, res)
		}
		return
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		if _, seen := res[fe.Field]; !seen {
			res[fe.Field] = fe.Message
		}
	}
}
