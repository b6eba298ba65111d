// File: services/booking_form.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pickle-web/models"
)

// Messages shown by the booking form.
const (
	MsgLoginToBook      = "You must be logged in to book a court."
	MsgBookingFailed    = "Failed to create booking. The time slot might already be booked."
	MsgBookingCreated   = "Booking created successfully! Check your bookings for details."
	MaxBookingDaysAhead = 30
)

// ErrNotAuthenticated is returned when an action needs a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// PlayerCounts are the party sizes a court can be booked for.
var PlayerCounts = []int{2, 4}

// FieldError is one failed form rule, ready for display.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors is returned by Submit when the form was not sent.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return "invalid booking: " + strings.Join(msgs, "; ")
}

// ------------------ form state ------------------

// BookingForm is the state of the booking form on the court page.
type BookingForm struct {
	Date            string           `validate:"required,datetime=2006-01-02"`
	StartTime       models.ClockTime `validate:"gte=0"`
	EndTime         models.ClockTime `validate:"gtfield=StartTime"`
	NumberOfPlayers int              `validate:"oneof=2 4"`
	PlayerEmails    []string         `validate:"dive,omitempty,email"`
}

var validate = validator.New()

// NewBookingForm returns the form defaults: today, 10:00 to 11:00, two players
// and one empty invite.
func NewBookingForm(today time.Time) BookingForm {
	return BookingForm{
		Date:            today.Format(models.DateLayout),
		StartTime:       models.At(10),
		EndTime:         models.At(11),
		NumberOfPlayers: 2,
		PlayerEmails:    []string{""},
	}
}

// IsPlayerCount reports whether n is one of PlayerCounts.
func IsPlayerCount(n int) bool {
	for _, c := range PlayerCounts {
		if c == n {
			return true
		}
	}
	return false
}

// SetPlayers changes the party size and resizes the invite list to n-1
// entries, keeping what was already typed. Sizes outside PlayerCounts are
// ignored.
func (f *BookingForm) SetPlayers(n int) {
	if !IsPlayerCount(n) {
		return
	}
	f.NumberOfPlayers = n
	want := n - 1
	emails := make([]string, want)
	copy(emails, f.PlayerEmails)
	f.PlayerEmails = emails
}

// InviteEmails returns the non-blank invites.
func (f BookingForm) InviteEmails() []string {
	out := make([]string, 0, len(f.PlayerEmails))
	for _, e := range f.PlayerEmails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the form against today's date. Blank invites are ignored.
func (f BookingForm) Validate(today time.Time) ValidationErrors {
	var errs ValidationErrors

	checked := f
	checked.PlayerEmails = f.InviteEmails()
	if err := validate.Struct(checked); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ValidationErrors{{Field: "form", Message: err.Error()}}
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}

	if date, err := models.ParseDate(f.Date); err == nil {
		first := dayOf(today)
		last := first.AddDate(0, 0, MaxBookingDaysAhead)
		if date.Before(first) || date.After(last) {
			errs = append(errs, FieldError{
				Field:   "Date",
				Message: fmt.Sprintf("Date must be within the next %d days.", MaxBookingDaysAhead),
			})
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Date":
		return "Please choose a valid date."
	case "EndTime":
		return "End time must be after start time."
	case "NumberOfPlayers":
		return "Number of players must be 2 or 4."
	}
	if strings.HasPrefix(fe.Field(), "PlayerEmails") {
		return fmt.Sprintf("%q is not a valid email address.", fe.Value())
	}
	return fe.Field() + " is invalid"
}

// Request converts the form into the API payload.
func (f BookingForm) Request(courtID string) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		CourtID:         courtID,
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		NumberOfPlayers: f.NumberOfPlayers,
		PlayerEmails:    f.InviteEmails(),
	}
}

// Submit sends the form. Nothing reaches the API unless the user is signed
// in and the form validates. Slot conflicts are left to the backend.
func (f BookingForm) Submit(ctx context.Context, api APIServiceInterface, auth AuthState, courtID string, today time.Time) (models.Booking, error) {
	if !auth.IsAuthenticated {
		return models.Booking{}, ErrNotAuthenticated
	}
	if errs := f.Validate(today); len(errs) > 0 {
		return models.Booking{}, errs
	}
	booking, err := api.CreateBooking(ctx, f.Request(courtID))
	if err != nil {
		return models.Booking{}, fmt.Errorf("create booking for court %s: %w", courtID, err)
	}
	return booking, nil
}

// ------------------ select options ------------------

// StartTimeOptions are the whole hours a booking may start at.
func StartTimeOptions() []models.ClockTime {
	return hourRange(FirstSlotHour, LastSlotHour)
}

// EndTimeOptions are the whole hours a booking may end at.
func EndTimeOptions() []models.ClockTime {
	return hourRange(FirstSlotHour+1, LastSlotHour+1)
}

func hourRange(from, to int) []models.ClockTime {
	out := make([]models.ClockTime, 0, to-from+1)
	for h := from; h <= to; h++ {
		out = append(out, models.At(h))
	}
	return out
}

// dayOf truncates t to its calendar day as midnight UTC, matching ParseDate.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
