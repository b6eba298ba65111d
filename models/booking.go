// File: models/booking.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in URLs.
const DateLayout = "2006-01-02"

// BookingStatus is assigned by the backend.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ---------------------- clock time ----------------------

// ClockTime is a time of day in minutes after midnight.
type ClockTime int

// At returns the clock time for a whole hour.
func At(hour int) ClockTime {
	return ClockTime(hour * 60)
}

// ParseClockTime accepts "H:MM", "HH:MM" and "HH:MM:SS". 24:00 is allowed
// as an end of day.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: time %q", ErrMalformed, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: hour in %q", ErrMalformed, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrMalformed, s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("%w: time %q past midnight", ErrMalformed, s)
	}
	return ClockTime(h*60 + m), nil
}

// Hour returns the hour part.
func (t ClockTime) Hour() int {
	return int(t) / 60
}

// Minute returns the minute part.
func (t ClockTime) Minute() int {
	return int(t) % 60
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Label renders the hour the way the booking pages show it, e.g. "8:00 AM".
func (t ClockTime) Label() string {
	suffix := "AM"
	if t.Hour() >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", t.Hour(), t.Minute(), suffix)
}

// MarshalText keeps ClockTime readable in JSON bodies.
func (t ClockTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ---------------------- booking model ----------------------

// Booking reserves one slot at a court for [StartTime, EndTime) on Date.
type Booking struct {
	ID              string
	CourtID         string
	UserID          string
	Date            time.Time // midnight UTC of the calendar day
	StartTime       ClockTime
	EndTime         ClockTime
	NumberOfPlayers int
	PlayerEmails    []string
	Status          BookingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DateString returns Date in DateLayout.
func (b Booking) DateString() string {
	return b.Date.Format(DateLayout)
}

// StartAt places the start of the booking on the calendar in loc.
func (b Booking) StartAt(loc *time.Location) time.Time {
	return onDate(b.Date, b.StartTime, loc)
}

// EndAt places the end of the booking on the calendar in loc.
func (b Booking) EndAt(loc *time.Location) time.Time {
	return onDate(b.Date, b.EndTime, loc)
}

// Covers reports whether t falls inside [StartTime, EndTime).
func (b Booking) Covers(t ClockTime) bool {
	return b.StartTime <= t && t < b.EndTime
}

// IsCancelled reports whether the booking was cancelled.
func (b Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

func onDate(day time.Time, t ClockTime, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformed, s)
	}
	return d, nil
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	CourtID         string    `json:"courtId"`
	Date            string    `json:"date"`
	StartTime       ClockTime `json:"startTime"`
	EndTime         ClockTime `json:"endTime"`
	NumberOfPlayers int       `json:"numberOfPlayers"`
	PlayerEmails    []string  `json:"playerEmails"`
}

// UpdateBookingRequest is the body of PUT /api/bookings/{id}. Nil fields are
// left unchanged by the backend.
type UpdateBookingRequest struct {
	StartTime       *ClockTime `json:"startTime,omitempty"`
	EndTime         *ClockTime `json:"endTime,omitempty"`
	NumberOfPlayers *int       `json:"numberOfPlayers,omitempty"`
	PlayerEmails    []string   `json:"playerEmails,omitempty"`
}

// CancelBookingResponse is returned by DELETE /api/bookings/{id}.
type CancelBookingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BookingFilter narrows GET /api/bookings.
type BookingFilter struct {
	UserID  string
	CourtID string
	Date    string
}
