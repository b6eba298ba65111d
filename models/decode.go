// File: models/decode.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformed marks a backend record that cannot be used.
var ErrMalformed = errors.New("malformed record")

// Decoded is the outcome of decoding a list payload: the records that passed
// validation and one error per record that did not.
type Decoded[T any] struct {
	Items    []T
	Rejected []error
}

// ---------------------- field access ----------------------

// fields is a decoded JSON object whose keys may be camelCase or snake_case.
type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformed)
	}
	return f, nil
}

// raw returns the first non-null value among the given keys.
func (f fields) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) (string, error) {
	v, ok := f.raw(keys...)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformed, keys[0])
	}
	return s, nil
}

func (f fields) requiredStr(keys ...string) (string, error) {
	s, err := f.str(keys...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, keys[0])
	}
	return s, nil
}

func (f fields) number(keys ...string) (float64, error) {
	v, ok := f.raw(keys...)
	if !ok {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", ErrMalformed, keys[0])
	}
	return n, nil
}

func (f fields) stringList(keys ...string) ([]string, error) {
	v, ok := f.raw(keys...)
	if !ok {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string list", ErrMalformed, keys[0])
	}
	return out, nil
}

// timestamp is lenient: audit fields never make a record unusable.
func (f fields) timestamp(keys ...string) time.Time {
	s, err := f.str(keys...)
	if err != nil || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ---------------------- records ----------------------

// DecodeBooking validates one booking object.
func DecodeBooking(data []byte) (Booking, error) {
	f, err := decodeFields(data)
	if err != nil {
		return Booking{}, err
	}

	var b Booking
	if b.ID, err = f.requiredStr("id"); err != nil {
		return Booking{}, err
	}
	if b.CourtID, err = f.requiredStr("courtId", "court_id"); err != nil {
		return Booking{}, err
	}
	if b.UserID, err = f.str("userId", "user_id"); err != nil {
		return Booking{}, err
	}

	date, err := f.requiredStr("date")
	if err != nil {
		return Booking{}, err
	}
	if b.Date, err = ParseDate(dayPart(date)); err != nil {
		return Booking{}, err
	}

	start, err := f.requiredStr("startTime", "start_time")
	if err != nil {
		return Booking{}, err
	}
	if b.StartTime, err = ParseClockTime(start); err != nil {
		return Booking{}, err
	}
	end, err := f.requiredStr("endTime", "end_time")
	if err != nil {
		return Booking{}, err
	}
	if b.EndTime, err = ParseClockTime(end); err != nil {
		return Booking{}, err
	}
	if b.EndTime <= b.StartTime {
		return Booking{}, fmt.Errorf("%w: booking %s ends before it starts", ErrMalformed, b.ID)
	}

	players, err := f.number("numberOfPlayers", "number_of_players")
	if err != nil {
		return Booking{}, err
	}
	b.NumberOfPlayers = int(players)
	if b.PlayerEmails, err = f.stringList("playerEmails", "player_emails"); err != nil {
		return Booking{}, err
	}

	status, err := f.requiredStr("status")
	if err != nil {
		return Booking{}, err
	}
	b.Status = BookingStatus(strings.ToUpper(status))
	if !b.Status.Valid() {
		return Booking{}, fmt.Errorf("%w: unknown status %q", ErrMalformed, status)
	}

	b.CreatedAt = f.timestamp("createdAt", "created_at")
	b.UpdatedAt = f.timestamp("updatedAt", "updated_at")
	return b, nil
}

// dayPart tolerates full timestamps in the date field.
func dayPart(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

// DecodeCourt validates one court object.
func DecodeCourt(data []byte) (Court, error) {
	f, err := decodeFields(data)
	if err != nil {
		return Court{}, err
	}

	var c Court
	if c.ID, err = f.requiredStr("id"); err != nil {
		return Court{}, err
	}
	if c.Name, err = f.requiredStr("name"); err != nil {
		return Court{}, err
	}
	if c.Address, err = f.str("address"); err != nil {
		return Court{}, err
	}
	if c.Latitude, err = f.number("latitude", "lat"); err != nil {
		return Court{}, err
	}
	if c.Longitude, err = f.number("longitude", "lng"); err != nil {
		return Court{}, err
	}
	n, err := f.number("numberOfCourts", "number_of_courts")
	if err != nil {
		return Court{}, err
	}
	if n < 0 {
		return Court{}, fmt.Errorf("%w: court %s has negative court count", ErrMalformed, c.ID)
	}
	c.NumberOfCourts = int(n)
	if c.Amenities, err = f.stringList("amenities"); err != nil {
		return Court{}, err
	}
	if c.ImageURL, err = f.str("imageUrl", "image_url"); err != nil {
		return Court{}, err
	}
	return c, nil
}

// DecodeUser validates the current-user payload.
func DecodeUser(data []byte) (User, error) {
	f, err := decodeFields(data)
	if err != nil {
		return User{}, err
	}

	var u User
	if u.ID, err = f.requiredStr("id"); err != nil {
		return User{}, err
	}
	if u.Email, err = f.str("email"); err != nil {
		return User{}, err
	}
	if u.Name, err = f.str("name"); err != nil {
		return User{}, err
	}
	if u.Picture, err = f.str("picture"); err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = f.str("createdAt", "created_at"); err != nil {
		return User{}, err
	}
	return u, nil
}

// ---------------------- envelopes ----------------------

// decodeList reads {key: [...]} and decodes each element independently, so
// one bad record never hides the rest.
func decodeList[T any](data []byte, key string, decode func([]byte) (T, error)) (Decoded[T], error) {
	f, err := decodeFields(data)
	if err != nil {
		return Decoded[T]{}, err
	}

	var elems []json.RawMessage
	if v, ok := f.raw(key); ok {
		if err := json.Unmarshal(v, &elems); err != nil {
			return Decoded[T]{}, fmt.Errorf("%w: %s is not a list", ErrMalformed, key)
		}
	}

	out := Decoded[T]{Items: make([]T, 0, len(elems))}
	for i, e := range elems {
		item, err := decode(e)
		if err != nil {
			out.Rejected = append(out.Rejected, fmt.Errorf("%s[%d]: %w", key, i, err))
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// DecodeBookingList decodes a {bookings: [...]} response.
func DecodeBookingList(data []byte) (Decoded[Booking], error) {
	return decodeList(data, "bookings", DecodeBooking)
}

// DecodeCourtList decodes a {courts: [...]} response.
func DecodeCourtList(data []byte) (Decoded[Court], error) {
	return decodeList(data, "courts", DecodeCourt)
}

// DecodeCancelResponse decodes the body of a cancellation.
func DecodeCancelResponse(data []byte) (CancelBookingResponse, error) {
	var r CancelBookingResponse
	if len(strings.TrimSpace(string(data))) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return r, nil
}
