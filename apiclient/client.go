// Package apiclient talks to the booking platform REST API.
// File: apiclient/client.go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pickle-web/logger"
	"pickle-web/models"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

// ------------------ request context ------------------

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// WithToken attaches the caller's bearer token to ctx. Calls made with the
// returned context carry an Authorization header.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// WithRequestID forwards the inbound request id to the backend.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// TokenFrom returns the bearer token carried by ctx, if any.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// ------------------ errors ------------------

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.StatusCode)
}

// IsUnauthorized reports whether err means the credential was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ------------------ client ------------------

// Client wraps the REST endpoints for courts, bookings and auth.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// LoginURL is where the browser is sent to start the identity-provider flow.
func (c *Client) LoginURL() string {
	return c.baseURL + "/auth/google/login"
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn.Printf("apiclient: closing body of %s %s: %v", method, path, cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug.Printf("apiclient: %s %s -> %d", method, path, resp.StatusCode)
		return nil, &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: string(data)}
	}
	return data, nil
}

// ------------------ courts ------------------

// GetCourts lists courts matching the search.
func (c *Client) GetCourts(ctx context.Context, search models.CourtSearch) (models.Decoded[models.Court], error) {
	q := url.Values{}
	if search.City != "" {
		q.Set("city", search.City)
	}
	if search.Latitude != nil && search.Longitude != nil {
		q.Set("latitude", strconv.FormatFloat(*search.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(*search.Longitude, 'f', -1, 64))
	}
	if search.RadiusKm > 0 {
		q.Set("radiusKm", strconv.Itoa(search.RadiusKm))
	}

	data, err := c.do(ctx, http.MethodGet, "/api/courts", q, nil)
	if err != nil {
		return models.Decoded[models.Court]{}, err
	}
	return models.DecodeCourtList(data)
}

// GetCourt fetches a single court.
func (c *Client) GetCourt(ctx context.Context, courtID string) (models.Court, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/courts/"+url.PathEscape(courtID), nil, nil)
	if err != nil {
		return models.Court{}, err
	}
	return models.DecodeCourt(data)
}

// ------------------ bookings ------------------

// GetBookings lists bookings matching the filter.
func (c *Client) GetBookings(ctx context.Context, filter models.BookingFilter) (models.Decoded[models.Booking], error) {
	q := url.Values{}
	if filter.UserID != "" {
		q.Set("userId", filter.UserID)
	}
	if filter.CourtID != "" {
		q.Set("courtId", filter.CourtID)
	}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}

	data, err := c.do(ctx, http.MethodGet, "/api/bookings", q, nil)
	if err != nil {
		return models.Decoded[models.Booking]{}, err
	}
	return models.DecodeBookingList(data)
}

// CreateBooking submits a new booking; the backend assigns its status.
func (c *Client) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/bookings", nil, req)
	if err != nil {
		return models.Booking{}, err
	}
	return models.DecodeBooking(data)
}

// UpdateBooking changes the time or players of an existing booking.
func (c *Client) UpdateBooking(ctx context.Context, bookingID string, req models.UpdateBookingRequest) (models.Booking, error) {
	data, err := c.do(ctx, http.MethodPut, "/api/bookings/"+url.PathEscape(bookingID), nil, req)
	if err != nil {
		return models.Booking{}, err
	}
	return models.DecodeBooking(data)
}

// CancelBooking asks the backend to cancel a booking.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) (models.CancelBookingResponse, error) {
	data, err := c.do(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(bookingID), nil, nil)
	if err != nil {
		return models.CancelBookingResponse{}, err
	}
	return models.DecodeCancelResponse(data)
}

// ------------------ auth ------------------

// CurrentUser resolves the token in ctx to a user.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil)
	if err != nil {
		return models.User{}, err
	}
	return models.DecodeUser(data)
}

// Logout ends the backend session for the token in ctx.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}
