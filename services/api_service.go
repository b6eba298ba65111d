// Package services holds the booking logic behind each page: availability,
// the booking form, the bookings list and the signed-in session.
// File: services/api_service.go
package services

import (
	"context"

	"pickle-web/apiclient"
	"pickle-web/models"
)

// APIServiceInterface is the slice of the REST backend the pages use.
type APIServiceInterface interface {
	GetCourts(ctx context.Context, search models.CourtSearch) (models.Decoded[models.Court], error)
	GetCourt(ctx context.Context, courtID string) (models.Court, error)
	GetBookings(ctx context.Context, filter models.BookingFilter) (models.Decoded[models.Booking], error)
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, req models.UpdateBookingRequest) (models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (models.CancelBookingResponse, error)
	CurrentUser(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
	LoginURL() string
}

// ✅ Ensure the HTTP client satisfies the interface
var _ APIServiceInterface = (*apiclient.Client)(nil)
