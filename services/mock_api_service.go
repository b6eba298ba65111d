package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pickle-web/models"
)

// ✅ Ensure MockAPIService implements APIServiceInterface
var _ APIServiceInterface = (*MockAPIService)(nil)

// MockAPIService is a mock implementation for testing and extends `mock.Mock`
type MockAPIService struct {
	mock.Mock
}

// GetCourts (Mocked)
func (m *MockAPIService) GetCourts(ctx context.Context, search models.CourtSearch) (models.Decoded[models.Court], error) {
	args := m.Called(ctx, search)
	return args.Get(0).(models.Decoded[models.Court]), args.Error(1)
}

// GetCourt (Mocked)
func (m *MockAPIService) GetCourt(ctx context.Context, courtID string) (models.Court, error) {
	args := m.Called(ctx, courtID)
	return args.Get(0).(models.Court), args.Error(1)
}

// GetBookings (Mocked)
func (m *MockAPIService) GetBookings(ctx context.Context, filter models.BookingFilter) (models.Decoded[models.Booking], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(models.Decoded[models.Booking]), args.Error(1)
}

// CreateBooking (Mocked)
func (m *MockAPIService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Booking), args.Error(1)
}

// UpdateBooking (Mocked)
func (m *MockAPIService) UpdateBooking(ctx context.Context, bookingID string, req models.UpdateBookingRequest) (models.Booking, error) {
	args := m.Called(ctx, bookingID, req)
	return args.Get(0).(models.Booking), args.Error(1)
}

// CancelBooking (Mocked)
func (m *MockAPIService) CancelBooking(ctx context.Context, bookingID string) (models.CancelBookingResponse, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(models.CancelBookingResponse), args.Error(1)
}

// CurrentUser (Mocked)
func (m *MockAPIService) CurrentUser(ctx context.Context) (models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.User), args.Error(1)
}

// Logout (Mocked)
func (m *MockAPIService) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// LoginURL (Mocked)
func (m *MockAPIService) LoginURL() string {
	args := m.Called()
	return args.String(0)
}
