// File: services/bookings_view.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pickle-web/logger"
	"pickle-web/models"
)

// BookingTab selects one half of the bookings list.
type BookingTab string

const (
	TabUpcoming BookingTab = "upcoming"
	TabPast     BookingTab = "past"
)

// ParseTab falls back to the upcoming tab for unknown values.
func ParseTab(s string) BookingTab {
	if BookingTab(s) == TabPast {
		return TabPast
	}
	return TabUpcoming
}

// Bookings page messages.
const (
	MsgBookingsLoadFailed = "Failed to load bookings. Please try again later."
	MsgCancelFailed       = "Failed to cancel booking. Please try again."
	MsgCancelled          = "Booking cancelled successfully."
	MsgNoUpcoming         = "You don't have any upcoming bookings."
	MsgNoPast             = "You don't have any past or cancelled bookings."

	// CancelNoticeDuration is how long the cancellation notice stays up.
	CancelNoticeDuration = 3 * time.Second
)

var (
	// ErrCancelInFlight is returned while the same booking is already being cancelled.
	ErrCancelInFlight = errors.New("cancellation already in progress")
	// ErrUnknownBooking is returned for ids that are not on the page.
	ErrUnknownBooking = errors.New("booking not in view")
)

// ------------------ partitioning ------------------

// IsPast reports whether the booking ended strictly before now.
func IsPast(b models.Booking, now time.Time, loc *time.Location) bool {
	return b.EndAt(loc).Before(now)
}

// PartitionBookings splits bookings into the upcoming tab (not past, not
// cancelled) and the past tab (past or cancelled). Each is sorted by start.
func PartitionBookings(bookings []models.Booking, now time.Time, loc *time.Location) (upcoming, past []models.Booking) {
	upcoming = []models.Booking{}
	past = []models.Booking{}
	for _, b := range bookings {
		if IsPast(b, now, loc) || b.IsCancelled() {
			past = append(past, b)
		} else {
			upcoming = append(upcoming, b)
		}
	}
	byStart := func(list []models.Booking) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].StartAt(loc).Before(list[j].StartAt(loc))
		})
	}
	byStart(upcoming)
	byStart(past)
	return upcoming, past
}

// ------------------ page state ------------------

// BookingItem is one row of the bookings list.
type BookingItem struct {
	models.Booking
	CourtName  string
	CourtKnown bool
	DateLabel  string
	Cancelling bool
	CanCancel  bool
}

// BookingsPage is what the template renders.
type BookingsPage struct {
	Tab          BookingTab
	Items        []BookingItem
	Notice       string
	Error        string
	EmptyMessage string
}

// BookingsView is the local state of one browser's bookings page. It is
// loaded once and then updated in place by cancellations.
type BookingsView struct {
	mu          sync.Mutex
	loc         *time.Location
	now         func() time.Time
	userID      string
	bookings    []models.Booking
	courts      map[string]models.Court
	cancelling  map[string]bool
	notice      string
	noticeUntil time.Time
	errMsg      string
}

// NewBookingsView creates an empty view; call Load before rendering.
func NewBookingsView(loc *time.Location) *BookingsView {
	return &BookingsView{
		loc:        loc,
		now:        time.Now,
		courts:     make(map[string]models.Court),
		cancelling: make(map[string]bool),
	}
}

// Load fetches the user's bookings and the courts they reference. A court
// that fails to load only loses its name on the page.
func (v *BookingsView) Load(ctx context.Context, api APIServiceInterface, userID string) error {
	res, err := api.GetBookings(ctx, models.BookingFilter{UserID: userID})
	if err != nil {
		v.mu.Lock()
		v.errMsg = MsgBookingsLoadFailed
		v.mu.Unlock()
		return fmt.Errorf("load bookings for user %s: %w", userID, err)
	}
	for _, rej := range res.Rejected {
		logger.Warn.Printf("BookingsView.Load: skipping booking: %v", rej)
	}

	courts := make(map[string]models.Court)
	tried := make(map[string]bool)
	for _, b := range res.Items {
		if tried[b.CourtID] {
			continue
		}
		tried[b.CourtID] = true
		court, err := api.GetCourt(ctx, b.CourtID)
		if err != nil {
			logger.Warn.Printf("BookingsView.Load: failed to fetch court %s: %v", b.CourtID, err)
			continue
		}
		courts[b.CourtID] = court
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.userID = userID
	v.bookings = res.Items
	v.courts = courts
	v.errMsg = ""
	return nil
}

// UserID returns the owner of the loaded bookings.
func (v *BookingsView) UserID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.userID
}

// Cancel cancels one booking. On success only that booking turns CANCELLED
// locally; nothing is refetched. On failure the list is left untouched.
func (v *BookingsView) Cancel(ctx context.Context, api APIServiceInterface, bookingID string) error {
	v.mu.Lock()
	if v.cancelling[bookingID] {
		v.mu.Unlock()
		return ErrCancelInFlight
	}
	if v.indexOf(bookingID) < 0 {
		v.mu.Unlock()
		return ErrUnknownBooking
	}
	v.cancelling[bookingID] = true
	v.mu.Unlock()

	_, err := api.CancelBooking(ctx, bookingID)

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cancelling, bookingID)

	if err != nil {
		v.errMsg = MsgCancelFailed
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	if i := v.indexOf(bookingID); i >= 0 {
		v.bookings[i].Status = models.StatusCancelled
	}
	v.notice = MsgCancelled
	v.noticeUntil = v.now().Add(CancelNoticeDuration)
	v.errMsg = ""
	return nil
}

// indexOf must be called with mu held.
func (v *BookingsView) indexOf(bookingID string) int {
	for i, b := range v.bookings {
		if b.ID == bookingID {
			return i
		}
	}
	return -1
}

// Bookings returns a copy of the loaded bookings.
func (v *BookingsView) Bookings() []models.Booking {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Booking, len(v.bookings))
	copy(out, v.bookings)
	return out
}

// Page renders the given tab as of now.
func (v *BookingsView) Page(tab BookingTab) BookingsPage {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	upcoming, past := PartitionBookings(v.bookings, now, v.loc)
	list, empty := upcoming, MsgNoUpcoming
	if tab == TabPast {
		list, empty = past, MsgNoPast
	}

	page := BookingsPage{Tab: tab, Error: v.errMsg, EmptyMessage: empty}
	if v.notice != "" && now.Before(v.noticeUntil) {
		page.Notice = v.notice
	}
	for _, b := range list {
		court, known := v.courts[b.CourtID]
		page.Items = append(page.Items, BookingItem{
			Booking:    b,
			CourtName:  court.Name,
			CourtKnown: known,
			DateLabel:  b.Date.Format("Monday, January 2, 2006"),
			Cancelling: v.cancelling[b.ID],
			CanCancel:  tab == TabUpcoming && !b.IsCancelled(),
		})
	}
	return page
}
