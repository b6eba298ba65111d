// file: controllers/booking_controller.go
package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pickle-web/logger"
	"pickle-web/metrics"
	"pickle-web/middleware"
	"pickle-web/services"
)

// bookingsViewKey holds the id of this browser's bookings page in the session.
const bookingsViewKey = "bookingsView"

// BookingController serves the signed-in user's bookings list.
type BookingController struct {
	api      services.APIServiceInterface
	views    *services.ViewStore
	notifier AvailabilityNotifier
	loc      *time.Location
}

// NewBookingController initializes the controller.
func NewBookingController(api services.APIServiceInterface, views *services.ViewStore, notifier AvailabilityNotifier, loc *time.Location) *BookingController {
	return &BookingController{api: api, views: views, notifier: notifier, loc: loc}
}

// viewID returns this browser's view id, issuing one if needed.
func viewID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(bookingsViewKey).(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	session.Set(bookingsViewKey, id)
	if err := session.Save(); err != nil {
		logger.Error.Printf("viewID: failed to save session: %v", err)
	}
	return id
}

func bookingsPath(tab services.BookingTab) string {
	return "/bookings?tab=" + url.QueryEscape(string(tab)) + "&keep=1"
}

// List renders one tab. Opening the page loads the bookings; switching tabs
// and returning from a cancellation (keep=1) reuse the local list.
func (bc *BookingController) List(c *gin.Context) {
	tab := services.ParseTab(c.Query("tab"))
	user := middleware.CurrentState(c).User
	if user == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	id := viewID(c)
	view, ok := bc.views.Get(id)
	if !ok || view.UserID() != user.ID || c.Query("keep") != "1" {
		view = services.NewBookingsView(bc.loc)
		if err := view.Load(apiContext(c), bc.api, user.ID); err != nil {
			if expireIfRejected(c, err) {
				bc.views.Delete(id)
				c.Redirect(http.StatusFound, "/")
				return
			}
			logger.Error.Printf("BookingList: %v", err)
			metrics.RecordAPIError("GetBookings")
			render(c, http.StatusOK, "bookings.html", gin.H{"Page": view.Page(tab)})
			return
		}
		bc.views.Put(id, view)
	}

	render(c, http.StatusOK, "bookings.html", gin.H{"Page": view.Page(tab)})
}

// Cancel cancels one booking and returns to the list without reloading it.
func (bc *BookingController) Cancel(c *gin.Context) {
	bookingID := c.Param("id")
	tab := services.ParseTab(c.PostForm("tab"))

	view, ok := bc.views.Get(viewID(c))
	if !ok {
		logger.Warn.Printf("BookingCancel: no bookings view for %s, reloading list", bookingID)
		seeOther(c, "/bookings?tab="+url.QueryEscape(string(tab)))
		return
	}

	var courtID, date string
	for _, b := range view.Bookings() {
		if b.ID == bookingID {
			courtID, date = b.CourtID, b.DateString()
		}
	}

	err := view.Cancel(apiContext(c), bc.api, bookingID)
	switch {
	case err == nil:
		metrics.RecordBookingCancellation(metrics.OutcomeSuccess)
		logger.Info.Printf("BookingCancel: booking %s cancelled", bookingID)
		bc.notifier.NotifyAvailabilityChanged(courtID, date)
	case errors.Is(err, services.ErrCancelInFlight):
		logger.Info.Printf("BookingCancel: booking %s already being cancelled", bookingID)
	case errors.Is(err, services.ErrUnknownBooking):
		logger.Warn.Printf("BookingCancel: booking %s is not in the list", bookingID)
	case expireIfRejected(c, err):
		bc.views.Delete(viewID(c))
		metrics.RecordBookingCancellation(metrics.OutcomeFailed)
		seeOther(c, "/")
		return
	default:
		logger.Error.Printf("BookingCancel: %v", err)
		metrics.RecordBookingCancellation(metrics.OutcomeFailed)
	}
	seeOther(c, bookingsPath(tab))
}
