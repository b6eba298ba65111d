// controllers/court_controller_test.go
package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pickle-web/apiclient"
	"pickle-web/models"
	"pickle-web/services"
)

// fakeHub records availability notifications.
type fakeHub struct {
	mu       sync.Mutex
	notified []string
}

func (h *fakeHub) NotifyAvailabilityChanged(courtID, date string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified = append(h.notified, courtID+"@"+date)
}

func (h *fakeHub) ServeWs(w http.ResponseWriter, r *http.Request, courtID string) {
	w.WriteHeader(http.StatusAccepted)
}

var (
	courtNow    = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	centreCourt = models.Court{ID: "c1", Name: "Centre Court", NumberOfCourts: 2}
)

func setupCourtRoutes(t *testing.T, api *services.MockAPIService) (*gin.Engine, *fakeHub) {
	router := setupTestRouter(t, api)
	hub := &fakeHub{}
	cc := NewCourtController(api, hub, time.UTC, "http://example.com")
	cc.now = func() time.Time { return courtNow }

	router.GET("/courts", cc.Search)
	router.GET("/courts/:id", cc.Detail)
	router.POST("/courts/:id/bookings", cc.SubmitBooking)
	router.GET("/courts/:id/qrcode", cc.QRCode)
	router.GET("/courts/:id/live", cc.Live)
	return router, hub
}

func expectCourtPage(api *services.MockAPIService, date string, bookings ...models.Booking) {
	api.On("GetCourt", mock.Anything, "c1").Return(centreCourt, nil)
	api.On("GetBookings", mock.Anything, models.BookingFilter{CourtID: "c1", Date: date}).
		Return(models.Decoded[models.Booking]{Items: bookings}, nil)
}

func tenToEleven(date string) models.Booking {
	d, _ := models.ParseDate(date)
	return models.Booking{
		ID: "b1", CourtID: "c1", Date: d,
		StartTime: models.At(10), EndTime: models.At(11),
		NumberOfPlayers: 2, Status: models.StatusConfirmed,
	}
}

// ------------------ search ------------------

func TestSearch_ByCity(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourts", mock.Anything, models.CourtSearch{City: "Bristol"}).
		Return(models.Decoded[models.Court]{Items: []models.Court{centreCourt, {ID: "c2", Name: "Riverside"}}}, nil)
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts?city=Bristol", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "courts|||Centre Court;Riverside;", w.Body.String())
}

func TestSearch_ByLocation(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourts", mock.Anything, mock.MatchedBy(func(s models.CourtSearch) bool {
		return s.Latitude != nil && *s.Latitude == 51.45 && *s.Longitude == -2.58 && s.RadiusKm == 25
	})).Return(models.Decoded[models.Court]{}, nil)
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts?useLocation=1&latitude=51.45&longitude=-2.58&radiusKm=25", nil)

	assert.Equal(t, "courts||"+MsgNoCourtsFound+"|", w.Body.String())
	api.AssertExpectations(t)
}

func TestSearch_LocationMissing(t *testing.T) {
	api := new(services.MockAPIService)
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts?useLocation=1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), MsgNoLocation)
	api.AssertNotCalled(t, "GetCourts", mock.Anything, mock.Anything)
}

func TestSearch_BackendError(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourts", mock.Anything, mock.Anything).Return(models.Decoded[models.Court]{}, errors.New("down"))
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts", nil)

	assert.Contains(t, w.Body.String(), MsgCourtsLoadFailed)
}

// ------------------ detail ------------------

func TestDetail_RendersGrid(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10", tenToEleven("2025-03-10"))
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts/c1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Centre Court|2025-03-10|false|")
	assert.Contains(t, body, "|..X........../..X........../")
}

func TestDetail_SelectedDate(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-12")
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts/c1?date=2025-03-12", nil)

	assert.Contains(t, w.Body.String(), "|2025-03-12|")
	api.AssertExpectations(t)
}

func TestDetail_BookingFormNeedsLogin(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	router, _ := setupCourtRoutes(t, api)

	anon := get(router, "/courts/c1?book=1", nil)
	assert.Contains(t, anon.Body.String(), "|false|")

	signedIn := get(router, "/courts/c1?book=1", loginCookie(t, router))
	assert.Contains(t, signedIn.Body.String(), "|true|")
}

func TestDetail_BookingsFailureLeavesGridEmpty(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourt", mock.Anything, "c1").Return(centreCourt, nil)
	api.On("GetBookings", mock.Anything, mock.Anything).Return(models.Decoded[models.Booking]{}, errors.New("down"))
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts/c1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "|............./............./")
}

func TestDetail_CourtFailure(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourt", mock.Anything, "nope").Return(models.Court{}, &apiclient.APIError{StatusCode: http.StatusNotFound})
	router, _ := setupCourtRoutes(t, api)

	w := get(router, "/courts/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "detail|"+MsgCourtLoadFailed+"|", w.Body.String())
}

func TestDetail_RejectedCredentialSignsOut(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("GetCourt", mock.Anything, "c1").
		Return(models.Court{}, &apiclient.APIError{StatusCode: http.StatusUnauthorized})
	router, _ := setupCourtRoutes(t, api)
	router.GET("/", NewPageController().Home)

	w := get(router, "/courts/c1", loginCookie(t, router))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	home := get(router, "/", latestCookie(w, nil))
	assert.Equal(t, "home|"+MsgSessionExpired+"||false", home.Body.String())
}

// ------------------ booking form ------------------

func bookingForm(players string, emails ...string) url.Values {
	form := url.Values{
		"selectedDate":    {"2025-03-10"},
		"date":            {"2025-03-10"},
		"startTime":       {"10:00"},
		"endTime":         {"11:00"},
		"numberOfPlayers": {players},
		"action":          {"submit"},
	}
	for _, e := range emails {
		form.Add("playerEmails", e)
	}
	return form
}

func TestSubmitBooking_UpdateResizesEmails(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	router, _ := setupCourtRoutes(t, api)
	cookie := loginCookie(t, router)

	grow := bookingForm("4", "a@x.com")
	grow.Set("action", "update")
	w := post(router, "/courts/c1/bookings", grow, cookie)
	assert.Contains(t, w.Body.String(), "|[a@x.com][][]|")

	shrink := bookingForm("2", "a@x.com", "b@x.com", "c@x.com")
	shrink.Set("action", "update")
	w = post(router, "/courts/c1/bookings", shrink, cookie)
	assert.Contains(t, w.Body.String(), "|[a@x.com]|")

	api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestSubmitBooking_UpdateWithUnknownPartySize(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	router, _ := setupCourtRoutes(t, api)
	cookie := loginCookie(t, router)

	for _, players := range []string{"200000", "3", "-5", "lots"} {
		form := bookingForm(players)
		form.Set("action", "update")

		w := post(router, "/courts/c1/bookings", form, cookie)

		require.Equal(t, http.StatusOK, w.Code, players)
		assert.Contains(t, w.Body.String(), "||[]|", players)
	}
}

func TestSubmitBooking_Anonymous(t *testing.T) {
	api := new(services.MockAPIService)
	router, hub := setupCourtRoutes(t, api)

	w := post(router, "/courts/c1/bookings", bookingForm("2", ""), nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/courts/c1?date=2025-03-10", w.Header().Get("Location"))
	api.AssertNotCalled(t, "GetCourt", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "GetBookings", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	assert.Empty(t, hub.notified)

	expectCourtPage(api, "2025-03-10")
	page := get(router, "/courts/c1?date=2025-03-10", latestCookie(w, nil))
	assert.Contains(t, page.Body.String(), "|false|"+services.MsgLoginToBook+"|")
}

func TestSubmitBooking_RejectedCredentialSignsOut(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	api.On("CreateBooking", mock.Anything, mock.Anything).
		Return(models.Booking{}, &apiclient.APIError{StatusCode: http.StatusUnauthorized}).Once()
	router, hub := setupCourtRoutes(t, api)
	cookie := loginCookie(t, router)

	w := post(router, "/courts/c1/bookings", bookingForm("2"), cookie)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/courts/c1?date=2025-03-10", w.Header().Get("Location"))
	assert.Empty(t, hub.notified)

	page := get(router, "/courts/c1?date=2025-03-10&book=1", latestCookie(w, cookie))
	body := page.Body.String()
	assert.Contains(t, body, "|false|"+MsgSessionExpired+"|")
	api.AssertNotCalled(t, "CurrentUser", mock.Anything)
}

func TestSubmitBooking_Success(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	api.On("CreateBooking", mock.Anything, models.CreateBookingRequest{
		CourtID:         "c1",
		Date:            "2025-03-10",
		StartTime:       models.At(10),
		EndTime:         models.At(11),
		NumberOfPlayers: 4,
		PlayerEmails:    []string{"a@x.com", "c@x.com"},
	}).Return(tenToEleven("2025-03-10"), nil).Once()
	router, hub := setupCourtRoutes(t, api)
	cookie := loginCookie(t, router)

	w := post(router, "/courts/c1/bookings", bookingForm("4", "a@x.com", "", "c@x.com"), cookie)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/courts/c1?date=2025-03-10", w.Header().Get("Location"))
	assert.Equal(t, []string{"c1@2025-03-10"}, hub.notified)

	page := get(router, "/courts/c1?date=2025-03-10", latestCookie(w, cookie))
	assert.Contains(t, page.Body.String(), "|false||"+services.MsgBookingCreated+"|")
	api.AssertExpectations(t)
}

func TestSubmitBooking_BackendRejects(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	api.On("CreateBooking", mock.Anything, mock.Anything).
		Return(models.Booking{}, &apiclient.APIError{StatusCode: http.StatusConflict})
	router, hub := setupCourtRoutes(t, api)

	w := post(router, "/courts/c1/bookings", bookingForm("2", "a@x.com"), loginCookie(t, router))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "|true|"+services.MsgBookingFailed+"|")
	assert.Contains(t, body, "[a@x.com]")
	assert.Empty(t, hub.notified)
}

func TestSubmitBooking_Invalid(t *testing.T) {
	api := new(services.MockAPIService)
	expectCourtPage(api, "2025-03-10")
	router, _ := setupCourtRoutes(t, api)

	form := bookingForm("2")
	form.Set("endTime", "09:00")
	w := post(router, "/courts/c1/bookings", form, loginCookie(t, router))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "|EndTime;|")
	api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

// ------------------ share & live ------------------

func TestQRCode(t *testing.T) {
	router, _ := setupCourtRoutes(t, new(services.MockAPIService))

	w := get(router, "/courts/c1/qrcode", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestLive_DelegatesToHub(t *testing.T) {
	router, _ := setupCourtRoutes(t, new(services.MockAPIService))

	w := get(router, "/courts/c1/live", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestCourtPath(t *testing.T) {
	assert.Equal(t, "/courts/c%201?date=2025-03-10", courtPath("c 1", "2025-03-10"))
}
