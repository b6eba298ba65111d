// file: controllers/court_controller.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"pickle-web/apiclient"
	"pickle-web/logger"
	"pickle-web/metrics"
	"pickle-web/middleware"
	"pickle-web/models"
	"pickle-web/services"
	"pickle-web/websocket"
)

// Court page messages.
const (
	MsgCourtsLoadFailed = "Failed to load courts. Please try again later."
	MsgCourtLoadFailed  = "Failed to load court details. Please try again later."
	MsgNoLocation       = "Error getting your location. Please enter a city instead."
	MsgNoCourtsFound    = "No courts found. Try a different search or location."

	DefaultRadiusKm = 10
	MaxRadiusKm     = 50
	datePickerDays  = 7
	qrCodeSize      = 300
)

// AvailabilityNotifier tells open court pages that a date changed.
type AvailabilityNotifier interface {
	NotifyAvailabilityChanged(courtID, date string)
}

// LiveHub serves the availability websocket.
type LiveHub interface {
	AvailabilityNotifier
	ServeWs(w http.ResponseWriter, r *http.Request, courtID string)
}

var _ LiveHub = (*websocket.Hub)(nil)

// CourtController serves court search, court detail and booking.
type CourtController struct {
	api            services.APIServiceInterface
	hub            LiveHub
	loc            *time.Location
	applicationURL string
	now            func() time.Time
}

// NewCourtController initializes the controller.
func NewCourtController(api services.APIServiceInterface, hub LiveHub, loc *time.Location, applicationURL string) *CourtController {
	return &CourtController{
		api:            api,
		hub:            hub,
		loc:            loc,
		applicationURL: applicationURL,
		now:            time.Now,
	}
}

func (cc *CourtController) today() time.Time {
	return cc.now().In(cc.loc)
}

// ------------------ search ------------------

// SearchForm mirrors the query string of /courts.
type SearchForm struct {
	City        string
	UseLocation bool
	Latitude    string
	Longitude   string
	RadiusKm    int
}

func parseSearch(c *gin.Context) SearchForm {
	radius, err := strconv.Atoi(c.Query("radiusKm"))
	if err != nil || radius < 1 {
		radius = DefaultRadiusKm
	}
	if radius > MaxRadiusKm {
		radius = MaxRadiusKm
	}
	return SearchForm{
		City:        strings.TrimSpace(c.Query("city")),
		UseLocation: c.Query("useLocation") == "1" || c.Query("useLocation") == "on",
		Latitude:    c.Query("latitude"),
		Longitude:   c.Query("longitude"),
		RadiusKm:    radius,
	}
}

// toSearch converts the form into an API filter.
func (f SearchForm) toSearch() (models.CourtSearch, error) {
	if !f.UseLocation {
		return models.CourtSearch{City: f.City}, nil
	}
	lat, err := strconv.ParseFloat(f.Latitude, 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.CourtSearch{}, errors.New("missing or invalid latitude")
	}
	lng, err := strconv.ParseFloat(f.Longitude, 64)
	if err != nil || lng < -180 || lng > 180 {
		return models.CourtSearch{}, errors.New("missing or invalid longitude")
	}
	return models.CourtSearch{Latitude: &lat, Longitude: &lng, RadiusKm: f.RadiusKm}, nil
}

// Search lists courts by city or by position.
func (cc *CourtController) Search(c *gin.Context) {
	form := parseSearch(c)
	data := gin.H{"Search": form, "Courts": []models.Court{}}

	search, err := form.toSearch()
	if err != nil {
		logger.Warn.Printf("Search: %v", err)
		data["Error"] = MsgNoLocation
		render(c, http.StatusBadRequest, "courts.html", data)
		return
	}

	res, err := cc.api.GetCourts(apiContext(c), search)
	if err != nil {
		if expireIfRejected(c, err) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		logger.Error.Printf("Search: failed to load courts: %v", err)
		metrics.RecordAPIError("GetCourts")
		data["Error"] = MsgCourtsLoadFailed
		render(c, http.StatusOK, "courts.html", data)
		return
	}
	for _, rej := range res.Rejected {
		logger.Warn.Printf("Search: skipping court: %v", rej)
	}

	data["Courts"] = res.Items
	if len(res.Items) == 0 {
		data["Empty"] = MsgNoCourtsFound
	}
	render(c, http.StatusOK, "courts.html", data)
}

// ------------------ detail & booking ------------------

// EmailInput is one optional invite field.
type EmailInput struct {
	Index       int
	Placeholder string
	Value       string
}

// CourtPage is what court_detail.html renders.
type CourtPage struct {
	Court        models.Court
	SelectedDate string
	Days         []services.DayOption
	Grid         services.AvailabilityGrid
	ShowForm     bool
	Form         services.BookingForm
	EmailInputs  []EmailInput
	FormErrors   services.ValidationErrors
	BookingError string
	Success      string
	StartOptions []models.ClockTime
	EndOptions   []models.ClockTime
	PlayerCounts []int
	MinDate      string
	MaxDate      string
}

// loadCourtPage fetches the court and its bookings on date. A failed
// bookings call only leaves the grid empty.
func (cc *CourtController) loadCourtPage(c *gin.Context, courtID, date string) (*CourtPage, error) {
	today := cc.today()
	day, err := models.ParseDate(date)
	if err != nil {
		date = today.Format(models.DateLayout)
		day, _ = models.ParseDate(date)
	}

	ctx := apiContext(c)
	court, err := cc.api.GetCourt(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("load court %s: %w", courtID, err)
	}

	var bookings []models.Booking
	res, err := cc.api.GetBookings(ctx, models.BookingFilter{CourtID: courtID, Date: date})
	if err != nil {
		logger.Error.Printf("CourtDetail: failed to load bookings for %s on %s: %v", courtID, date, err)
		metrics.RecordAPIError("GetBookings")
	} else {
		bookings = res.Items
		for _, rej := range res.Rejected {
			logger.Warn.Printf("CourtDetail: skipping booking: %v", rej)
		}
	}

	return &CourtPage{
		Court:        court,
		SelectedDate: date,
		Days:         services.NextDays(today, datePickerDays, date),
		Grid:         services.BuildAvailability(day, court.NumberOfCourts, bookings),
		Form:         services.NewBookingForm(today),
		StartOptions: services.StartTimeOptions(),
		EndOptions:   services.EndTimeOptions(),
		PlayerCounts: services.PlayerCounts,
		MinDate:      today.Format(models.DateLayout),
		MaxDate:      today.AddDate(0, 0, services.MaxBookingDaysAhead).Format(models.DateLayout),
	}, nil
}

func (p *CourtPage) setForm(f services.BookingForm) {
	p.Form = f
	p.EmailInputs = make([]EmailInput, len(f.PlayerEmails))
	for i, e := range f.PlayerEmails {
		p.EmailInputs[i] = EmailInput{
			Index:       i,
			Placeholder: fmt.Sprintf("Player %d email", i+2),
			Value:       e,
		}
	}
}

func (cc *CourtController) renderCourt(c *gin.Context, status int, page *CourtPage) {
	render(c, status, "court_detail.html", gin.H{"Page": page})
}

func (cc *CourtController) renderCourtError(c *gin.Context, courtID string, err error) {
	if expireIfRejected(c, err) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	logger.Error.Printf("CourtDetail: %v", err)
	metrics.RecordAPIError("GetCourt")
	status := http.StatusOK
	if apiclient.IsNotFound(err) {
		status = http.StatusNotFound
	}
	render(c, status, "court_detail.html", gin.H{"Error": MsgCourtLoadFailed, "CourtID": courtID})
}

// Detail shows the court, the date picker, the grid and, with book=1, the
// booking form.
func (cc *CourtController) Detail(c *gin.Context) {
	courtID := c.Param("id")
	page, err := cc.loadCourtPage(c, courtID, c.Query("date"))
	if err != nil {
		cc.renderCourtError(c, courtID, err)
		return
	}
	page.setForm(page.Form)
	page.ShowForm = c.Query("book") == "1" && middleware.CurrentState(c).IsAuthenticated
	page.Success = takeFlash(c, flashSuccess)
	page.BookingError = takeFlash(c, flashError)
	cc.renderCourt(c, http.StatusOK, page)
}

// parseBookingForm reads the posted form. Unreadable times become -1 so
// validation reports them.
func parseBookingForm(c *gin.Context) services.BookingForm {
	clock := func(field string) models.ClockTime {
		t, err := models.ParseClockTime(c.PostForm(field))
		if err != nil {
			return -1
		}
		return t
	}
	players, err := strconv.Atoi(c.PostForm("numberOfPlayers"))
	if err != nil || !services.IsPlayerCount(players) {
		players = services.PlayerCounts[0]
	}
	return services.BookingForm{
		Date:            strings.TrimSpace(c.PostForm("date")),
		StartTime:       clock("startTime"),
		EndTime:         clock("endTime"),
		NumberOfPlayers: players,
		PlayerEmails:    c.PostFormArray("playerEmails"),
	}
}

// SubmitBooking handles the booking form. action=update only resizes the
// invite list; anything else submits. Anonymous posts go back to the court
// page without touching the backend.
func (cc *CourtController) SubmitBooking(c *gin.Context) {
	courtID := c.Param("id")
	form := parseBookingForm(c)
	selectedDate := c.PostForm("selectedDate")

	auth := middleware.CurrentState(c)
	if !auth.IsAuthenticated {
		logger.Warn.Printf("SubmitBooking: anonymous booking attempt on court %s", courtID)
		addFlash(c, flashError, services.MsgLoginToBook)
		seeOther(c, courtPath(courtID, selectedDate))
		return
	}

	page, err := cc.loadCourtPage(c, courtID, selectedDate)
	if err != nil {
		cc.renderCourtError(c, courtID, err)
		return
	}
	page.ShowForm = true

	if c.PostForm("action") == "update" {
		form.SetPlayers(form.NumberOfPlayers)
		page.setForm(form)
		cc.renderCourt(c, http.StatusOK, page)
		return
	}
	page.setForm(form)

	booking, err := form.Submit(apiContext(c), cc.api, auth, courtID, cc.today())

	var verrs services.ValidationErrors
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotAuthenticated):
		page.BookingError = services.MsgLoginToBook
		cc.renderCourt(c, http.StatusUnauthorized, page)
		return
	case errors.As(err, &verrs):
		metrics.RecordBooking(metrics.OutcomeRejected)
		page.FormErrors = verrs
		cc.renderCourt(c, http.StatusBadRequest, page)
		return
	case expireIfRejected(c, err):
		metrics.RecordBooking(metrics.OutcomeFailed)
		seeOther(c, courtPath(courtID, page.SelectedDate))
		return
	default:
		logger.Error.Printf("SubmitBooking: %v", err)
		metrics.RecordBooking(metrics.OutcomeFailed)
		page.BookingError = services.MsgBookingFailed
		cc.renderCourt(c, http.StatusOK, page)
		return
	}

	metrics.RecordBooking(metrics.OutcomeSuccess)
	logger.Info.Printf("SubmitBooking: booking %s created on court %s for %s", booking.ID, courtID, form.Date)
	cc.hub.NotifyAvailabilityChanged(courtID, form.Date)
	addFlash(c, flashSuccess, services.MsgBookingCreated)
	seeOther(c, courtPath(courtID, page.SelectedDate))
}

func courtPath(courtID, date string) string {
	return "/courts/" + url.PathEscape(courtID) + "?date=" + url.QueryEscape(date)
}

// ------------------ share & live ------------------

// QRCode returns a PNG linking to the court page.
func (cc *CourtController) QRCode(c *gin.Context) {
	courtID := c.Param("id")
	png, err := services.GenerateQRCode(services.CourtURL(cc.applicationURL, courtID), qrCodeSize, qrCodeSize, qrcode.Encode)
	if err != nil {
		logger.Error.Printf("QRCode: Error generating QR code for %s: %v", courtID, err)
		c.String(http.StatusInternalServerError, "QR generation failed")
		return
	}
	c.Header("Content-Disposition", "inline; filename=\"court-qrcode.png\"")
	c.Data(http.StatusOK, "image/png", png)
}

// Live upgrades to the availability websocket for one court.
func (cc *CourtController) Live(c *gin.Context) {
	cc.hub.ServeWs(c.Writer, c.Request, c.Param("id"))
}
