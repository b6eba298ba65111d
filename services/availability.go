// File: services/availability.go
package services

import (
	"time"

	"pickle-web/models"
)

// The availability grid shows one column per whole hour from 08:00 to 20:00.
const (
	FirstSlotHour = 8
	LastSlotHour  = 20
)

// Slot is one hourly cell of the grid.
type Slot struct {
	Time   models.ClockTime
	Booked bool
}

// CourtRow is one physical court in the grid.
type CourtRow struct {
	Number int
	Slots  []Slot
}

// AvailabilityGrid is the time × court table shown on the court page.
type AvailabilityGrid struct {
	Date  string
	Hours []models.ClockTime
	Rows  []CourtRow
}

// SlotHours returns the start of every slot in display order.
func SlotHours() []models.ClockTime {
	hours := make([]models.ClockTime, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		hours = append(hours, models.At(h))
	}
	return hours
}

// IsSlotBooked reports whether any live booking on date covers the slot
// starting at t.
func IsSlotBooked(bookings []models.Booking, date time.Time, t models.ClockTime) bool {
	day := date.Format(models.DateLayout)
	for _, b := range bookings {
		if b.IsCancelled() || b.DateString() != day {
			continue
		}
		if b.Covers(t) {
			return true
		}
	}
	return false
}

// BuildAvailability lays out numberOfCourts rows over the fixed slots.
//
// Bookings carry no court index, so a booked hour is shown as booked on every
// row. Assigning bookings to individual rows needs backend support.
func BuildAvailability(date time.Time, numberOfCourts int, bookings []models.Booking) AvailabilityGrid {
	hours := SlotHours()

	booked := make([]bool, len(hours))
	for i, h := range hours {
		booked[i] = IsSlotBooked(bookings, date, h)
	}

	grid := AvailabilityGrid{
		Date:  date.Format(models.DateLayout),
		Hours: hours,
	}
	for n := 1; n <= numberOfCourts; n++ {
		row := CourtRow{Number: n, Slots: make([]Slot, len(hours))}
		for i, h := range hours {
			row.Slots[i] = Slot{Time: h, Booked: booked[i]}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// DayOption is one entry of the date picker.
type DayOption struct {
	Date     string
	Label    string
	Selected bool
}

// NextDays returns count consecutive days starting at today, labelled like
// "Mon, Jan 2".
func NextDays(today time.Time, count int, selected string) []DayOption {
	days := make([]DayOption, 0, count)
	for i := 0; i < count; i++ {
		d := today.AddDate(0, 0, i)
		date := d.Format(models.DateLayout)
		days = append(days, DayOption{
			Date:     date,
			Label:    d.Format("Mon, Jan 2"),
			Selected: date == selected,
		})
	}
	return days
}
