// Package models defines data structures used across the application.
// File: models/court.go
package models

// PlaceholderImageURL is shown when a court has no image of its own.
const PlaceholderImageURL = "https://via.placeholder.com/800x400?text=Padel+Court"

// ------------------------ court model -----------------------

// Court is a venue holding one or more playing courts. The client never
// mutates it.
type Court struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	NumberOfCourts int      `json:"numberOfCourts"`
	Amenities      []string `json:"amenities"`
	ImageURL       string   `json:"imageUrl"`
}

// Image returns the court image or the placeholder.
func (c Court) Image() string {
	if c.ImageURL == "" {
		return PlaceholderImageURL
	}
	return c.ImageURL
}

// CourtSearch filters a court listing. Zero values are omitted from the query.
type CourtSearch struct {
	City      string
	Latitude  *float64
	Longitude *float64
	RadiusKm  int
}
