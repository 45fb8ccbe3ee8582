package domain

import (
	"strings"
	"time"
)

// City groups spots by administrative area: city, state/province, country.
// State is used for US cities, Province for everywhere else.
type City struct {
	ID          string      `json:"id"`
	City        string      `json:"city"`
	State       string      `json:"state,omitempty"`
	County      string      `json:"county,omitempty"`
	Province    string      `json:"province,omitempty"`
	Country     string      `json:"country"`
	Slug        string      `json:"slug"`
	Location    *Coordinate `json:"location,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Name returns the city in "City, State" or "City, Province" form.
func (c *City) Name() string {
	return joinNonEmpty(c.City, c.State, c.Province)
}

// FullName returns the city in "City, State, Province, Country" form.
func (c *City) FullName() string {
	return joinNonEmpty(c.City, c.State, c.Province, strings.ToUpper(c.Country))
}

// USBiasName returns "Topeka, KS" for US cities and the full name for
// everything else. Useful as geocoder input.
func (c *City) USBiasName() string {
	if c.Country == "us" {
		return joinNonEmpty(c.City, c.State)
	}
	return c.FullName()
}

// ComputeSlug derives the URL slug from the name fields. The slug is a pure
// function of (city, state-or-province, country) and must be recomputed
// whenever any of them changes.
func (c *City) ComputeSlug() string {
	region := c.State
	if c.Province != "" {
		region = c.Province
	}
	return Slugify(joinNonEmpty(c.City, region, c.Country))
}

// Neighborhood is a distinct named area within a city. Neighborhoods are
// shared between spots; the (city, name) pair is unique.
type Neighborhood struct {
	ID        string    `json:"id"`
	CityID    string    `json:"city_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      *City     `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "Neighborhood, City, State, Country" when the owning city
// is loaded, otherwise just the neighborhood name.
func (n *Neighborhood) FullName() string {
	if n.City == nil {
		return n.Name
	}
	return joinNonEmpty(n.Name, n.City.FullName())
}

// Spot is a user-submitted point of interest with resolved location and
// administrative metadata.
type Spot struct {
	ID            string         `json:"id"`
	Address       string         `json:"address,omitempty"`
	CityID        string         `json:"city_id,omitempty"`
	City          *City          `json:"city,omitempty"`
	Location      *Coordinate    `json:"location,omitempty"`
	Neighborhoods []Neighborhood `json:"neighborhoods,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// StreetAddress returns the leading street segment of the address, like
// "1525 NW 57th St" out of "1525 NW 57th St, Seattle, WA 98107, USA".
func (s *Spot) StreetAddress() string {
	street, _, _ := strings.Cut(s.Address, ", ")
	return street
}

// Submission is the raw input to the spot resolution pipeline: free-form
// address text, a "(lat, lng)" pseudo-address from a map click, or separate
// latitude/longitude fields.
type Submission struct {
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinate returns the submitted coordinate, or nil when either half is
// missing.
func (s Submission) Coordinate() *Coordinate {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &Coordinate{Lat: *s.Latitude, Lng: *s.Longitude}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
