package types

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Disaster is a server-owned disaster record.
type Disaster struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	LocationName string          `json:"location_name,omitempty"`
	Description  string          `json:"description,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	OwnerID      string          `json:"owner_id"`
	CreatedAt    strfmt.DateTime `json:"created_at"`
}

// Created returns CreatedAt as a time.Time.
func (d Disaster) Created() time.Time { return time.Time(d.CreatedAt) }

// SocialMediaPost has no client-visible identity; it is scoped to a disaster.
type SocialMediaPost struct {
	User      string          `json:"user"`
	Post      string          `json:"post"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Resource is one row of a geospatial resource lookup.
type Resource struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	LocationName string `json:"location_name,omitempty"`
	Type         string `json:"type"`
}

// OfficialUpdate is an update published by an official source.
type OfficialUpdate struct {
	Source    string          `json:"source"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	URL       string          `json:"url,omitempty"`
}

// Coordinates is a WGS84 point as returned by the geocoder.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult is the body of POST /geocode.
type GeocodeResult struct {
	LocationName     string       `json:"location_name"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	FormattedAddress string       `json:"formatted_address,omitempty"`
}

// ImageVerification is the body of POST /disasters/{id}/verify-image.
// The verdict fields vary by backend, so the raw object is kept alongside.
type ImageVerification struct {
	Status   string         `json:"status,omitempty"`
	Analysis string         `json:"analysis,omitempty"`
	Raw      map[string]any `json:"-"`
}

// ResourceQuery scopes a resources lookup; it is part of the partition key.
type ResourceQuery struct {
	Lat    float64
	Lon    float64
	Radius float64 // metres
}

// IsZero reports whether no query parameters were supplied.
func (q ResourceQuery) IsZero() bool { return q == ResourceQuery{} }
