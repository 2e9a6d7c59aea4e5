package types

import "strings"

// ------------------------------
// Request Types
// ------------------------------

// CreateDisasterRequest holds parameters for a new disaster.
type CreateDisasterRequest struct {
	Title        string   `json:"title"`
	LocationName string   `json:"location_name"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// HasLocationHint reports whether the request carries enough text to geocode.
func (r CreateDisasterRequest) HasLocationHint() bool {
	return strings.TrimSpace(r.LocationName) != "" || strings.TrimSpace(r.Description) != ""
}

// GeocodeRequest is sent to POST /geocode. DisasterID is set when the call
// enriches a freshly created disaster.
type GeocodeRequest struct {
	DisasterID   string `json:"disaster_id,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Description  string `json:"description,omitempty"`
}

// ReportRequest is a citizen report against a disaster.
type ReportRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// VerifyImageRequest is sent to POST /disasters/{id}/verify-image.
type VerifyImageRequest struct {
	ImageURL string `json:"image_url"`
}

// SplitTags turns comma separated input into trimmed, non-empty tags.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
