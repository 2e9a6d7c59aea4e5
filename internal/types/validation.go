package types

import (
	"math"
	"strings"

	"github.com/go-openapi/strfmt"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

// ValidateIDPresent rejects an empty identifier.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return apierrors.NewValidationError(field, field+" is required")
	}
	if strings.ContainsAny(id, "/?#") {
		return apierrors.NewValidationError(field, field+" contains invalid characters")
	}
	return nil
}

// ValidateCreateDisaster checks the fields the server requires.
func ValidateCreateDisaster(req CreateDisasterRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apierrors.NewValidationError("title", "title is required")
	}
	return nil
}

// ValidateImageURL accepts an empty value (no image) or a well-formed URI.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if !strfmt.Default.Validates("uri", raw) {
		return apierrors.NewValidationError("image_url", "image_url is not a valid URL")
	}
	return nil
}

// ValidateResourceQuery checks coordinates and radius ranges. The query is
// part of a partition key, so NaN and infinities are refused: a NaN key never
// compares equal to itself.
func ValidateResourceQuery(q ResourceQuery) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"lat", q.Lat}, {"lon", q.Lon}, {"radius", q.Radius}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return apierrors.NewValidationError(f.name, f.name+" must be a finite number")
		}
	}
	if q.Lat < -90 || q.Lat > 90 {
		return apierrors.NewValidationError("lat", "lat must be within [-90, 90]")
	}
	if q.Lon < -180 || q.Lon > 180 {
		return apierrors.NewValidationError("lon", "lon must be within [-180, 180]")
	}
	if q.Radius <= 0 {
		return apierrors.NewValidationError("radius", "radius must be > 0")
	}
	return nil
}
