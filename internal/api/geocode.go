package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/disasterwatch/client/internal/errors"
	"github.com/disasterwatch/client/internal/gateway"
	"github.com/disasterwatch/client/internal/types"
)

// Geocode extracts a location from free text and resolves it to coordinates.
func Geocode(ctx context.Context, gw gateway.Caller, req types.GeocodeRequest) (*types.GeocodeResult, error) {
	if strings.TrimSpace(req.LocationName) == "" && strings.TrimSpace(req.Description) == "" {
		return nil, apierrors.NewValidationError("description", "a location name or description is required")
	}
	var out types.GeocodeResult
	if err := gw.Call(ctx, http.MethodPost, "/geocode", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyImage asks the backend to assess the authenticity of a report image.
func VerifyImage(ctx context.Context, gw gateway.Caller, disasterID, imageURL string) (*types.ImageVerification, error) {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, apierrors.NewValidationError("image_url", "image_url is required")
	}
	if err := types.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := gw.Call(ctx, http.MethodPost, disasterPath(disasterID, "verify-image"), types.VerifyImageRequest{ImageURL: imageURL}, &raw); err != nil {
		return nil, err
	}
	out := &types.ImageVerification{Raw: raw}
	if b, err := json.Marshal(raw); err == nil {
		_ = json.Unmarshal(b, out)
	}
	return out, nil
}
