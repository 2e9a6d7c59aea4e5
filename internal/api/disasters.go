package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/disasterwatch/client/internal/gateway"
	"github.com/disasterwatch/client/internal/types"
)

// ListDisasters retrieves every active disaster.
func ListDisasters(ctx context.Context, gw gateway.Caller) ([]types.Disaster, error) {
	var out []types.Disaster
	if err := gw.Call(ctx, http.MethodGet, "/disasters", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDisaster creates a new disaster owned by the acting user.
func CreateDisaster(ctx context.Context, gw gateway.Caller, req types.CreateDisasterRequest) (*types.Disaster, error) {
	if err := types.ValidateCreateDisaster(req); err != nil {
		return nil, err
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	var d types.Disaster
	if err := gw.Call(ctx, http.MethodPost, "/disasters", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDisaster deletes a disaster. The backend answers 200 or 204.
func DeleteDisaster(ctx context.Context, gw gateway.Caller, disasterID string) error {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return err
	}
	return gw.Call(ctx, http.MethodDelete, disasterPath(disasterID, ""), nil, nil)
}

func disasterPath(disasterID, suffix string) string {
	p := "/disasters/" + url.PathEscape(disasterID)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}
