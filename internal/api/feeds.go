package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/disasterwatch/client/internal/gateway"
	"github.com/disasterwatch/client/internal/types"
)

// ListSocialMedia retrieves the social feed of a disaster. Order is not
// guaranteed by the server.
func ListSocialMedia(ctx context.Context, gw gateway.Caller, disasterID string) ([]types.SocialMediaPost, error) {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return nil, err
	}
	var out []types.SocialMediaPost
	if err := gw.Call(ctx, http.MethodGet, disasterPath(disasterID, "social-media"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResources retrieves resources around q for a disaster.
func ListResources(ctx context.Context, gw gateway.Caller, disasterID string, q types.ResourceQuery) ([]types.Resource, error) {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return nil, err
	}
	if err := types.ValidateResourceQuery(q); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(q.Radius, 'f', -1, 64))

	var out []types.Resource
	path := disasterPath(disasterID, "resources") + "?" + params.Encode()
	if err := gw.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOfficialUpdates retrieves official updates for a disaster.
func ListOfficialUpdates(ctx context.Context, gw gateway.Caller, disasterID string) ([]types.OfficialUpdate, error) {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return nil, err
	}
	var out []types.OfficialUpdate
	if err := gw.Call(ctx, http.MethodGet, disasterPath(disasterID, "official-updates"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
