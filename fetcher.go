package client

import (
	"context"
	"fmt"

	"github.com/disasterwatch/client/internal/api"
	"github.com/disasterwatch/client/internal/cache"
)

// load fetches the full content of one partition; it is the loader of the
// synchronization core and runs on executor workers.
func (c *Client) load(ctx context.Context, key cache.Key) (any, error) {
	switch key.Kind {
	case cache.KindDisasters:
		return api.ListDisasters(ctx, c.gw)
	case cache.KindSocialMedia:
		return api.ListSocialMedia(ctx, c.gw, key.DisasterID)
	case cache.KindResources:
		return api.ListResources(ctx, c.gw, key.DisasterID, key.Query)
	case cache.KindOfficialUpdates:
		return api.ListOfficialUpdates(ctx, c.gw, key.DisasterID)
	default:
		return nil, fmt.Errorf("unknown partition kind %q", key.Kind)
	}
}
