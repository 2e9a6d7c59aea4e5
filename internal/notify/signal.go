// Package notify turns the server's coarse push events into invalidation
// signals. It never carries entity data: every signal only says that a
// category (optionally scoped to a disaster) changed.
package notify

import (
	"encoding/json"

	"github.com/disasterwatch/client/internal/types"
)

// Push event names emitted by the server.
const (
	EventDisasterUpdated    = "disaster_updated"
	EventSocialMediaUpdated = "social_media_updated"
	EventResourcesUpdated   = "resources_updated"
)

// SignalKind is the category an invalidation applies to.
type SignalKind int

const (
	DisastersChanged SignalKind = iota + 1
	SocialMediaChanged
	ResourcesChanged
)

func (k SignalKind) String() string {
	switch k {
	case DisastersChanged:
		return "disasters_changed"
	case SocialMediaChanged:
		return "social_media_changed"
	case ResourcesChanged:
		return "resources_changed"
	default:
		return "unknown"
	}
}

// Signal is one classified push event. DisasterID is empty for the disaster
// list and for resource updates that name no disaster.
type Signal struct {
	Kind       SignalKind
	DisasterID string
}

// Event is a raw push event as delivered by a transport.
type Event struct {
	Name    string
	Payload json.RawMessage
}

type scopedPayload struct {
	DisasterID json.RawMessage `json:"disaster_id"`
}

// Classify maps a push event to a Signal. ok is false for unknown events and
// for social media events that do not name a disaster.
func Classify(ev Event) (sig Signal, ok bool) {
	switch ev.Name {
	case EventDisasterUpdated:
		return Signal{Kind: DisastersChanged}, true
	case EventSocialMediaUpdated:
		id := disasterID(ev.Payload)
		if id == "" {
			return Signal{}, false
		}
		return Signal{Kind: SocialMediaChanged, DisasterID: id}, true
	case EventResourcesUpdated:
		return Signal{Kind: ResourcesChanged, DisasterID: disasterID(ev.Payload)}, true
	default:
		return Signal{}, false
	}
}

// disasterID reads payload.disaster_id the way entity ids are decoded, so a
// signal names the same partition as the list row.
func disasterID(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var p scopedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}
	id, err := types.DecodeID(p.DisasterID)
	if err != nil {
		return ""
	}
	return id
}
