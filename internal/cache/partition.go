package cache

import (
	"strconv"

	"github.com/disasterwatch/client/internal/types"
)

// Kind is the partition category; it mirrors the server's notification
// categories plus official updates, which have none.
type Kind string

const (
	KindDisasters       Kind = "disasters"
	KindSocialMedia     Kind = "social_media"
	KindResources       Kind = "resources"
	KindOfficialUpdates Kind = "official_updates"
)

// Key identifies one partition. Query is only meaningful for KindResources.
type Key struct {
	Kind       Kind
	DisasterID string
	Query      types.ResourceQuery
}

// DisastersKey is the single all-disasters partition.
func DisastersKey() Key { return Key{Kind: KindDisasters} }

// SocialMediaKey is the social feed partition of a disaster.
func SocialMediaKey(disasterID string) Key {
	return Key{Kind: KindSocialMedia, DisasterID: disasterID}
}

// ResourcesKey is the resources partition of a disaster for one query.
func ResourcesKey(disasterID string, q types.ResourceQuery) Key {
	return Key{Kind: KindResources, DisasterID: disasterID, Query: q}
}

// OfficialUpdatesKey is the official updates partition of a disaster.
func OfficialUpdatesKey(disasterID string) Key {
	return Key{Kind: KindOfficialUpdates, DisasterID: disasterID}
}

// PerDisaster reports whether the partition is scoped to a disaster.
func (k Key) PerDisaster() bool { return k.DisasterID != "" }

// String is stable and used as executor shard key and log field.
func (k Key) String() string {
	switch k.Kind {
	case KindDisasters:
		return string(k.Kind)
	case KindResources:
		return string(k.Kind) + "/" + k.DisasterID + "@" +
			strconv.FormatFloat(k.Query.Lat, 'f', -1, 64) + "," +
			strconv.FormatFloat(k.Query.Lon, 'f', -1, 64) + "r" +
			strconv.FormatFloat(k.Query.Radius, 'f', -1, 64)
	default:
		return string(k.Kind) + "/" + k.DisasterID
	}
}
