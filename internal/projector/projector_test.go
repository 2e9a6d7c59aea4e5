package projector

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disasterwatch/client/internal/cache"
	"github.com/disasterwatch/client/internal/types"
)

var admins = []string{"netrunnerX"}

func ts(s string) strfmt.DateTime {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return strfmt.DateTime(t)
}

func TestProject_NothingLoaded(t *testing.T) {
	v := Project(Input{User: "citizen1", Admins: admins})

	assert.Equal(t, StatusLoading, v.Disasters.Status)
	assert.Equal(t, Loading, v.Disasters.Placeholder)
	assert.Equal(t, []Option{{Value: "", Label: SelectDisaster}}, v.Options)
	assert.Equal(t, "Disconnected", v.Connection)
	assert.Equal(t, "Last update: never", v.LastUpdate)
	assert.Empty(t, v.SocialMedia)
}

func TestProject_DisasterCards(t *testing.T) {
	created := ts("2025-06-17T10:00:00Z")
	in := Input{
		Entries: map[cache.Key]cache.Entry{
			cache.DisastersKey(): {Fresh: true, Data: []types.Disaster{
				{ID: "d1", Title: "NYC Flood", LocationName: "Manhattan, NYC", OwnerID: "citizen1", CreatedAt: created,
					Description: "Heavy flooding", Tags: []string{"flood", "urgent", " flood ", ""}},
				{ID: "d2", Title: "Fire", OwnerID: "reliefAdmin"},
			}},
		},
		User:      "citizen1",
		Admins:    admins,
		Connected: true,
		LastSync:  time.Date(2025, 6, 17, 10, 30, 5, 0, time.UTC),
	}
	v := Project(in)

	require.Equal(t, StatusReady, v.Disasters.Status)
	require.Len(t, v.Disasters.Cards, 2)
	c1, c2 := v.Disasters.Cards[0], v.Disasters.Cards[1]
	assert.Equal(t, []Tag{{Name: "flood"}, {Name: "urgent", Urgent: true}}, c1.Tags)
	assert.Equal(t, "Manhattan, NYC", c1.Location)
	assert.Equal(t, time.Time(created), c1.Created)
	assert.Contains(t, c1.Actions, ActionDelete, "owner may delete")
	assert.Equal(t, UnknownLocation, c2.Location)
	assert.NotContains(t, c2.Actions, ActionDelete, "non-owner non-admin may not delete")

	assert.Equal(t, []Option{{"", SelectDisaster}, {"d1", "NYC Flood"}, {"d2", "Fire"}}, v.Options)
	assert.Equal(t, "Connected", v.Connection)
	assert.Equal(t, "Last update: 10:30:05", v.LastUpdate)

	in.User = "netrunnerX"
	for _, c := range Project(in).Disasters.Cards {
		assert.Contains(t, c.Actions, ActionDelete, "admin may delete %s", c.ID)
	}
}

func TestProject_EmptyPlaceholders(t *testing.T) {
	q := types.ResourceQuery{Lat: 40.7128, Lon: -74.006, Radius: 10000}
	v := Project(Input{Entries: map[cache.Key]cache.Entry{
		cache.DisastersKey():            {Fresh: true, Data: []types.Disaster{}},
		cache.SocialMediaKey("d1"):      {Fresh: true, Data: []types.SocialMediaPost(nil)},
		cache.ResourcesKey("d1", q):     {Fresh: true, Data: []types.Resource{}},
		cache.OfficialUpdatesKey("d1"): {Fresh: true, Data: []types.OfficialUpdate{}},
	}})

	assert.Equal(t, NoDisasters, v.Disasters.Placeholder)
	require.Len(t, v.SocialMedia, 1)
	assert.Equal(t, NoSocialMedia, v.SocialMedia[0].Placeholder)
	require.Len(t, v.Resources, 1)
	assert.Equal(t, NoResources, v.Resources[0].Placeholder)
	assert.Equal(t, q, v.Resources[0].Query)
	require.Len(t, v.OfficialUpdates, 1)
	assert.Equal(t, NoOfficialUpdates, v.OfficialUpdates[0].Placeholder)
	assert.Equal(t, StatusEmpty, v.OfficialUpdates[0].Status)
}

func TestProject_FeedsNewestFirst(t *testing.T) {
	k := cache.SocialMediaKey("d1")
	u := cache.OfficialUpdatesKey("d1")
	v := Project(Input{Entries: map[cache.Key]cache.Entry{
		k: {Fresh: true, Data: []types.SocialMediaPost{
			{User: "old", Post: "a", Timestamp: ts("2025-06-17T09:00:00Z")},
			{User: "new", Post: "b", Timestamp: ts("2025-06-17T11:00:00Z")},
			{User: "mid", Post: "c", Timestamp: ts("2025-06-17T10:00:00Z")},
		}},
		u: {Fresh: true, Data: []types.OfficialUpdate{
			{Source: "FEMA", Timestamp: ts("2025-06-16T09:00:00Z")},
			{Source: "Red Cross", Timestamp: ts("2025-06-17T09:00:00Z")},
		}},
	}})

	require.Len(t, v.SocialMedia, 1)
	var handles []string
	for _, p := range v.SocialMedia[0].Posts {
		handles = append(handles, p.Handle)
	}
	assert.Equal(t, []string{"@new", "@mid", "@old"}, handles)
	assert.Equal(t, "Red Cross", v.OfficialUpdates[0].Items[0].Source)
}

func TestProject_TrackedButNotLoadedIsLoading(t *testing.T) {
	k := cache.SocialMediaKey("d7")
	v := Project(Input{Tracked: []cache.Key{k}, Refreshing: map[cache.Key]bool{k: true}})

	require.Len(t, v.SocialMedia, 1)
	assert.Equal(t, StatusLoading, v.SocialMedia[0].Status)
	assert.True(t, v.SocialMedia[0].Refreshing)
	assert.Equal(t, "d7", v.SocialMedia[0].DisasterID)
}

func TestProject_StaleDataStillShown(t *testing.T) {
	k := cache.DisastersKey()
	v := Project(Input{
		Entries:    map[cache.Key]cache.Entry{k: {Fresh: false, Data: []types.Disaster{{ID: "d1", Title: "Flood"}}}},
		Refreshing: map[cache.Key]bool{k: true},
	})
	assert.Equal(t, StatusReady, v.Disasters.Status)
	assert.True(t, v.Disasters.Stale)
	assert.True(t, v.Disasters.Refreshing)
	assert.Len(t, v.Disasters.Cards, 1)
}

func TestProject_IsPure(t *testing.T) {
	in := Input{Entries: map[cache.Key]cache.Entry{
		cache.DisastersKey(): {Fresh: true, Data: []types.Disaster{{ID: "d1", Tags: []string{"urgent"}}}},
	}}
	assert.Equal(t, Project(in), Project(in))
}
