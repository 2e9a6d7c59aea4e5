// Package projector derives render instructions from a cache snapshot. It is
// pure: the same Input always yields the same View, and nothing here touches
// the network or mutates the cache.
package projector

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/disasterwatch/client/internal/cache"
	"github.com/disasterwatch/client/internal/session"
	"github.com/disasterwatch/client/internal/types"
)

// Placeholders shown instead of an empty or not yet loaded section.
const (
	Loading           = "Loading..."
	NoDisasters       = "No disasters reported"
	NoSocialMedia     = "No social media posts found"
	NoResources       = "No resources found nearby"
	NoOfficialUpdates = "No official updates available"
	UnknownLocation   = "Unknown"
	SelectDisaster    = "Select Disaster"
)

// Status of a section.
type Status int

const (
	StatusLoading Status = iota
	StatusEmpty
	StatusReady
)

// Action is a control offered on a disaster card.
type Action string

const (
	ActionSocialMedia     Action = "social_media"
	ActionResources       Action = "resources"
	ActionOfficialUpdates Action = "official_updates"
	ActionDelete          Action = "delete"
)

// Input is everything a projection depends on.
type Input struct {
	Entries    map[cache.Key]cache.Entry
	Tracked    []cache.Key
	Refreshing map[cache.Key]bool
	User       string
	Admins     []string
	Connected  bool
	LastSync   time.Time
}

// Section carries what every rendered collection has in common.
type Section struct {
	Key         cache.Key
	Status      Status
	Placeholder string
	// Stale is set while the shown data is known to be out of date.
	Stale      bool
	Refreshing bool
}

// Tag is a disaster tag; Urgent tags are highlighted.
type Tag struct {
	Name   string
	Urgent bool
}

// Card is one disaster.
type Card struct {
	ID          string
	Title       string
	Location    string
	Owner       string
	Created     time.Time
	Description string
	Tags        []Tag
	Actions     []Action
}

// DisasterList is the all-disasters section.
type DisasterList struct {
	Section
	Cards []Card
}

// Option is an entry of the disaster selector.
type Option struct {
	Value string
	Label string
}

// Post is one social media post.
type Post struct {
	Handle string
	Text   string
	Time   time.Time
}

// SocialFeed is a disaster's social media section.
type SocialFeed struct {
	Section
	DisasterID string
	Posts      []Post
}

// ResourceItem is one nearby resource.
type ResourceItem struct {
	Name     string
	Location string
	Type     string
}

// ResourceList is a disaster's resources for one query.
type ResourceList struct {
	Section
	DisasterID string
	Query      types.ResourceQuery
	Items      []ResourceItem
}

// UpdateItem is one official update.
type UpdateItem struct {
	Source  string
	Title   string
	Content string
	Time    time.Time
	URL     string
}

// UpdateList is a disaster's official updates section.
type UpdateList struct {
	Section
	DisasterID string
	Items      []UpdateItem
}

// View is the whole dashboard.
type View struct {
	Disasters       DisasterList
	Options         []Option
	SocialMedia     []SocialFeed
	Resources       []ResourceList
	OfficialUpdates []UpdateList
	Connection      string
	LastUpdate      string
}

// Project renders in.
func Project(in Input) View {
	v := View{
		Connection: connectionLabel(in.Connected),
		LastUpdate: lastUpdateLabel(in.LastSync),
	}
	v.Disasters, v.Options = projectDisasters(in)

	for _, k := range perDisasterKeys(in) {
		switch k.Kind {
		case cache.KindSocialMedia:
			v.SocialMedia = append(v.SocialMedia, projectSocial(in, k))
		case cache.KindResources:
			v.Resources = append(v.Resources, projectResources(in, k))
		case cache.KindOfficialUpdates:
			v.OfficialUpdates = append(v.OfficialUpdates, projectUpdates(in, k))
		}
	}
	return v
}

func connectionLabel(connected bool) string {
	if connected {
		return "Connected"
	}
	return "Disconnected"
}

func lastUpdateLabel(t time.Time) string {
	if t.IsZero() {
		return "Last update: never"
	}
	return "Last update: " + t.Format("15:04:05")
}

// section fills the common part; ok is false when the partition is not loaded.
func section(in Input, k cache.Key, n func(any) int, empty string) (Section, cache.Entry, bool) {
	s := Section{Key: k, Refreshing: in.Refreshing[k]}
	e, ok := in.Entries[k]
	if !ok {
		s.Status = StatusLoading
		s.Placeholder = Loading
		return s, e, false
	}
	s.Stale = !e.Fresh
	if n(e.Data) == 0 {
		s.Status = StatusEmpty
		s.Placeholder = empty
		return s, e, true
	}
	s.Status = StatusReady
	return s, e, true
}

func projectDisasters(in Input) (DisasterList, []Option) {
	k := cache.DisastersKey()
	var list DisasterList
	opts := []Option{{Value: "", Label: SelectDisaster}}

	s, e, ok := section(in, k, func(d any) int { ds, _ := d.([]types.Disaster); return len(ds) }, NoDisasters)
	list.Section = s
	if !ok {
		return list, opts
	}
	ds, _ := e.Data.([]types.Disaster)
	for _, d := range ds {
		list.Cards = append(list.Cards, card(d, in.User, in.Admins))
		opts = append(opts, Option{Value: d.ID, Label: d.Title})
	}
	return list, opts
}

func card(d types.Disaster, user string, admins []string) Card {
	c := Card{
		ID:          d.ID,
		Title:       d.Title,
		Location:    orUnknown(d.LocationName),
		Owner:       d.OwnerID,
		Created:     d.Created(),
		Description: d.Description,
		Tags:        tags(d.Tags),
		Actions:     []Action{ActionSocialMedia, ActionResources, ActionOfficialUpdates},
	}
	if session.CanModify(user, d.OwnerID, admins) {
		c.Actions = append(c.Actions, ActionDelete)
	}
	return c
}

// tags trims, drops empties and deduplicates, keeping first-seen order.
func tags(raw []string) []Tag {
	var out []Tag
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, Tag{Name: t, Urgent: t == "urgent"})
	}
	return out
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownLocation
	}
	return s
}

// perDisasterKeys returns tracked or loaded per-disaster partitions in a
// stable order.
func perDisasterKeys(in Input) []cache.Key {
	set := make(map[cache.Key]struct{})
	for _, k := range in.Tracked {
		if k.PerDisaster() {
			set[k] = struct{}{}
		}
	}
	for k := range in.Entries {
		if k.PerDisaster() {
			set[k] = struct{}{}
		}
	}
	keys := make([]cache.Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b cache.Key) int { return strings.Compare(a.String(), b.String()) })
	return keys
}

func projectSocial(in Input, k cache.Key) SocialFeed {
	s, e, ok := section(in, k, func(d any) int { ps, _ := d.([]types.SocialMediaPost); return len(ps) }, NoSocialMedia)
	feed := SocialFeed{Section: s, DisasterID: k.DisasterID}
	if !ok {
		return feed
	}
	posts, _ := e.Data.([]types.SocialMediaPost)
	for _, p := range posts {
		feed.Posts = append(feed.Posts, Post{Handle: "@" + p.User, Text: p.Post, Time: time.Time(p.Timestamp)})
	}
	sort.SliceStable(feed.Posts, func(i, j int) bool { return feed.Posts[i].Time.After(feed.Posts[j].Time) })
	return feed
}

func projectResources(in Input, k cache.Key) ResourceList {
	s, e, ok := section(in, k, func(d any) int { rs, _ := d.([]types.Resource); return len(rs) }, NoResources)
	list := ResourceList{Section: s, DisasterID: k.DisasterID, Query: k.Query}
	if !ok {
		return list
	}
	rs, _ := e.Data.([]types.Resource)
	for _, r := range rs {
		list.Items = append(list.Items, ResourceItem{Name: r.Name, Location: orUnknown(r.LocationName), Type: r.Type})
	}
	return list
}

func projectUpdates(in Input, k cache.Key) UpdateList {
	s, e, ok := section(in, k, func(d any) int { us, _ := d.([]types.OfficialUpdate); return len(us) }, NoOfficialUpdates)
	list := UpdateList{Section: s, DisasterID: k.DisasterID}
	if !ok {
		return list
	}
	us, _ := e.Data.([]types.OfficialUpdate)
	for _, u := range us {
		list.Items = append(list.Items, UpdateItem{
			Source:  u.Source,
			Title:   u.Title,
			Content: u.Content,
			Time:    time.Time(u.Timestamp),
			URL:     u.URL,
		})
	}
	sort.SliceStable(list.Items, func(i, j int) bool { return list.Items[i].Time.After(list.Items[j].Time) })
	return list
}
