package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	apierrors "github.com/disasterwatch/client/internal/errors"
	"github.com/disasterwatch/client/internal/gateway"
	"github.com/disasterwatch/client/internal/types"
)

type user string

func (u user) Current() string { return string(u) }

func newGateway(t *testing.T, h http.HandlerFunc) (*gateway.Gateway, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	hc := srv.Client()
	gateway.Wrap(hc, user("netrunnerX"), false)
	return gateway.New(srv.URL+"/api", hc, zerolog.Nop()), srv.Close
}

// countingCaller records calls so validation tests can assert nothing was sent.
type countingCaller struct{ calls int }

func (c *countingCaller) Call(context.Context, string, string, any, any) error {
	c.calls++
	return nil
}

func TestListDisasters_Success(t *testing.T) {
	t.Parallel()
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"d1","title":"Flood","owner_id":"netrunnerX","created_at":"2025-06-17T10:00:00.123456"},{"id":"d2","title":"Fire","owner_id":"reliefAdmin","created_at":"2025-06-17T11:00:00Z"}]`))
	})
	defer done()
	got, err := ListDisasters(context.Background(), gw)
	if err != nil || len(got) != 2 || got[0].ID != "d1" || got[1].OwnerID != "reliefAdmin" {
		t.Fatalf("ListDisasters unexpected: got=%+v err=%v", got, err)
	}
	if got[0].Created().IsZero() {
		t.Fatalf("timestamp without zone not parsed")
	}
}

func TestCreateDisaster_SendsTagsAndDecodes(t *testing.T) {
	t.Parallel()
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var in types.CreateDisasterRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Title != "Flood A" || in.Tags == nil {
			t.Errorf("unexpected body %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x1", "title": in.Title, "owner_id": "netrunnerX"})
	})
	defer done()
	d, err := CreateDisaster(context.Background(), gw, types.CreateDisasterRequest{Title: "Flood A", LocationName: "Downtown"})
	if err != nil || d.ID != "x1" {
		t.Fatalf("CreateDisaster unexpected: %+v %v", d, err)
	}
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	t.Parallel()
	c := &countingCaller{}
	ctx := context.Background()
	if _, err := CreateDisaster(ctx, c, types.CreateDisasterRequest{}); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := DeleteDisaster(ctx, c, ""); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ListSocialMedia(ctx, c, ""); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ListResources(ctx, c, "d1", types.ResourceQuery{}); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ListOfficialUpdates(ctx, c, " "); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Geocode(ctx, c, types.GeocodeRequest{}); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := VerifyImage(ctx, c, "d1", "::bad"); !apierrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c.calls != 0 {
		t.Fatalf("validation failures reached the network %d times", c.calls)
	}
}

func TestListResources_EncodesQuery(t *testing.T) {
	t.Parallel()
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/disasters/d1/resources" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("lat") != "40.7128" || q.Get("lon") != "-74.006" || q.Get("radius") != "10000" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"name":"Shelter","location_name":"Lower East Side","type":"shelter"}]`))
	})
	defer done()
	got, err := ListResources(context.Background(), gw, "d1", types.ResourceQuery{Lat: 40.7128, Lon: -74.006, Radius: 10000})
	if err != nil || len(got) != 1 || got[0].Type != "shelter" {
		t.Fatalf("ListResources unexpected: %+v %v", got, err)
	}
}

func TestFeeds_Paths(t *testing.T) {
	t.Parallel()
	seen := make(chan string, 2)
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	})
	defer done()
	if _, err := ListSocialMedia(context.Background(), gw, "d1"); err != nil {
		t.Fatalf("ListSocialMedia: %v", err)
	}
	if _, err := ListOfficialUpdates(context.Background(), gw, "d1"); err != nil {
		t.Fatalf("ListOfficialUpdates: %v", err)
	}
	if p := <-seen; p != "/api/disasters/d1/social-media" {
		t.Fatalf("unexpected path %s", p)
	}
	if p := <-seen; p != "/api/disasters/d1/official-updates" {
		t.Fatalf("unexpected path %s", p)
	}
}

func TestDeleteDisaster_NoContent(t *testing.T) {
	t.Parallel()
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	defer done()
	if err := DeleteDisaster(context.Background(), gw, "d1"); err != nil {
		t.Fatalf("DeleteDisaster error: %v", err)
	}
}

func TestGeocodeAndVerifyImage(t *testing.T) {
	t.Parallel()
	gw, done := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/geocode":
			_, _ = w.Write([]byte(`{"location_name":"Manhattan, NYC","coordinates":{"lat":40.78,"lng":-73.97},"formatted_address":"Manhattan, New York"}`))
		case "/api/disasters/d1/verify-image":
			_, _ = w.Write([]byte(`{"status":"authentic","analysis":"no manipulation","confidence":0.9}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer done()
	g, err := Geocode(context.Background(), gw, types.GeocodeRequest{Description: "Flooding in Manhattan"})
	if err != nil || g.Coordinates == nil || g.Coordinates.Lng != -73.97 {
		t.Fatalf("Geocode unexpected: %+v %v", g, err)
	}
	v, err := VerifyImage(context.Background(), gw, "d1", "https://example.com/a.jpg")
	if err != nil || v.Status != "authentic" || v.Raw["confidence"] != 0.9 {
		t.Fatalf("VerifyImage unexpected: %+v %v", v, err)
	}
}
