// Package testserver is an in-process stand-in for the disaster API used by
// tests: REST routes on gorilla/mux plus a Socket.IO speaking WebSocket
// endpoint that tests drive with Emit.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/disasterwatch/client/internal/types"
)

// Admin may delete any disaster.
const Admin = "netrunnerX"

type failure struct {
	status int
	body   string
	times  int // <0 means until cleared
}

// Server is a fake API. All setters are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	disasters []types.Disaster
	social    map[string][]types.SocialMediaPost
	resources map[string][]types.Resource
	updates   map[string][]types.OfficialUpdate
	geocode   types.GeocodeResult
	calls     map[string]int
	failures  map[string]*failure
	holds     map[string]chan struct{}
	lastQuery map[string]string
	lastUser  string
	nextID    int

	sockMu  sync.Mutex
	sockets map[*websocket.Conn]*sync.Mutex
}

// New starts a server. Callers must Close it.
func New() *Server {
	s := &Server{
		social:    make(map[string][]types.SocialMediaPost),
		resources: make(map[string][]types.Resource),
		updates:   make(map[string][]types.OfficialUpdate),
		calls:     make(map[string]int),
		failures:  make(map[string]*failure),
		holds:     make(map[string]chan struct{}),
		lastQuery: make(map[string]string),
		sockets:   make(map[*websocket.Conn]*sync.Mutex),
		geocode: types.GeocodeResult{
			LocationName:     "Manhattan, NYC",
			Coordinates:      &types.Coordinates{Lat: 40.7831, Lng: -73.9712},
			FormattedAddress: "Manhattan, New York, NY, USA",
		},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// Close releases held requests, drops sockets and stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	for k, ch := range s.holds {
		close(ch)
		delete(s.holds, k)
	}
	s.mu.Unlock()
	s.DropSockets()
	s.Server.Close()
}

// APIURL is the REST base URL.
func (s *Server) APIURL() string { return s.URL + "/api" }

// PushURL is the Socket.IO WebSocket URL.
func (s *Server) PushURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/socket.io/?EIO=4&transport=websocket"
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/socket.io/", s.handleSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.middleware)
	api.HandleFunc("/disasters", s.listDisasters).Methods(http.MethodGet)
	api.HandleFunc("/disasters", s.createDisaster).Methods(http.MethodPost)
	api.HandleFunc("/disasters/{id}", s.deleteDisaster).Methods(http.MethodDelete)
	api.HandleFunc("/disasters/{id}/social-media", s.listSocial).Methods(http.MethodGet)
	api.HandleFunc("/disasters/{id}/resources", s.listResources).Methods(http.MethodGet)
	api.HandleFunc("/disasters/{id}/official-updates", s.listUpdates).Methods(http.MethodGet)
	api.HandleFunc("/disasters/{id}/verify-image", s.verifyImage).Methods(http.MethodPost)
	api.HandleFunc("/geocode", s.handleGeocode).Methods(http.MethodPost)
	return r
}

func routeKey(method, path string) string { return method + " " + path }

// middleware counts calls, applies holds and injected failures.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, strings.TrimPrefix(r.URL.Path, "/api"))

		s.mu.Lock()
		s.calls[key]++
		s.lastUser = r.Header.Get("x-user-id")
		s.lastQuery[key] = r.URL.RawQuery
		hold := s.holds[key]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f := s.failures[key]
		if f != nil {
			if f.times > 0 {
				f.times--
				if f.times == 0 {
					delete(s.failures, key)
				}
			}
		}
		s.mu.Unlock()
		if f != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---- controls ----

// Calls returns how many requests hit method+path (path without /api).
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, path)]
}

// LastQuery returns the raw query of the last request to method+path.
func (s *Server) LastQuery(method, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[routeKey(method, path)]
}

// LastUser returns the identity header of the last request.
func (s *Server) LastUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUser
}

// Fail makes the next n requests to method+path answer status with an error
// body. n <= 0 fails until Recover.
func (s *Server) Fail(method, path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := n
	if n <= 0 {
		times = -1
	}
	s.failures[routeKey(method, path)] = &failure{
		status: status,
		body:   fmt.Sprintf(`{"error":%q}`, http.StatusText(status)),
		times:  times,
	}
}

// Recover clears an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	delete(s.failures, routeKey(method, path))
	s.mu.Unlock()
}

// Hold blocks requests to method+path until the returned func is called.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[routeKey(method, path)] = ch
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.holds[routeKey(method, path)] == ch {
			delete(s.holds, routeKey(method, path))
			close(ch)
		}
	}
}

// SetDisasters replaces the disaster list.
func (s *Server) SetDisasters(ds ...types.Disaster) {
	s.mu.Lock()
	s.disasters = append([]types.Disaster(nil), ds...)
	s.mu.Unlock()
}

// RemoveDisaster deletes a disaster as another client would.
func (s *Server) RemoveDisaster(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// SetSocialMedia replaces a disaster's social feed.
func (s *Server) SetSocialMedia(id string, posts ...types.SocialMediaPost) {
	s.mu.Lock()
	s.social[id] = posts
	s.mu.Unlock()
}

// SetResources replaces a disaster's resources.
func (s *Server) SetResources(id string, rs ...types.Resource) {
	s.mu.Lock()
	s.resources[id] = rs
	s.mu.Unlock()
}

// SetOfficialUpdates replaces a disaster's official updates.
func (s *Server) SetOfficialUpdates(id string, us ...types.OfficialUpdate) {
	s.mu.Lock()
	s.updates[id] = us
	s.mu.Unlock()
}

// ---- handlers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) listDisasters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]types.Disaster{}, s.disasters...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createDisaster(w http.ResponseWriter, r *http.Request) {
	var in types.CreateDisasterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	s.nextID++
	d := types.Disaster{
		ID:           fmt.Sprintf("x%d", s.nextID),
		Title:        in.Title,
		LocationName: in.LocationName,
		Description:  in.Description,
		Tags:         in.Tags,
		OwnerID:      r.Header.Get("x-user-id"),
		CreatedAt:    strfmt.DateTime(time.Now().UTC()),
	}
	s.disasters = append([]types.Disaster{d}, s.disasters...)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) deleteDisaster(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user := r.Header.Get("x-user-id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.disasters {
		if d.ID != id {
			continue
		}
		if d.OwnerID != user && user != Admin {
			writeError(w, http.StatusForbidden, "not allowed")
			return
		}
		s.removeLocked(id)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeError(w, http.StatusNotFound, "disaster not found")
}

func (s *Server) removeLocked(id string) {
	out := s.disasters[:0]
	for _, d := range s.disasters {
		if d.ID != id {
			out = append(out, d)
		}
	}
	s.disasters = out
	delete(s.social, id)
	delete(s.resources, id)
	delete(s.updates, id)
}

func (s *Server) listSocial(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]types.SocialMediaPost{}, s.social[mux.Vars(r)["id"]]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	s.mu.Lock()
	out := append([]types.Resource{}, s.resources[mux.Vars(r)["id"]]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listUpdates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]types.OfficialUpdate{}, s.updates[mux.Vars(r)["id"]]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) verifyImage(w http.ResponseWriter, r *http.Request) {
	var in types.VerifyImageRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "authentic",
		"analysis":   "no signs of manipulation",
		"confidence": 0.92,
	})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var in types.GeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	out := s.geocode
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
