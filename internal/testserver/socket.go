package testserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSocket runs the server half of an Engine.IO v4 / Socket.IO session on
// the default namespace.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wmu := &sync.Mutex{}
	write := func(msg string) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, []byte(msg))
	}
	defer func() {
		s.sockMu.Lock()
		delete(s.sockets, conn)
		s.sockMu.Unlock()
		_ = conn.Close()
	}()

	if err := write(`0{"sid":"test","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`); err != nil {
		return
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch string(data) {
		case "40":
			if err := write(`40{"sid":"test-sio"}`); err != nil {
				return
			}
			s.sockMu.Lock()
			s.sockets[conn] = wmu
			s.sockMu.Unlock()
		case "41":
			return
		}
	}
}

// Sockets returns the number of Socket.IO sessions on the default namespace.
func (s *Server) Sockets() int {
	s.sockMu.Lock()
	defer s.sockMu.Unlock()
	return len(s.sockets)
}

// WaitSockets polls until at least n sessions are connected.
func (s *Server) WaitSockets(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Sockets() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.Sockets() >= n
}

// Emit broadcasts a Socket.IO event with one JSON payload argument.
func (s *Server) Emit(event string, payload any) {
	b, err := json.Marshal([]any{event, payload})
	if err != nil {
		panic(err)
	}
	s.EmitRaw("42" + string(b))
}

// EmitRaw broadcasts a raw frame to every session.
func (s *Server) EmitRaw(frame string) {
	s.sockMu.Lock()
	defer s.sockMu.Unlock()
	for conn, wmu := range s.sockets {
		wmu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		wmu.Unlock()
	}
}

// DropSockets closes every session from the server side.
func (s *Server) DropSockets() {
	s.sockMu.Lock()
	defer s.sockMu.Unlock()
	for conn := range s.sockets {
		_ = conn.Close()
		delete(s.sockets, conn)
	}
}
