package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Engine.IO v4 packet types (first byte of every text frame).
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO packet types (second byte of an Engine.IO message).
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// ErrServerDisconnect is returned when the server closes the session.
var ErrServerDisconnect = errors.New("socketio: server disconnected")

type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// SocketIO speaks the Socket.IO protocol (default namespace) over a plain
// WebSocket connection.
type SocketIO struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
	Log    zerolog.Logger
}

// NewSocketIO returns a transport for a ws:// or wss:// Socket.IO endpoint
// such as ws://host/socket.io/?EIO=4&transport=websocket.
func NewSocketIO(url string, log zerolog.Logger) *SocketIO {
	return &SocketIO{URL: url, Dialer: websocket.DefaultDialer, Log: log}
}

// Name implements Transport.
func (s *SocketIO) Name() string { return "socketio" }

// Stream implements Transport.
func (s *SocketIO) Stream(ctx context.Context, connected func(), deliver func(Event)) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		return fmt.Errorf("socketio: dial: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	// Until the open packet tells us the heartbeat, assume the server defaults.
	idle := 45 * time.Second
	for {
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("socketio: read: %w", err)
		}
		if mt != websocket.TextMessage || len(data) == 0 {
			continue
		}

		switch data[0] {
		case eioOpen:
			var op openPacket
			if err := json.Unmarshal(data[1:], &op); err != nil {
				return fmt.Errorf("socketio: bad open packet: %w", err)
			}
			if op.PingInterval > 0 {
				idle = time.Duration(op.PingInterval+op.PingTimeout) * time.Millisecond
			}
			s.Log.Debug().Str("sid", op.SID).Dur("idle", idle).Msg("socketio: engine open")
			if err := conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioConnect}); err != nil {
				return fmt.Errorf("socketio: connect: %w", err)
			}
		case eioPing:
			if err := conn.WriteMessage(websocket.TextMessage, []byte{eioPong}); err != nil {
				return fmt.Errorf("socketio: pong: %w", err)
			}
		case eioClose:
			return ErrServerDisconnect
		case eioNoop, eioPong:
		case eioMessage:
			if len(data) < 2 {
				continue
			}
			switch data[1] {
			case sioConnect:
				connected()
			case sioDisconnect:
				return ErrServerDisconnect
			case sioConnectError:
				return fmt.Errorf("socketio: connect refused: %s", strings.TrimSpace(string(data[2:])))
			case sioEvent:
				ev, ok := decodeEvent(data[2:])
				if !ok {
					s.Log.Debug().Bytes("frame", data).Msg("socketio: undecodable event")
					continue
				}
				deliver(ev)
			}
		}
	}
}

// decodeEvent parses the body of a Socket.IO EVENT packet: an optional
// namespace ("/ns,"), an optional ack id, then ["name", payload...].
func decodeEvent(body []byte) (Event, bool) {
	if len(body) > 0 && body[0] == '/' {
		i := strings.IndexByte(string(body), ',')
		if i < 0 {
			return Event{}, false
		}
		body = body[i+1:]
	}
	for len(body) > 0 && body[0] >= '0' && body[0] <= '9' {
		body = body[1:]
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil || len(parts) == 0 {
		return Event{}, false
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Event{}, false
	}
	ev := Event{Name: name}
	if len(parts) > 1 {
		ev.Payload = parts[1]
	}
	return ev, true
}

// EncodeEvent renders an EVENT packet for the default namespace.
func EncodeEvent(name string, payload any) ([]byte, error) {
	b, err := json.Marshal([]any{name, payload})
	if err != nil {
		return nil, err
	}
	return append([]byte{eioMessage, sioEvent}, b...), nil
}
