// internal/httpserver/routes_ws.go
//
// Live session feed over WebSocket.
//   - First frame is the current state, then tick/guess/ended events.
//   - Clients may send {"type":"guess","name":...}; errors go back only to
//     the sender as {"type":"error"}.
//   - The socket is closed normally with "game discarded" when the session goes away.

package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/game"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
	feedReadLimit  = 1024
)

// feedMessage is what a client may send on the live feed.
type feedMessage struct {
	Type string `json:"type"` // "guess"
	Name string `json:"name,omitempty"`
}

// feedState is the first frame on every connection.
type feedState struct {
	Type  string        `json:"type"` // "state"
	State game.Snapshot `json:"state"`
}

type feedError struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

// handleGameFeed streams tick/guess/ended events for one session. Clients
// may also submit guesses over the socket; the outcome arrives as a normal
// guess event.
func (s *Server) handleGameFeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("websocket upgrade")
		return
	}

	// subscribe before the snapshot so no event falls in between
	events := s.broker.Subscribe(sess.ID)
	defer s.broker.Unsubscribe(sess.ID, events)

	replies := make(chan feedError, 4)
	done := make(chan struct{})
	go feedReadPump(r.Context(), conn, sess, replies, done)
	feedWritePump(conn, sess.Snapshot(), events, replies, done)
}

func feedReadPump(ctx context.Context, conn *websocket.Conn, sess *game.Session, replies chan<- feedError, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		var msg feedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "guess" {
			continue // ignore unknown types
		}
		if _, err := sess.SubmitGuess(ctx, msg.Name); err != nil {
			_, text := gameErrorStatus(err)
			select {
			case replies <- feedError{Type: "error", Error: text}:
			default:
			}
		}
	}
}

func feedWritePump(conn *websocket.Conn, initial game.Snapshot, events <-chan []byte, replies <-chan feedError, done <-chan struct{}) {
	ping := time.NewTicker(feedPingPeriod)
	defer func() {
		ping.Stop()
		_ = conn.Close()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(feedState{Type: "state", State: initial}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case data, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				// session discarded
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game discarded"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case msg := <-replies:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts same-host pages and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
