package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/pokeguess/internal/game"
)

// dialFeed opens the live feed with the client's cookies.
func dialFeed(t *testing.T, e *testEnv, c *client, id string) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(e.ts.URL)
	hdr := http.Header{}
	for _, ck := range c.http.Jar.Cookies(u) {
		hdr.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/game/" + id + "/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	if err != nil {
		status := 0
		if res != nil {
			status = res.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type feedFrame struct {
	Type     string        `json:"type"`
	Resolved bool          `json:"resolved"`
	Error    string        `json:"error"`
	State    game.Snapshot `json:"state"`
}

func readFrame(t *testing.T, conn *websocket.Conn) feedFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f feedFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return f
}

func TestGameFeed(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)
	snap := newGame(t, c, casualSetup())

	conn := dialFeed(t, e, c, snap.ID)
	if f := readFrame(t, conn); f.Type != "state" || f.State.ID != snap.ID {
		t.Fatalf("first frame = %+v", f)
	}

	// a guess over HTTP reaches the feed
	guess(t, c, snap.ID, "samurott")
	if f := readFrame(t, conn); f.Type != string(game.EventGuess) || !f.Resolved || f.State.Attempts != 1 {
		t.Fatalf("guess frame = %+v", f)
	}

	// errors come back only to the sender
	if err := conn.WriteJSON(feedMessage{Type: "guess", Name: " "}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != "error" || f.Error != "Enter a Pokémon name" {
		t.Fatalf("error frame = %+v", f)
	}

	// guesses over the socket
	if err := conn.WriteJSON(feedMessage{Type: "guess", Name: "Greninja"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != string(game.EventGuess) || f.State.Attempts != 2 {
		t.Fatalf("guess frame = %+v", f)
	}
	if f := readFrame(t, conn); f.Type != string(game.EventEnded) || f.State.Outcome != game.OutcomeWon {
		t.Fatalf("ended frame = %+v", f)
	}
}

func TestGameFeedTicks(t *testing.T) {
	e := newTestEnv(t)
	c := signedIn(t, e, "ash")
	snap := newGame(t, c, game.Setup{Mode: game.ModeCompetitive})

	conn := dialFeed(t, e, c, snap.ID)
	readFrame(t, conn) // state

	// the countdown goroutine may not hold its ticker yet; advance until it ticks
	sess, err := e.sessions.Get(context.Background(), snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for *sess.Snapshot().TimeLeft == 300 {
		if time.Now().After(deadline) {
			t.Fatal("countdown never ticked")
		}
		e.clock.Advance(time.Second)
		time.Sleep(10 * time.Millisecond)
	}
	f := readFrame(t, conn)
	if f.Type != string(game.EventTick) || f.State.TimeLeft == nil || *f.State.TimeLeft != 299 {
		t.Fatalf("tick frame = %+v", f)
	}
}

func TestGameFeedClosedOnDelete(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)
	snap := newGame(t, c, casualSetup())

	conn := dialFeed(t, e, c, snap.ID)
	readFrame(t, conn)

	res, body := c.do(http.MethodDelete, "/game/"+snap.ID, nil)
	expectStatus(t, res, body, http.StatusNoContent)
	if n := e.srv.Broker().Subscribers(snap.ID); n != 0 {
		t.Fatalf("subscribers = %d after delete", n)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read err = %v, want normal close", err)
	}
}

func TestGameFeedClosedOnReap(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)
	snap := newGame(t, c, casualSetup())

	conn := dialFeed(t, e, c, snap.ID)
	readFrame(t, conn)

	if n := e.sessions.Reap(context.Background(), testNow.Add(time.Hour)); n != 1 {
		t.Fatalf("reaped %d sessions", n)
	}
	if n := e.srv.Broker().Subscribers(snap.ID); n != 0 {
		t.Fatalf("subscribers = %d after reap", n)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read err = %v, want normal close", err)
	}
}

func TestGameFeedRequiresOwner(t *testing.T) {
	e := newTestEnv(t)
	snap := newGame(t, e.newClient(t), casualSetup())

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/game/" + snap.ID + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("stranger connected to the feed")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("response = %+v", res)
	}
}
