package httpserver

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/pokemon"
)

func TestSuggestDoesNotTouchSessions(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)
	snap := newGame(t, c, casualSetup())

	res, body := c.do(http.MethodGet, "/pokemon/Samurott", nil)
	expectStatus(t, res, body, http.StatusOK)
	if rec := decode[pokemon.Record](t, body); rec.Name != "Samurott" || rec.Region != "Unova" {
		t.Fatalf("record = %+v", rec)
	}

	res, body = c.do(http.MethodGet, "/pokemon/missingno", nil)
	expectStatus(t, res, body, http.StatusNotFound)

	res, body = c.do(http.MethodGet, "/game/"+snap.ID, nil)
	expectStatus(t, res, body, http.StatusOK)
	if got := decode[game.Snapshot](t, body); got.Attempts != 0 {
		t.Fatalf("suggestion counted as attempt: %+v", got)
	}
}

func TestAutocomplete(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)

	res, body := c.do(http.MethodGet, "/pokemon?prefix=PIKA", nil)
	expectStatus(t, res, body, http.StatusOK)
	ac := decode[autocompleteRes](t, body)
	if len(ac.Results) != 1 || ac.Results[0].Name != "pikachu" || ac.Results[0].Region != "Kanto" {
		t.Fatalf("results = %+v", ac.Results)
	}

	res, body = c.do(http.MethodGet, "/pokemon?prefix=", nil)
	expectStatus(t, res, body, http.StatusOK)
	if ac := decode[autocompleteRes](t, body); ac.Results == nil || len(ac.Results) != 0 {
		t.Fatalf("empty prefix = %+v", ac)
	}

	res, body = c.do(http.MethodGet, "/pokemon?prefix=a&limit=2", nil)
	expectStatus(t, res, body, http.StatusOK)
	if ac := decode[autocompleteRes](t, body); len(ac.Results) > 2 {
		t.Fatalf("limit ignored: %d results", len(ac.Results))
	}

	res, body = c.do(http.MethodGet, "/pokemon?prefix=a&limit=zero", nil)
	expectStatus(t, res, body, http.StatusBadRequest)
}

func TestShareQR(t *testing.T) {
	e := newTestEnv(t)
	c := e.newClient(t)

	res, body := c.do(http.MethodGet, "/share/qr?mode=casual&difficulty=easy&generations=gen1,gen2", nil)
	expectStatus(t, res, body, http.StatusOK)
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q", ct)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatal("body is not a PNG")
	}
	want := "http://localhost:3000/game?difficulty=easy&generations=gen1%2Cgen2&mode=casual"
	if got := res.Header.Get("X-Share-Link"); got != want {
		t.Fatalf("link = %q, want %q", got, want)
	}

	for _, q := range []string{
		"mode=casual",
		"mode=competitive&size=9000",
		"mode=casual&difficulty=easy&generations=gen0",
	} {
		res, body := c.do(http.MethodGet, "/share/qr?"+q, nil)
		expectStatus(t, res, body, http.StatusBadRequest)
	}
}
