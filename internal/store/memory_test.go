package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/pokemon"
)

type noLookup struct{}

func (noLookup) Lookup(context.Context, string) (pokemon.Record, error) {
	return pokemon.Record{}, errors.New("offline")
}

func newSession(id string, clock clockwork.Clock) *game.Session {
	return game.NewSession(id, "anon:x", pokemon.Greninja(), noLookup{}, game.Options{Clock: clock})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession("a", clockwork.NewFakeClock())

	if _, err := st.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "a")
	if err != nil || got != s {
		t.Fatalf("Get = %p, %v", got, err)
	}
	if err := st.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if !s.Closed() {
		t.Error("deleted session should be closed")
	}
	if err := st.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestSaveReplacesAndClosesOld(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	clock := clockwork.NewFakeClock()
	old, repl := newSession("a", clock), newSession("a", clock)
	st.Save(ctx, old)
	st.Save(ctx, repl)
	if !old.Closed() || repl.Closed() {
		t.Fatalf("old closed=%v, replacement closed=%v", old.Closed(), repl.Closed())
	}
	if st.Len() != 1 {
		t.Fatalf("len = %d", st.Len())
	}
}

func TestReap(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	clock := clockwork.NewFakeClock()

	idle := newSession("idle", clock)
	st.Save(ctx, idle)
	clock.Advance(10 * time.Minute)
	fresh := newSession("fresh", clock)
	st.Save(ctx, fresh)
	closed := newSession("closed", clock)
	closed.Close()
	st.Save(ctx, closed)

	n := st.Reap(ctx, clock.Now().Add(-5*time.Minute))
	if n != 2 {
		t.Fatalf("reaped %d, want 2", n)
	}
	if !idle.Closed() || fresh.Closed() {
		t.Fatalf("idle closed=%v fresh closed=%v", idle.Closed(), fresh.Closed())
	}
	if _, err := st.Get(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
}

func TestReaperRemovesIdleSessions(t *testing.T) {
	st := NewMemoryStore()
	s := newSession("a", clockwork.NewRealClock())
	st.Save(context.Background(), s)

	r, err := StartReaper(st, time.Millisecond, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for st.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("reaper never removed the idle session")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !s.Closed() {
		t.Fatal("reaped session should be closed")
	}
}
