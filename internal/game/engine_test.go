package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

var errUnknown = errors.New("unknown species")

// fakeLookup resolves from a fixed map. When gate is set, each call signals
// entered and then waits for gate or cancellation.
type fakeLookup struct {
	records map[string]pokemon.Record
	calls   int
	entered chan struct{}
	gate    chan struct{}
}

func newFakeLookup(recs ...pokemon.Record) *fakeLookup {
	m := make(map[string]pokemon.Record, len(recs))
	for _, r := range recs {
		m[strings.ToLower(r.Name)] = r
	}
	return &fakeLookup{records: m}
}

func (f *fakeLookup) Lookup(ctx context.Context, name string) (pokemon.Record, error) {
	f.calls++
	if f.gate != nil {
		f.entered <- struct{}{}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return pokemon.Record{}, ctx.Err()
		}
	}
	r, ok := f.records[strings.ToLower(name)]
	if !ok {
		return pokemon.Record{}, errUnknown
	}
	return r.Clone(), nil
}

type fakePrefetcher struct{ got chan int }

func (p *fakePrefetcher) Prefetch(_ context.Context, rec pokemon.Record) error {
	p.got <- rec.ID
	return nil
}

func newTestSession(t *testing.T, lookup Lookup, opts Options) *Session {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClock()
	}
	s := NewSession("g1", "anon:test", pokemon.Greninja(), lookup, opts)
	t.Cleanup(s.Close)
	return s
}

func competitive() Setup { return Setup{Mode: ModeCompetitive} }

func casual() Setup {
	return Setup{Mode: ModeCasual, Difficulty: "easy", Generations: []string{"gen1", "gen6"}}
}

func TestStartValidatesSetup(t *testing.T) {
	tests := []struct {
		name  string
		setup Setup
		ok    bool
	}{
		{"competitive bare", Setup{Mode: ModeCompetitive}, true},
		{"casual full", casual(), true},
		{"casual missing difficulty", Setup{Mode: ModeCasual, Generations: []string{"gen1"}}, false},
		{"casual missing generations", Setup{Mode: ModeCasual, Difficulty: "hard"}, false},
		{"unknown mode", Setup{Mode: "ranked"}, false},
		{"unknown generation", Setup{Mode: ModeCasual, Difficulty: "easy", Generations: []string{"gen10"}}, false},
		{"unknown difficulty", Setup{Mode: ModeCasual, Difficulty: "insane", Generations: []string{"gen1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, newFakeLookup(), Options{})
			err := s.Start(tt.setup)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSetup) {
				t.Fatalf("err = %v, want ErrInvalidSetup", err)
			}
		})
	}
}

func TestStartTwice(t *testing.T) {
	s := newTestSession(t, newFakeLookup(), Options{})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(casual()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("err = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartInitialState(t *testing.T) {
	s := newTestSession(t, newFakeLookup(), Options{Lives: 3, Seconds: 300})
	if st := s.Snapshot(); st.Status != StatusNotStarted {
		t.Fatalf("status = %s", st.Status)
	}
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.Status != StatusInProgress || st.Attempts != 0 || len(st.History) != 0 {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Lives == nil || *st.Lives != 3 || st.TimeLeft == nil || *st.TimeLeft != 300 {
		t.Fatalf("lives/timeLeft = %v/%v", st.Lives, st.TimeLeft)
	}
	if st.Target != nil {
		t.Error("target must stay hidden while in progress")
	}
}

func TestGuessCountsAttemptsAndLives(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup(samurott())
	s := newTestSession(t, lookup, Options{Lives: 5})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}

	out, err := s.SubmitGuess(ctx, "Samurott")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Resolved || out.Entry == nil || out.Entry.Pokemon.Name != "Samurott" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.State.Attempts != 1 || *out.State.Lives != 4 {
		t.Fatalf("attempts=%d lives=%d", out.State.Attempts, *out.State.Lives)
	}

	// unknown name: silent miss, still counted
	out, err = s.SubmitGuess(ctx, "Missingno")
	if err != nil {
		t.Fatal(err)
	}
	if out.Resolved || out.Entry != nil {
		t.Fatalf("miss should not resolve: %+v", out)
	}
	if out.State.Attempts != 2 || *out.State.Lives != 3 || len(out.State.History) != 1 {
		t.Fatalf("attempts=%d lives=%d history=%d", out.State.Attempts, *out.State.Lives, len(out.State.History))
	}
}

func TestCasualLivesUnbounded(t *testing.T) {
	s := newTestSession(t, newFakeLookup(samurott()), Options{Lives: 1})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if _, err := s.SubmitGuess(context.Background(), "nope"); err != nil {
			t.Fatal(err)
		}
	}
	st := s.Snapshot()
	if st.Status != StatusInProgress || st.Attempts != 4 {
		t.Fatalf("status=%s attempts=%d", st.Status, st.Attempts)
	}
	if st.Lives != nil || st.TimeLeft != nil {
		t.Error("casual mode should not track lives or time")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	pika := pokemon.Record{ID: 25, Name: "Pikachu", Region: "Kanto", Types: []string{"Electric"}}
	s := newTestSession(t, newFakeLookup(samurott(), pika), Options{})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	s.SubmitGuess(context.Background(), "samurott")
	out, _ := s.SubmitGuess(context.Background(), "pikachu")
	if len(out.State.History) != 2 || out.State.History[0].Pokemon.Name != "Pikachu" {
		t.Fatalf("history = %+v", out.State.History)
	}
}

func TestEmptyGuessChangesNothing(t *testing.T) {
	lookup := newFakeLookup()
	s := newTestSession(t, lookup, Options{})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := s.SubmitGuess(context.Background(), name); !errors.Is(err, ErrEmptyGuess) {
			t.Fatalf("%q: err = %v", name, err)
		}
	}
	st := s.Snapshot()
	if st.Attempts != 0 || *st.Lives != DefaultLives || lookup.calls != 0 {
		t.Fatalf("attempts=%d lives=%d calls=%d", st.Attempts, *st.Lives, lookup.calls)
	}
}

func TestGuessBeforeStart(t *testing.T) {
	s := newTestSession(t, newFakeLookup(), Options{})
	if _, err := s.SubmitGuess(context.Background(), "greninja"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("err = %v", err)
	}
}

func TestWinEndsSession(t *testing.T) {
	var events []Event
	s := newTestSession(t, newFakeLookup(pokemon.Greninja()), Options{
		Notify: func(ev Event) { events = append(events, ev) },
	})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	out, err := s.SubmitGuess(context.Background(), "GRENINJA")
	if err != nil {
		t.Fatal(err)
	}
	if out.State.Status != StatusEnded || out.State.Outcome != OutcomeWon {
		t.Fatalf("status=%s outcome=%s", out.State.Status, out.State.Outcome)
	}
	if out.State.Target == nil || out.State.Target.Name != "Greninja" {
		t.Error("target should be revealed once ended")
	}
	if len(events) != 2 || events[0].Type != EventGuess || events[1].Type != EventEnded {
		t.Fatalf("events = %+v", events)
	}
	if _, err := s.SubmitGuess(context.Background(), "greninja"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("guess after end: err = %v", err)
	}
}

func TestOutOfLives(t *testing.T) {
	s := newTestSession(t, newFakeLookup(samurott()), Options{Lives: 2})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	s.SubmitGuess(context.Background(), "samurott")
	out, err := s.SubmitGuess(context.Background(), "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if out.State.Status != StatusEnded || out.State.Outcome != OutcomeOutOfLives || *out.State.Lives != 0 {
		t.Fatalf("state = %+v", out.State)
	}
}

func TestCorrectFinalGuessWins(t *testing.T) {
	s := newTestSession(t, newFakeLookup(pokemon.Greninja()), Options{Lives: 1})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	out, _ := s.SubmitGuess(context.Background(), "greninja")
	if out.State.Outcome != OutcomeWon {
		t.Fatalf("outcome = %s, want won", out.State.Outcome)
	}
}

func TestTickCountsDownToTimeout(t *testing.T) {
	s := newTestSession(t, newFakeLookup(), Options{Seconds: 3})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}
	if !s.Tick() || !s.Tick() {
		t.Fatal("countdown stopped early")
	}
	if *s.Snapshot().TimeLeft != 1 {
		t.Fatalf("timeLeft = %d", *s.Snapshot().TimeLeft)
	}
	if s.Tick() {
		t.Fatal("countdown should stop at zero")
	}
	st := s.Snapshot()
	if st.Status != StatusEnded || st.Outcome != OutcomeTimeout || *st.TimeLeft != 0 {
		t.Fatalf("state = %+v", st)
	}
	if s.Tick() || *s.Snapshot().TimeLeft != 0 {
		t.Fatal("tick at zero must be a no-op")
	}
}

func TestTickIgnoredInCasual(t *testing.T) {
	s := newTestSession(t, newFakeLookup(), Options{})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	if s.Tick() {
		t.Fatal("casual sessions have no countdown")
	}
}

func TestClockDrivesCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	events := make(chan Event, 16)
	s := newTestSession(t, newFakeLookup(), Options{
		Seconds: 2,
		Clock:   clock,
		Notify:  func(ev Event) { events <- ev },
	})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}

	// The ticker goroutine may not be registered yet, so keep advancing
	// until the countdown reports the end.
	var got []Event
	deadline := time.After(5 * time.Second)
	for len(got) == 0 || got[len(got)-1].Type != EventEnded {
		clock.Advance(time.Second)
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatalf("countdown did not finish, events = %+v", got)
		}
	}

	if len(got) != 3 {
		t.Fatalf("events = %+v", got)
	}
	for i, want := range []int{1, 0} {
		if got[i].Type != EventTick || *got[i].State.TimeLeft != want {
			t.Fatalf("event %d = %s timeLeft=%d, want tick %d", i, got[i].Type, *got[i].State.TimeLeft, want)
		}
	}
	if got[2].State.Outcome != OutcomeTimeout {
		t.Fatalf("outcome = %s", got[2].State.Outcome)
	}
}

func TestConcurrentGuessRejectedAndCloseDiscards(t *testing.T) {
	lookup := newFakeLookup(samurott())
	lookup.entered = make(chan struct{}, 1)
	lookup.gate = make(chan struct{})

	s := NewSession("g1", "anon:test", pokemon.Greninja(), lookup, Options{Clock: clockwork.NewFakeClock()})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.SubmitGuess(context.Background(), "samurott")
		done <- err
	}()
	<-lookup.entered

	if _, err := s.SubmitGuess(context.Background(), "samurott"); !errors.Is(err, ErrGuessPending) {
		t.Fatalf("second guess err = %v, want ErrGuessPending", err)
	}

	s.Close()
	if err := <-done; !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("in-flight guess err = %v, want ErrSessionClosed", err)
	}
	if n := len(s.Snapshot().History); n != 0 {
		t.Fatalf("history len = %d after close", n)
	}
	if _, err := s.SubmitGuess(context.Background(), "samurott"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestPrefetchOnResolvedGuess(t *testing.T) {
	pf := &fakePrefetcher{got: make(chan int, 1)}
	s := newTestSession(t, newFakeLookup(samurott()), Options{Prefetch: pf})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	s.SubmitGuess(context.Background(), "unknown")
	s.SubmitGuess(context.Background(), "samurott")

	select {
	case id := <-pf.got:
		if id != 503 {
			t.Fatalf("prefetched %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch not triggered")
	}
}

func TestPartialRecordIsDiscarded(t *testing.T) {
	partial := pokemon.Record{ID: 658, Name: "Greninja"} // no types, no region
	var events []Event
	s := newTestSession(t, newFakeLookup(partial), Options{
		Notify: func(ev Event) { events = append(events, ev) },
	})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}

	out, err := s.SubmitGuess(context.Background(), "greninja")
	if err != nil {
		t.Fatal(err)
	}
	if out.Resolved || out.Entry != nil {
		t.Fatalf("partial record was compared: %+v", out)
	}
	st := out.State
	if st.Status != StatusInProgress || len(st.History) != 0 {
		t.Fatalf("status=%s history=%d", st.Status, len(st.History))
	}
	if st.Attempts != 1 || *st.Lives != DefaultLives-1 {
		t.Fatalf("attempts=%d lives=%d", st.Attempts, *st.Lives)
	}
	if len(events) != 1 || events[0].Type != EventGuess || events[0].Resolved {
		t.Fatalf("events = %+v", events)
	}
}

func TestCloseEmitsClosedOnce(t *testing.T) {
	var events []Event
	s := NewSession("g1", "anon:test", pokemon.Greninja(), newFakeLookup(), Options{
		Clock:  clockwork.NewFakeClock(),
		Notify: func(ev Event) { events = append(events, ev) },
	})
	if err := s.Start(casual()); err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Close()
	if len(events) != 1 || events[0].Type != EventClosed || events[0].State.ID != "g1" {
		t.Fatalf("events = %+v", events)
	}
	if s.Tick() {
		t.Fatal("closed session ticked")
	}
}

func TestEventsFollowStateOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var (
		mu   sync.Mutex
		seen []Event
	)
	lookup := newFakeLookup(samurott())
	s := newTestSession(t, lookup, Options{
		Clock: clock,
		Notify: func(ev Event) {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
		},
	})
	if err := s.Start(competitive()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); s.Tick() }()
		go func() { defer wg.Done(); s.SubmitGuess(context.Background(), "samurott") }()
	}
	wg.Wait()

	// timeLeft never goes back up and attempts never go down
	mu.Lock()
	defer mu.Unlock()
	left, attempts := DefaultSeconds, 0
	for _, ev := range seen {
		if ev.State.TimeLeft != nil && *ev.State.TimeLeft > left {
			t.Fatalf("timeLeft went from %d to %d", left, *ev.State.TimeLeft)
		}
		if ev.State.Attempts < attempts {
			t.Fatalf("attempts went from %d to %d", attempts, ev.State.Attempts)
		}
		if ev.State.TimeLeft != nil {
			left = *ev.State.TimeLeft
		}
		attempts = ev.State.Attempts
	}
}
