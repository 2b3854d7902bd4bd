// internal/target/target.go
//
// Target selection for new sessions.
//
// Strategies:
//   - fixed:  one species for everyone (built-in Greninja unless TARGET_NAME says otherwise).
//   - daily:  HMAC(date) index into the roster filtered by the chosen generations.
//   - random: crypto-random pick from the filtered roster.
//
// Every strategy except the built-in default resolves its pick through the
// species lookup; resolved records are cached by name.
package target

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/robalobadob/pokeguess/internal/daily"
	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/pokemon"
	"github.com/robalobadob/pokeguess/internal/roster"
)

const (
	StrategyFixed  = "fixed"
	StrategyDaily  = "daily"
	StrategyRandom = "random"
)

var ErrUnknownStrategy = errors.New("unknown target strategy")

// Picker chooses the target for a new session.
type Picker interface {
	Pick(ctx context.Context, gens []string) (pokemon.Record, error)
}

// Options configure New.
type Options struct {
	Strategy string
	Name     string // fixed strategy only
	Salt     string // daily strategy only
	Roster   *roster.Roster
	Lookup   game.Lookup
	Clock    clockwork.Clock
}

func New(o Options) (Picker, error) {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	c := &cache{lookup: o.Lookup, recs: map[string]pokemon.Record{}}

	switch strings.ToLower(o.Strategy) {
	case "", StrategyFixed:
		return &Fixed{name: o.Name, cache: c}, nil
	case StrategyDaily:
		if o.Roster == nil {
			return nil, errors.New("daily target needs a roster")
		}
		return &Daily{roster: o.Roster, salt: o.Salt, clock: o.Clock, cache: c}, nil
	case StrategyRandom:
		if o.Roster == nil {
			return nil, errors.New("random target needs a roster")
		}
		return &Random{roster: o.Roster, cache: c}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, o.Strategy)
}

// cache memoises resolved targets; the same few species are picked all day.
type cache struct {
	lookup game.Lookup
	mu     sync.Mutex
	recs   map[string]pokemon.Record
}

func (c *cache) get(ctx context.Context, name string) (pokemon.Record, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	c.mu.Lock()
	rec, ok := c.recs[key]
	c.mu.Unlock()
	if ok {
		return rec.Clone(), nil
	}
	if c.lookup == nil {
		return pokemon.Record{}, fmt.Errorf("target %q: no lookup configured", name)
	}

	rec, err := c.lookup.Lookup(ctx, name)
	if err != nil {
		return pokemon.Record{}, fmt.Errorf("target %q: %w", name, err)
	}
	if !rec.Resolved() {
		return pokemon.Record{}, fmt.Errorf("target %q: incomplete record", name)
	}
	c.mu.Lock()
	c.recs[key] = rec
	c.mu.Unlock()
	return rec.Clone(), nil
}

// Fixed always returns the same species regardless of generations.
type Fixed struct {
	name  string
	cache *cache
}

func (f *Fixed) Pick(ctx context.Context, _ []string) (pokemon.Record, error) {
	if f.name == "" || strings.EqualFold(strings.TrimSpace(f.name), "greninja") {
		return pokemon.Greninja(), nil
	}
	return f.cache.get(ctx, f.name)
}

// Daily gives every player the same species for a given UTC day and generation set.
type Daily struct {
	roster *roster.Roster
	salt   string
	clock  clockwork.Clock
	cache  *cache
}

func (d *Daily) Pick(ctx context.Context, gens []string) (pokemon.Record, error) {
	pool := d.roster.Filter(gens)
	if len(pool) == 0 {
		return pokemon.Record{}, roster.ErrEmpty
	}
	i := daily.Index(d.clock.Now(), d.salt, scope(gens), len(pool))
	return d.cache.get(ctx, pool[i].Name)
}

// scope is the order-independent key of a generation set.
func scope(gens []string) string {
	s := append([]string(nil), gens...)
	sort.Strings(s)
	return strings.Join(s, ",")
}

// Random picks independently for each session.
type Random struct {
	roster *roster.Roster
	cache  *cache
}

func (r *Random) Pick(ctx context.Context, gens []string) (pokemon.Record, error) {
	e, err := r.roster.Random(gens)
	if err != nil {
		return pokemon.Record{}, err
	}
	return r.cache.get(ctx, e.Name)
}
