// internal/roster/roster.go
//
// Species roster used for autocomplete and for picking daily/random targets.
//
// Sources (Load):
//   1. ROSTER_FILE (path argument) when set: one "<id> <name>" per line.
//   2. Otherwise the small embedded default from assets/roster.txt.
//
// Names are provider slugs ("tapu-koko"); Display holds the title-cased form.
// A Roster is immutable after Load and safe for concurrent use.

package roster

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/robalobadob/pokeguess/assets"
	"github.com/robalobadob/pokeguess/internal/pokemon"
)

var ErrEmpty = errors.New("roster: no species match")

// Entry is one roster line.
type Entry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Region  string `json:"region"`
}

type Roster struct {
	entries []Entry          // dex order
	byName  map[string]Entry // slug → entry
}

// Load reads the roster from path, or the embedded default when path is empty.
func Load(path string) (*Roster, error) {
	var (
		lines []string
		err   error
	)
	if path == "" {
		lines, err = assets.RosterLines()
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("roster: %w", err)
		}
		defer f.Close()
		lines, err = assets.ReadLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return FromLines(lines)
}

// FromLines parses "<id> <name>" lines. Duplicate names keep the first id.
func FromLines(lines []string) (*Roster, error) {
	r := &Roster{byName: make(map[string]Entry, len(lines))}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("roster: line %d: want \"<id> <name>\", got %q", i+1, line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("roster: line %d: bad id %q", i+1, fields[0])
		}
		name := pokemon.Slug(fields[1])
		if name == "" {
			return nil, fmt.Errorf("roster: line %d: bad name %q", i+1, fields[1])
		}
		if _, dup := r.byName[name]; dup {
			continue
		}
		e := Entry{ID: id, Name: name, Display: pokemon.DisplayName(name), Region: pokemon.RegionFromID(id)}
		r.entries = append(r.entries, e)
		r.byName[name] = e
	}
	if len(r.entries) == 0 {
		return nil, ErrEmpty
	}
	sort.SliceStable(r.entries, func(i, j int) bool { return r.entries[i].ID < r.entries[j].ID })
	return r, nil
}

func (r *Roster) Len() int { return len(r.entries) }

// Entries returns a copy in dex order.
func (r *Roster) Entries() []Entry { return append([]Entry(nil), r.entries...) }

// Filter returns entries from the given generations, or all when gens is empty.
// Unknown generation ids are ignored.
func (r *Roster) Filter(gens []string) []Entry {
	if len(gens) == 0 {
		return r.Entries()
	}
	var sel []pokemon.Generation
	for _, id := range gens {
		if g, ok := pokemon.GenerationByID(id); ok {
			sel = append(sel, g)
		}
	}
	var out []Entry
	for _, e := range r.entries {
		for _, g := range sel {
			if g.Contains(e.ID) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Suggest returns up to limit entries whose name starts with prefix.
// Matching ignores case, accents and spacing ("Flabébé" finds "flabebe").
func (r *Roster) Suggest(prefix string, limit int) []Entry {
	p := pokemon.Slug(prefix)
	if p == "" || limit <= 0 {
		return []Entry{}
	}
	out := []Entry{}
	for _, e := range r.entries {
		if strings.HasPrefix(e.Name, p) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Random picks a cryptographically random entry from the given generations.
func (r *Roster) Random(gens []string) (Entry, error) {
	pool := r.Filter(gens)
	if len(pool) == 0 {
		return Entry{}, ErrEmpty
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return Entry{}, err
	}
	return pool[n.Int64()], nil
}
