// internal/pokemon/record.go
//
// Species snapshot types shared by the lookup client, the evaluator and the
// session state manager.
//
// A Record is treated as immutable once built: the session copies it into
// history and never mutates it afterwards.

package pokemon

import "strconv"

// ArtworkBaseURL is where official artwork PNGs live, keyed by species id.
const ArtworkBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/"

// Stats holds the six base stats in the provider's fixed order.
type Stats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"specialAttack"`
	SpecialDefense int `json:"specialDefense"`
	Speed          int `json:"speed"`
}

// Record is one species' attributes at guess time.
type Record struct {
	ID        int      `json:"id,omitempty"`
	Name      string   `json:"name"`
	Types     []string `json:"types"`  // primary, optional secondary
	Region    string   `json:"region"` // derived from ID, see RegionFromID
	Abilities []string `json:"abilities"`
	BaseStats Stats    `json:"baseStats"`
	Height    float64  `json:"height"` // metres
	Weight    float64  `json:"weight"` // kilograms
	Moves     []string `json:"moves"`

	// Presentation only; never compared.
	SpriteURL string `json:"spriteUrl,omitempty"`
	Habitat   string `json:"habitat,omitempty"`
	Color     string `json:"color,omitempty"`
}

// PrimaryType returns the first type, or "" if none.
func (r Record) PrimaryType() string { return r.typeAt(0) }

// SecondaryType returns the second type, or "" for single-typed species.
func (r Record) SecondaryType() string { return r.typeAt(1) }

func (r Record) typeAt(i int) string {
	if i < len(r.Types) {
		return r.Types[i]
	}
	return ""
}

// Resolved reports whether every field the evaluator reads is populated.
func (r Record) Resolved() bool {
	return r.Name != "" && r.Region != "" && r.PrimaryType() != ""
}

// Clone returns a deep copy so callers can hand records out without sharing slices.
func (r Record) Clone() Record {
	out := r
	out.Types = append([]string(nil), r.Types...)
	out.Abilities = append([]string(nil), r.Abilities...)
	out.Moves = append([]string(nil), r.Moves...)
	return out
}

// ArtworkURL returns the official artwork URL for a species id.
func ArtworkURL(id int) string {
	return ArtworkBaseURL + strconv.Itoa(id) + ".png"
}

// Greninja is the built-in default target.
func Greninja() Record {
	return Record{
		ID:        658,
		Name:      "Greninja",
		Types:     []string{"Water", "Dark"},
		Region:    "Kalos",
		Abilities: []string{"Torrent", "Protean", "Battle Bond"},
		BaseStats: Stats{HP: 72, Attack: 95, Defense: 67, SpecialAttack: 103, SpecialDefense: 71, Speed: 122},
		Height:    1.5,
		Weight:    40.0,
		Moves:     []string{"Water Shuriken", "Dark Pulse", "Ice Beam", "Night Slash"},
		SpriteURL: ArtworkURL(658),
	}
}
