// internal/pokeapi/client.go
//
// HTTP client for the public species-data API (https://pokeapi.co).
//
// A guess resolves with two sequential requests:
//   1. GET {base}/pokemon/{slug}   → id, types, abilities, stats, size, moves
//   2. GET {species.url}           → habitat, color
// Both must succeed; there is no retry.
//
// 404 on the first request maps to ErrNotFound so callers can tell an unknown
// name apart from a transport failure.

package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	DefaultTimeout = 10 * time.Second

	// Only the first few moves are kept for display.
	maxMoves = 4
)

var ErrNotFound = errors.New("species not found")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// wire shapes (only the fields we read)

type namedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type pokemonDoc struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int      `json:"slot"`
		Type namedRef `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability namedRef `json:"ability"`
		Slot    int      `json:"slot"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int      `json:"base_stat"`
		Stat     namedRef `json:"stat"`
	} `json:"stats"`
	Height int `json:"height"` // decimetres
	Weight int `json:"weight"` // hectograms
	Moves  []struct {
		Move namedRef `json:"move"`
	} `json:"moves"`
	Species namedRef `json:"species"`
}

type speciesDoc struct {
	Habitat *namedRef `json:"habitat"`
	Color   *namedRef `json:"color"`
}

// Lookup resolves a species name (any case, spaces allowed) into a record.
func (c *Client) Lookup(ctx context.Context, name string) (pokemon.Record, error) {
	key := pokemon.Slug(name)
	if key == "" {
		return pokemon.Record{}, fmt.Errorf("lookup %q: %w", name, ErrNotFound)
	}

	var doc pokemonDoc
	if err := c.getJSON(ctx, c.BaseURL+"/pokemon/"+key, &doc); err != nil {
		return pokemon.Record{}, fmt.Errorf("lookup %q: %w", name, err)
	}

	speciesURL := doc.Species.URL
	if speciesURL == "" {
		speciesURL = fmt.Sprintf("%s/pokemon-species/%d", c.BaseURL, doc.ID)
	}
	var sp speciesDoc
	if err := c.getJSON(ctx, speciesURL, &sp); err != nil {
		return pokemon.Record{}, fmt.Errorf("lookup %q species: %w", name, err)
	}

	return toRecord(doc, sp), nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func toRecord(doc pokemonDoc, sp speciesDoc) pokemon.Record {
	types := doc.Types
	sort.SliceStable(types, func(i, j int) bool { return types[i].Slot < types[j].Slot })

	rec := pokemon.Record{
		ID:        doc.ID,
		Name:      pokemon.TitleCase(doc.Name),
		Region:    pokemon.RegionFromID(doc.ID),
		Types:     make([]string, 0, len(types)),
		Abilities: make([]string, 0, len(doc.Abilities)),
		Moves:     make([]string, 0, maxMoves),
		Height:    float64(doc.Height) / 10,
		Weight:    float64(doc.Weight) / 10,
		SpriteURL: pokemon.ArtworkURL(doc.ID),
	}
	for _, t := range types {
		rec.Types = append(rec.Types, pokemon.TitleCase(t.Type.Name))
	}
	for _, a := range doc.Abilities {
		rec.Abilities = append(rec.Abilities, pokemon.DisplayName(a.Ability.Name))
	}
	for _, s := range doc.Stats {
		switch s.Stat.Name {
		case "hp":
			rec.BaseStats.HP = s.BaseStat
		case "attack":
			rec.BaseStats.Attack = s.BaseStat
		case "defense":
			rec.BaseStats.Defense = s.BaseStat
		case "special-attack":
			rec.BaseStats.SpecialAttack = s.BaseStat
		case "special-defense":
			rec.BaseStats.SpecialDefense = s.BaseStat
		case "speed":
			rec.BaseStats.Speed = s.BaseStat
		}
	}
	for i, m := range doc.Moves {
		if i == maxMoves {
			break
		}
		rec.Moves = append(rec.Moves, pokemon.DisplayName(m.Move.Name))
	}
	if sp.Habitat != nil {
		rec.Habitat = pokemon.DisplayName(sp.Habitat.Name)
	}
	if sp.Color != nil {
		rec.Color = pokemon.TitleCase(sp.Color.Name)
	}
	return rec
}
