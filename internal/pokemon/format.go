// internal/pokemon/format.go
//
// Name formatting shared by the lookup client, the roster and the evaluator:
// provider slugs for keys, title-cased words for display.

package pokemon

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slug is the lookup key for a species name as players type it
// ("Mr. Mime" → "mr-mime", "Farfetch’d" → "farfetchd"). Apostrophes and
// periods are dropped rather than turned into separators.
func Slug(name string) string {
	s := strings.NewReplacer("'", "", ".", "").Replace(unidecode.Unidecode(name))
	return slug.Make(s)
}

// TitleCase canonicalizes a provider name ("greninja" → "Greninja").
// A Caser is stateful, so one is built per call.
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// DisplayName turns a hyphenated provider slug into words
// ("water-shuriken" → "Water Shuriken").
func DisplayName(slug string) string {
	parts := strings.Split(strings.TrimSpace(slug), "-")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return TitleCase(strings.Join(out, " "))
}
