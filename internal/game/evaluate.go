package game

import (
	"strings"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

// StatTolerance is the inclusive absolute difference at which a stat still matches.
const StatTolerance = 10

// Evaluate compares a resolved guess against the target.
//
// Rules:
//   - name: case-insensitive exact match, no fuzzy matching.
//   - region: exact, case-sensitive.
//   - types: positional only; a missing secondary equals a missing secondary.
//   - abilities: guess abilities that appear anywhere in the target set, in guess order.
//   - stats: each within StatTolerance, independently.
func Evaluate(guess, target pokemon.Record) GuessResult {
	return GuessResult{
		NameMatch:      strings.EqualFold(guess.Name, target.Name),
		RegionMatch:    guess.Region == target.Region,
		Type1Match:     guess.PrimaryType() == target.PrimaryType(),
		Type2Match:     guess.SecondaryType() == target.SecondaryType(),
		AbilityMatches: sharedAbilities(guess.Abilities, target.Abilities),
		StatMatches: StatMatches{
			HP:             near(guess.BaseStats.HP, target.BaseStats.HP),
			Attack:         near(guess.BaseStats.Attack, target.BaseStats.Attack),
			Defense:        near(guess.BaseStats.Defense, target.BaseStats.Defense),
			SpecialAttack:  near(guess.BaseStats.SpecialAttack, target.BaseStats.SpecialAttack),
			SpecialDefense: near(guess.BaseStats.SpecialDefense, target.BaseStats.SpecialDefense),
			Speed:          near(guess.BaseStats.Speed, target.BaseStats.Speed),
		},
	}
}

func sharedAbilities(guess, target []string) []string {
	set := make(map[string]struct{}, len(target))
	for _, a := range target {
		set[a] = struct{}{}
	}
	out := []string{}
	for _, a := range guess {
		if _, ok := set[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

func near(a, b int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= StatTolerance
}
