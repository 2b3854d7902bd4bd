package pokemon

// Generation is one bucket of the national dex. LastID == 0 means open-ended.
type Generation struct {
	ID      string `json:"id"`
	Region  string `json:"region"`
	FirstID int    `json:"firstId"`
	LastID  int    `json:"lastId,omitempty"`
}

// Contains reports whether a species id falls in this generation.
func (g Generation) Contains(id int) bool {
	return id >= g.FirstID && (g.LastID == 0 || id <= g.LastID)
}

// ascending thresholds; the last entry is open-ended
var generations = []Generation{
	{ID: "gen1", Region: "Kanto", FirstID: 1, LastID: 151},
	{ID: "gen2", Region: "Johto", FirstID: 152, LastID: 251},
	{ID: "gen3", Region: "Hoenn", FirstID: 252, LastID: 386},
	{ID: "gen4", Region: "Sinnoh", FirstID: 387, LastID: 493},
	{ID: "gen5", Region: "Unova", FirstID: 494, LastID: 649},
	{ID: "gen6", Region: "Kalos", FirstID: 650, LastID: 721},
	{ID: "gen7", Region: "Alola", FirstID: 722, LastID: 809},
	{ID: "gen8", Region: "Galar", FirstID: 810, LastID: 898},
	{ID: "gen9", Region: "Paldea", FirstID: 899},
}

// Generations returns the generation table in dex order.
func Generations() []Generation {
	return append([]Generation(nil), generations...)
}

// GenerationByID looks up "gen1".."gen9".
func GenerationByID(id string) (Generation, bool) {
	for _, g := range generations {
		if g.ID == id {
			return g, true
		}
	}
	return Generation{}, false
}

// RegionFromID maps a species id to its region. Every id at or below 151
// is Kanto and every id above 898 is Paldea, so the function is total.
func RegionFromID(id int) string {
	for _, g := range generations {
		if g.LastID == 0 || id <= g.LastID {
			return g.Region
		}
	}
	return generations[len(generations)-1].Region
}
