package rank

import (
	"math"
	"strings"

	"jobboard-backend/internal/textutil"
)

// Location entry kinds.
const (
	KindCountry = "country"
	KindState   = "state"
	KindCity    = "city"
)

// CountryDoc is one country document from the location tree.
type CountryDoc struct {
	Country string
	States  []StateDoc
}

// StateDoc is a state with its cities.
type StateDoc struct {
	State  string
	Cities []string
}

// LocationEntry is one row of the flattened search index.
type LocationEntry struct {
	Kind       string `json:"type"`
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
	Main       string `json:"name"`
	mainNorm   string
	fullNorm   string
	tokensMain []string
	tokensAll  []string
}

// LocationIndex is the flattened, in-memory index over the country tree.
type LocationIndex struct {
	entries   []LocationEntry
	countries int
}

// BuildLocationIndex flattens the country tree into scoreable entries.
// Country and state entries index their descendant names in the full path, so
// a city query also surfaces the city's state and country (ranked below the
// city itself by kind weight and main-field match).
func BuildLocationIndex(tree []CountryDoc) *LocationIndex {
	var entries []LocationEntry
	for _, c := range tree {
		var countryFull strings.Builder
		countryFull.WriteString(c.Country)
		for _, s := range c.States {
			stateFull := c.Country + " " + s.State + " " + strings.Join(s.Cities, " ")
			entries = append(entries, newEntry(KindState, c.Country, s.State, "", s.State, stateFull))
			for _, city := range s.Cities {
				entries = append(entries, newEntry(KindCity, c.Country, s.State, city, city, c.Country+" "+s.State+" "+city))
			}
			countryFull.WriteByte(' ')
			countryFull.WriteString(s.State)
			for _, city := range s.Cities {
				countryFull.WriteByte(' ')
				countryFull.WriteString(city)
			}
		}
		entries = append(entries, newEntry(KindCountry, c.Country, "", "", c.Country, countryFull.String()))
	}
	return &LocationIndex{entries: entries, countries: len(tree)}
}

func newEntry(kind, country, state, city, main, full string) LocationEntry {
	return LocationEntry{
		Kind:       kind,
		Country:    country,
		State:      state,
		City:       city,
		Main:       main,
		mainNorm:   textutil.Normalize(main),
		fullNorm:   textutil.Normalize(full),
		tokensMain: textutil.Tokens(main),
		tokensAll:  textutil.Tokens(full),
	}
}

// Countries returns the country count the index was built from. Used by the
// rebuild trigger.
func (idx *LocationIndex) Countries() int { return idx.countries }

// Len returns the number of flattened entries.
func (idx *LocationIndex) Len() int { return len(idx.entries) }

// Location kind weights and match rewards.
var locationKindWeight = map[string]int{
	KindCity:    120,
	KindState:   90,
	KindCountry: 70,
}

// Search scores every index entry against q and returns the top k by score
// descending via a bounded min-heap. Returns nil when q normalizes to
// nothing.
func (idx *LocationIndex) Search(q string, k int) []LocationEntry {
	norm := textutil.Normalize(q)
	if norm == "" {
		return nil
	}
	tokens := textutil.Tokens(q)

	topk := NewTopK[LocationEntry](k)
	for _, e := range idx.entries {
		if s := scoreLocation(e, norm, tokens); s > 0 {
			topk.Offer(e, s)
		}
	}
	return topk.Drain()
}

func scoreLocation(e LocationEntry, qNorm string, qTokens []string) int {
	mainLevel := matchLevel(e.mainNorm, qNorm)
	fullLevel := matchLevel(e.fullNorm, qNorm)

	// Early reject: no token overlap and no substring hit.
	anyToken := false
	for _, tok := range qTokens {
		if strings.Contains(e.fullNorm, tok) {
			anyToken = true
			break
		}
	}
	if !anyToken && mainLevel == matchNone && fullLevel == matchNone {
		return 0
	}

	score := locationKindWeight[e.Kind]
	score += pick(mainLevel, 250, 180, 120)
	score += pick(fullLevel, 200, 140, 100)

	mainHits, allHits := 0, 0
	for _, tok := range qTokens {
		if strings.Contains(e.mainNorm, tok) {
			mainHits++
			score += 35
		}
		if strings.Contains(e.fullNorm, tok) {
			allHits++
			score += 15
		}
	}
	n := float64(len(qTokens))
	if n > 0 {
		if mainHits == len(qTokens) {
			score += 150
		} else {
			score += int(math.Round(float64(mainHits) / n * 90))
		}
		if allHits == len(qTokens) {
			score += 100
		} else {
			score += int(math.Round(float64(allHits) / n * 60))
		}
	}

	inOrder := subsequenceCount(qTokens, e.tokensMain)
	switch {
	case len(qTokens) > 0 && inOrder == len(qTokens):
		score += 60
	case inOrder*2 >= len(qTokens):
		score += 30
	}

	score += lengthProximity(qNorm, e.mainNorm, 40)

	// City boost scales with the quality of the main-field match so a city
	// outranks its state and country on its own name.
	if e.Kind == KindCity {
		score += pick(mainLevel, 80, 56, 36)
	}
	return score
}
