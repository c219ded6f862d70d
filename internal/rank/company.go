package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"jobboard-backend/internal/textutil"
)

// CompanyDoc is the projection the composite scorer works on.
type CompanyDoc struct {
	CompanyID   int64
	Name        string
	Description string
	Country     string
	State       string
	City        string
	CreatedAt   time.Time
}

// ScoredCompany pairs a document with its composite score.
type ScoredCompany struct {
	Doc   CompanyDoc
	Score int
}

// CompanyQuery is a parsed q shared across the fetched candidate set.
type CompanyQuery struct {
	Norm   string
	Tokens []string
}

// NewCompanyQuery parses q; ok is false when nothing survives normalization.
func NewCompanyQuery(q string) (CompanyQuery, bool) {
	norm := textutil.Normalize(q)
	if norm == "" {
		return CompanyQuery{}, false
	}
	return CompanyQuery{Norm: norm, Tokens: textutil.Tokens(q)}, true
}

// Field match levels, mutually exclusive; the highest applicable wins.
const (
	matchNone = iota
	matchSubstring
	matchPrefix
	matchExact
)

func matchLevel(field, q string) int {
	switch {
	case field == "":
		return matchNone
	case field == q:
		return matchExact
	case strings.HasPrefix(field, q):
		return matchPrefix
	case strings.Contains(field, q):
		return matchSubstring
	}
	return matchNone
}

func pick(level, exact, prefix, substring int) int {
	switch level {
	case matchExact:
		return exact
	case matchPrefix:
		return prefix
	case matchSubstring:
		return substring
	}
	return 0
}

// ScoreCompany computes the weighted composite score of §composite ranking.
// A zero return means the company is not a match for q.
func ScoreCompany(doc CompanyDoc, q CompanyQuery) int {
	name := textutil.Normalize(doc.Name)
	desc := textutil.Normalize(doc.Description)
	loc := textutil.Normalize(strings.TrimSpace(doc.Country + " " + doc.State + " " + doc.City))

	nameLevel := matchLevel(name, q.Norm)
	locLevel := matchLevel(loc, q.Norm)
	descHit := desc != "" && strings.Contains(desc, q.Norm)

	// Early reject: no token overlap anywhere and no substring hit at all.
	anyToken := false
	for _, tok := range q.Tokens {
		if strings.Contains(name, tok) || strings.Contains(desc, tok) || strings.Contains(loc, tok) {
			anyToken = true
			break
		}
	}
	if !anyToken && nameLevel == matchNone && locLevel == matchNone && !descHit {
		return 0
	}

	score := pick(nameLevel, 400, 260, 180)
	score += pick(locLevel, 220, 170, 140)
	if descHit {
		score += 90
	}

	nameHits, descHits, locHits, unionHits := 0, 0, 0, 0
	for _, tok := range q.Tokens {
		inName := strings.Contains(name, tok)
		inDesc := strings.Contains(desc, tok)
		inLoc := strings.Contains(loc, tok)
		if inName {
			nameHits++
			score += 35
		}
		if inLoc {
			locHits++
			score += 30
		}
		if inDesc {
			descHits++
			score += 15
		}
		if inName || inDesc || inLoc {
			unionHits++
		}
	}

	n := float64(len(q.Tokens))
	if n > 0 {
		if nameHits == len(q.Tokens) {
			score += 200
		} else {
			score += int(math.Round(float64(nameHits) / n * 140))
		}
		score += int(math.Round(float64(descHits) / n * 60))
		score += int(math.Round(float64(locHits) / n * 160))
		if unionHits == len(q.Tokens) {
			score += 150
		} else {
			score += int(math.Round(float64(unionHits) / n * 120))
		}
	}

	nameTokens := textutil.Tokens(doc.Name)
	inOrder := subsequenceCount(q.Tokens, nameTokens)
	switch {
	case len(q.Tokens) > 0 && inOrder == len(q.Tokens):
		score += 100
	case inOrder*2 >= len(q.Tokens):
		score += 50
	}

	score += lengthProximity(q.Norm, name, 60)

	if tokenSetsEqual(q.Tokens, nameTokens) {
		score += 180
	}
	return score
}

// RankCompanies scores and orders the fetched candidate set: score DESC, then
// name ASC (locale-aware, case-insensitive), then created_at DESC. Zero
// scores are discarded.
func RankCompanies(docs []CompanyDoc, q CompanyQuery) []ScoredCompany {
	out := make([]ScoredCompany, 0, len(docs))
	for _, d := range docs {
		if s := ScoreCompany(d, q); s > 0 {
			out = append(out, ScoredCompany{Doc: d, Score: s})
		}
	}
	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if c := coll.CompareString(out[i].Doc.Name, out[j].Doc.Name); c != 0 {
			return c < 0
		}
		return out[i].Doc.CreatedAt.After(out[j].Doc.CreatedAt)
	})
	return out
}

// subsequenceCount returns how many of q's tokens appear within field tokens
// in the same relative order.
func subsequenceCount(q, field []string) int {
	count, fi := 0, 0
	for _, tok := range q {
		for fi < len(field) && field[fi] != tok {
			fi++
		}
		if fi == len(field) {
			break
		}
		count++
		fi++
	}
	return count
}

// lengthProximity rewards names whose length is close to the query's:
// max(0, cap - min(|len diff|, cap)).
func lengthProximity(q, field string, capPoints int) int {
	diff := len(q) - len(field)
	if diff < 0 {
		diff = -diff
	}
	if diff > capPoints {
		diff = capPoints
	}
	return capPoints - diff
}

func tokenSetsEqual(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if !set[t] {
			return false
		}
	}
	return true
}
