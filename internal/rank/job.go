// Package rank implements the in-process scoring used by the three search
// flavours: the hybrid job score layered on top of the storage text index,
// the composite company score, and the flattened location index with its
// bounded top-K search.
package rank

import (
	"strings"
	"time"

	"jobboard-backend/internal/textutil"
)

// Hybrid job score weights. The storage layer supplies the text-index score;
// everything else is computed here over the candidate set.
const (
	jobWeightTextScore    = 5
	jobWeightTitleTerm    = 4
	jobWeightDescTerm     = 1
	jobWeightAllInTitle   = 15
	jobWeightPhraseTitle  = 25
	jobWeightPhraseDesc   = 8
	recencyWindowDays     = 60
	missingListedAgeDays  = 365
)

// JobQuery is a parsed search term shared across the candidate set.
type JobQuery struct {
	Phrase string   // collapsed lowercase q
	Tokens []string // unique normalized tokens
}

// NewJobQuery parses q. ok is false when q normalizes to nothing, in which
// case the caller falls back to plain filter+sort.
func NewJobQuery(q string) (JobQuery, bool) {
	phrase, ok := textutil.NormalizeSearchTerm(q)
	if !ok {
		return JobQuery{}, false
	}
	tokens := textutil.Tokens(q)
	if len(tokens) == 0 {
		return JobQuery{}, false
	}
	return JobQuery{Phrase: phrase, Tokens: tokens}, true
}

// ScoreJob computes the hybrid relevance score for one candidate row.
// textScore is the storage text-index score; title and description are raw
// field values; listedTime is zero when the job has no listing timestamp.
func ScoreJob(q JobQuery, textScore float64, title, description string, listedTime time.Time, now time.Time) float64 {
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	titleTerms, descTerms := 0, 0
	allInTitle := true
	for _, tok := range q.Tokens {
		inTitle := strings.Contains(titleLower, tok)
		if inTitle {
			titleTerms++
		} else {
			allInTitle = false
		}
		if strings.Contains(descLower, tok) {
			descTerms++
		}
	}

	score := jobWeightTextScore*textScore +
		float64(jobWeightTitleTerm*titleTerms) +
		float64(jobWeightDescTerm*descTerms)
	if allInTitle {
		score += jobWeightAllInTitle
	}
	if strings.Contains(titleLower, q.Phrase) {
		score += jobWeightPhraseTitle
	}
	if strings.Contains(descLower, q.Phrase) {
		score += jobWeightPhraseDesc
	}
	score += recencyBoost(listedTime, now)
	return score
}

// recencyBoost is max(0, 60 - ageDays); a missing listed time counts as a
// year old and contributes nothing.
func recencyBoost(listedTime, now time.Time) float64 {
	ageDays := float64(missingListedAgeDays)
	if !listedTime.IsZero() {
		ageDays = now.Sub(listedTime).Hours() / 24
	}
	boost := recencyWindowDays - ageDays
	if boost < 0 {
		return 0
	}
	return boost
}
