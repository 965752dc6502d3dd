package catalog

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier word is better)
	ScorePositionBonus = 10.0

	// Whole-name match bonus (huge boost)
	ScoreExactNameBonus = 200.0

	// MinCanonicalScore is the minimum total score for Match to rewrite a
	// typed value to a catalog name. Fuzzy hits alone never qualify.
	MinCanonicalScore = ScoreSubstringMatch
)

// Candidate is an offering with its match score.
type Candidate struct {
	Offering Offering `json:"offering"`
	Score    float64  `json:"score"`
}

// Score rates how well query matches name. Every query word must hit at
// least one name word, otherwise the score is 0.
func Score(query, name string) float64 {
	q := words(query)
	n := words(name)
	if len(q) == 0 || len(n) == 0 {
		return 0.0
	}

	if strings.Join(q, " ") == strings.Join(n, " ") {
		return ScoreExactMatch + ScoreExactNameBonus
	}

	var total float64
	for _, qw := range q {
		best := 0.0
		for i, nw := range n {
			if s := scoreWord(qw, nw, i); s > best {
				best = s
			}
		}
		if best == 0.0 {
			return 0.0
		}
		total += best
	}
	return total / float64(len(q))
}

// scoreWord scores a single query word against a name word.
func scoreWord(queryWord, nameWord string, position int) float64 {
	if queryWord == "" || nameWord == "" {
		return 0.0
	}

	if queryWord == nameWord {
		return ScoreExactMatch + positionBonus(position)
	}
	if strings.HasPrefix(nameWord, queryWord) {
		return ScorePrefixMatch + positionBonus(position)
	}
	if idx := strings.Index(nameWord, queryWord); idx >= 0 {
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(idx)/float64(len(nameWord)))
	}

	if sim := similarity(queryWord, nameWord); sim > 0.5 {
		return ScoreFuzzyMatch * sim
	}
	return 0.0
}

func positionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// similarity is the share of query runes present in the name word.
func similarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	matches, total := 0, 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(total)
}

// Rank scores every offering against query, best first. Offerings that do
// not match are left out; ties keep catalog order.
func Rank(query string, offerings []Offering) []Candidate {
	candidates := make([]Candidate, 0, len(offerings))
	for _, o := range offerings {
		if s := Score(query, o.Name); s > 0 {
			candidates = append(candidates, Candidate{Offering: o, Score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// BestMatch returns the top candidate when it clears MinCanonicalScore.
func BestMatch(query string, offerings []Offering) (Offering, bool) {
	ranked := Rank(query, offerings)
	if len(ranked) == 0 || ranked[0].Score < MinCanonicalScore {
		return Offering{}, false
	}
	return ranked[0].Offering, true
}

// words lowercases s and splits it on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
