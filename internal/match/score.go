package match

import (
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/sheetsync/internal/types"
)

// Tier identifies which matching rule produced a score.
type Tier int

const (
	// TierNone means no rule accepted the pair.
	TierNone Tier = iota
	// TierFuzzy is an accepted normalized edit-distance similarity.
	TierFuzzy
	// TierPrefix means both names start with the same character.
	TierPrefix
	// TierContains means one name contains the other.
	TierContains
	// TierExact means the names are equal.
	TierExact
)

// Fixed scores for the non-fuzzy tiers.
const (
	ExactScore    = 1.0
	ContainsScore = 0.9
	PrefixScore   = 0.7
	// FuzzyThreshold is the exclusive lower bound for an accepted fuzzy score.
	FuzzyThreshold = 0.6
)

// String returns a short label for the tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContains:
		return "contains"
	case TierPrefix:
		return "prefix"
	case TierFuzzy:
		return "fuzzy"
	case TierNone:
		return "none"
	default:
		return "unknown"
	}
}

// Score returns the similarity in [0,1] between a target field name and a
// column name. See Classify.
func Score(fieldName, column string) float64 {
	s, _ := Classify(fieldName, column)
	return s
}

// Classify evaluates the tiers in order and returns the score of the first
// one that accepts the pair:
//
//  1. exact, case-sensitive equality: 1.0
//  2. either string contains the other: 0.9
//  3. same first code point, both non-empty: 0.7
//  4. normalized Levenshtein similarity, only if > 0.6
//
// A pair no tier accepts scores 0 with TierNone.
func Classify(fieldName, column string) (float64, Tier) {
	if fieldName == column {
		return ExactScore, TierExact
	}

	if strings.Contains(fieldName, column) || strings.Contains(column, fieldName) {
		return ContainsScore, TierContains
	}

	if fieldName != "" && column != "" && firstRune(fieldName) == firstRune(column) {
		return PrefixScore, TierPrefix
	}

	if sim := LevenshteinNormalized(fieldName, column); sim > FuzzyThreshold {
		return sim, TierFuzzy
	}

	return 0, TierNone
}

// MatchField is Classify with the field's identifier also accepted as an
// exact match.
func MatchField(field types.TargetField, column string) (float64, Tier) {
	if field.ID != "" && field.ID == column {
		return ExactScore, TierExact
	}
	return Classify(field.Name, column)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
