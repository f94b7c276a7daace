package match

import "github.com/nconklindev/sheetsync/internal/types"

// Suggestion is the Auto-Mapper's verdict for one column.
type Suggestion struct {
	Column string
	Field  types.TargetField
	Score  float64
	Tier   Tier
	// Matched is false when no field was accepted; the column stays unmapped.
	Matched bool
}

// Best picks the field for column. Fields are scored by display name in the
// order given and the best is only replaced by a strictly greater score, so
// the first field wins a tie, including a tie between two exact matches.
func Best(column string, fields []types.TargetField) Suggestion {
	s := Suggestion{Column: column}

	for _, f := range fields {
		score, tier := Classify(f.Name, column)
		if score > s.Score {
			s.Field = f
			s.Score = score
			s.Tier = tier
			s.Matched = true
		}
	}

	return s
}

// Suggest returns one Suggestion per column, in column order.
func Suggest(columns types.ColumnSet, fields []types.TargetField) []Suggestion {
	out := make([]Suggestion, 0, len(columns))
	for _, col := range columns {
		out = append(out, Best(col, fields))
	}
	return out
}

// AutoMap builds the initial mapping. Columns without an accepted field are
// left out.
func AutoMap(columns types.ColumnSet, fields []types.TargetField) types.Mapping {
	return FromSuggestions(Suggest(columns, fields))
}

// FromSuggestions keeps the matched suggestions as a Mapping.
func FromSuggestions(suggestions []Suggestion) types.Mapping {
	var m types.Mapping
	for _, s := range suggestions {
		if s.Matched {
			m = append(m, types.Assignment{Column: s.Column, FieldID: s.Field.ID})
		}
	}
	return m
}
