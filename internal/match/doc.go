// Package match scores spreadsheet column names against target field names
// and proposes a column-to-field mapping.
//
// Key functions:
//   - Levenshtein: edit distance over code points
//   - Classify / Score: tiered similarity (exact, contains, prefix, fuzzy)
//   - Best / Suggest / AutoMap: strict-greater, first-wins field selection
package match
