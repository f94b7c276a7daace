// Package projector applies a finalized mapping to ingested rows.
package projector

import "github.com/nconklindev/sheetsync/internal/types"

// Project returns one record per row, in row order. Each mapped column's
// value is copied under its field id; unmapped columns are dropped and a
// mapped column missing from a row leaves that key out of the record.
// Assignments are applied in mapping order, so when two columns share a
// field id the later column decides the key, including leaving it out when
// that column is missing from the row.
func Project(rows []types.SourceRow, m types.Mapping) []types.ProjectedRecord {
	out := make([]types.ProjectedRecord, len(rows))
	for i, row := range rows {
		rec := make(types.ProjectedRecord, len(m))
		for _, a := range m {
			if v, ok := row[a.Column]; ok {
				rec[a.FieldID] = v
			} else {
				delete(rec, a.FieldID)
			}
		}
		out[i] = rec
	}
	return out
}
