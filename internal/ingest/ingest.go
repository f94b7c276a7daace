// Package ingest merges per-file parse results into one row set and one
// ordered column set.
package ingest

import (
	"errors"
	"fmt"

	"github.com/nconklindev/sheetsync/internal/types"
)

// ErrEmptyInput is returned when no file produced a single row.
var ErrEmptyInput = errors.New("no rows in any input file")

// Warning reports a file that was skipped because it yielded no rows.
type Warning struct {
	File string
	// Err is the read or parse failure, nil for a file that was simply empty.
	Err error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: skipped: %v", w.File, w.Err)
	}
	return fmt.Sprintf("%s: skipped: no rows", w.File)
}

// WarningSink receives non-fatal warnings.
type WarningSink func(Warning)

// Result is the unified view of all ingested files.
type Result struct {
	Rows    []types.SourceRow
	Columns types.ColumnSet
	// Files lists the files that contributed rows, in input order.
	Files []string
}

// Ingest concatenates the rows of every non-empty file in file order and
// builds the ColumnSet in first-seen order. Empty or failed files are
// reported to sink and skipped. If no file has rows, ErrEmptyInput is
// returned.
func Ingest(files []types.FileData, sink WarningSink) (Result, error) {
	var res Result
	seen := make(map[string]struct{})

	for _, fd := range files {
		if len(fd.Rows) == 0 {
			if sink != nil {
				sink(Warning{File: fd.Name, Err: fd.Err})
			}
			continue
		}

		res.Rows = append(res.Rows, fd.Rows...)
		res.Files = append(res.Files, fd.Name)

		for _, h := range fd.Headers {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			res.Columns = append(res.Columns, h)
		}
	}

	if len(res.Rows) == 0 {
		return Result{}, ErrEmptyInput
	}

	return res, nil
}
