package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/xuri/excelize/v2"
)

// EmptyHeader is the name given to a header cell with no text.
const EmptyHeader = "__EMPTY"

// ErrUnsupported is wrapped by ParseError for unknown file extensions.
var ErrUnsupported = errors.New("unsupported file type")

// ParseError reports a file that could not be parsed.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Supported reports whether name has an extension Parse understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Parse turns the bytes of one spreadsheet into rows and a header order.
// The format is chosen from name's extension. Rows without any non-empty
// cell are skipped. A file without data rows is not an error; it comes back
// with zero rows.
func Parse(name string, data []byte) (types.FileData, error) {
	var (
		fd  types.FileData
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		fd, err = parseCSV(data)
	case ".xlsx", ".xlsm":
		fd, err = parseXLSX(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	if err != nil {
		return types.FileData{Name: name}, &ParseError{File: name, Err: err}
	}

	fd.Name = name
	return fd, nil
}

func parseCSV(data []byte) (types.FileData, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(data)))
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.FileData{}, err
		}
		records = append(records, rec)
	}

	headerIdx := findHeaderRow(records)
	if headerIdx == -1 {
		return types.FileData{}, nil
	}

	headers := uniqueHeaders(records[headerIdx], maxWidth(records[headerIdx:]))
	rows := make([]types.SourceRow, 0, len(records)-headerIdx-1)
	for _, rec := range records[headerIdx+1:] {
		row := make(types.SourceRow, len(rec))
		for i, cell := range rec {
			if cell != "" {
				row[headers[i]] = cell
			}
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}

	return types.FileData{Headers: headers, Rows: rows}, nil
}

func parseXLSX(data []byte) (types.FileData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return types.FileData{}, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return types.FileData{}, nil
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return types.FileData{}, err
	}

	headerIdx := findHeaderRow(rows)
	if headerIdx == -1 {
		return types.FileData{}, nil
	}

	headers := uniqueHeaders(rows[headerIdx], maxWidth(rows[headerIdx:]))
	out := make([]types.SourceRow, 0, len(rows)-headerIdx-1)

	for r := headerIdx + 1; r < len(rows); r++ {
		row := make(types.SourceRow, len(rows[r]))
		for c, cell := range rows[r] {
			if cell == "" {
				continue
			}
			v, err := cellValue(f, sheetName, c+1, r+1, cell)
			if err != nil {
				return types.FileData{}, err
			}
			row[headers[c]] = v
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}

	return types.FileData{Headers: headers, Rows: out}, nil
}

// cellValue returns numeric cells as float64, boolean cells as bool and
// everything else as the raw string. col and row are 1-based.
func cellValue(f *excelize.File, sheet string, col, row int, raw string) (types.CellValue, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return nil, err
	}

	if typ == excelize.CellTypeBool {
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	}

	// Numbers are usually stored without an explicit type attribute.
	if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n, nil
		}
	}
	return raw, nil
}

// findHeaderRow returns the index of the first row with a non-empty cell,
// or -1 when there is none.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}
	return -1
}

func maxWidth(rows [][]string) int {
	w := 0
	for _, row := range rows {
		w = max(w, len(row))
	}
	return w
}

// uniqueHeaders pads raw to width and makes every name non-empty and
// unique: blanks become __EMPTY, __EMPTY_1, ... and repeats get a _N suffix.
func uniqueHeaders(raw []string, width int) []string {
	headers := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int, width)

	for i := range headers {
		base := EmptyHeader
		if i < len(raw) && raw[i] != "" {
			base = raw[i]
		}

		name := base
		for used[name] {
			next[base]++
			name = fmt.Sprintf("%s_%d", base, next[base])
		}
		used[name] = true
		headers[i] = name
	}

	return headers
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
