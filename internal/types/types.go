package types

// CellValue is a single spreadsheet cell: string, float64, bool or nil.
type CellValue = any

// SourceRow maps a column name to the cell value found under it.
// Empty cells are absent from the map.
type SourceRow map[string]CellValue

// ColumnSet is an ordered sequence of unique column names.
type ColumnSet []string

// Contains reports whether name is part of the set.
func (c ColumnSet) Contains(name string) bool {
	return c.Index(name) >= 0
}

// Index returns the position of name in the set, or -1.
func (c ColumnSet) Index(name string) int {
	for i, col := range c {
		if col == name {
			return i
		}
	}
	return -1
}

// TargetField is a named slot in the destination table's schema.
type TargetField struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Assignment binds one column to one target field id.
type Assignment struct {
	Column  string `json:"column"`
	FieldID string `json:"field_id"`
}

// Mapping is a partial function from column name to TargetField.ID,
// kept in ColumnSet order.
type Mapping []Assignment

// Get returns the field id assigned to column.
func (m Mapping) Get(column string) (string, bool) {
	for _, a := range m {
		if a.Column == column {
			return a.FieldID, true
		}
	}
	return "", false
}

// ProjectedRecord maps a TargetField.ID to a cell value.
type ProjectedRecord map[string]CellValue

// FileData is the parse result of one spreadsheet file.
type FileData struct {
	Name    string
	Headers []string
	Rows    []SourceRow
	// Err is set when the file could not be read or parsed.
	Err error
}

// ImportResult summarises a finished import session.
type ImportResult struct {
	SessionID      string   `json:"session_id"`
	Files          []string `json:"files"`
	ColumnsFound   []string `json:"columns_found"`
	ColumnsMapped  int      `json:"columns_mapped"`
	RowsProcessed  int      `json:"rows_processed"`
	RecordsCreated int      `json:"records_created"`
	DryRun         bool     `json:"dry_run"`
}
