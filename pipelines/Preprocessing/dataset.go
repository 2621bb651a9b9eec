package preprocessing

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/weatherops/raincast/pipelines"
)

// Dataset is a column-ordered tabular container. Cells are kept as raw
// strings until encoding; column order is preserved from the source file.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// missingTokens are the cell values treated as absent observations
var missingTokens = map[string]bool{
	"":   true,
	"NA": true,
}

// IsMissing reports whether a cell value represents a missing observation
func IsMissing(value string) bool {
	return missingTokens[value]
}

// LoadCSV reads a delimited file into a Dataset. The first record is the
// header. A missing, empty or ragged file yields a DataLoadError.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to open file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to parse CSV", err)
	}
	if len(records) < 2 {
		return nil, pipelines.NewDataLoadError(path, "file has no data rows", nil)
	}

	return &Dataset{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// ColumnIndex returns the position of a column, or -1 if absent
func (ds *Dataset) ColumnIndex(name string) int {
	for i, col := range ds.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// NumRows returns the number of data rows
func (ds *Dataset) NumRows() int {
	return len(ds.Rows)
}

// Column returns all cell values of the named column in row order
func (ds *Dataset) Column(name string) []string {
	idx := ds.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(ds.Rows))
	for i, row := range ds.Rows {
		values[i] = row[idx]
	}
	return values
}

// DropColumn removes a column and its cells from every row
func (ds *Dataset) DropColumn(name string) {
	idx := ds.ColumnIndex(name)
	if idx < 0 {
		return
	}
	ds.Columns = append(ds.Columns[:idx], ds.Columns[idx+1:]...)
	for i, row := range ds.Rows {
		ds.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
}

// AppendColumn adds a column with one value per existing row
func (ds *Dataset) AppendColumn(name string, values []string) {
	ds.Columns = append(ds.Columns, name)
	for i := range ds.Rows {
		ds.Rows[i] = append(ds.Rows[i], values[i])
	}
}

// FilterRows keeps only the rows for which keep returns true
func (ds *Dataset) FilterRows(keep func(row []string) bool) {
	filtered := ds.Rows[:0]
	for _, row := range ds.Rows {
		if keep(row) {
			filtered = append(filtered, row)
		}
	}
	ds.Rows = filtered
}

// IsNumericColumn reports whether every non-missing cell in the column
// parses as a number. Scanning all rows keeps the inference deterministic
// regardless of row order.
func (ds *Dataset) IsNumericColumn(name string) bool {
	idx := ds.ColumnIndex(name)
	if idx < 0 {
		return false
	}
	seen := false
	for _, row := range ds.Rows {
		cell := row[idx]
		if IsMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
