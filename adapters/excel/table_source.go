// Package excel adapts file-shaped upstream tables (xlsx or csv) to the
// table-scoped read interface the canonical hasher consumes. Each table
// is one file named <table>.xlsx or <table>.csv under the source
// directory.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"goprove/domain/core"
	"goprove/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// TableSource reads tables from a directory of xlsx/csv files.
type TableSource struct {
	dir string
}

// NewTableSource creates a table source rooted at dir.
func NewTableSource(dir string) *TableSource {
	return &TableSource{dir: dir}
}

// ReadTableSchema infers the table schema from the header row and the
// first data row. Returns an error wrapping core.ErrNotFound when no
// file backs the table.
func (s *TableSource) ReadTableSchema(ctx context.Context, name string) (dataset.TableSchema, error) {
	rows, err := s.readRaw(name)
	if err != nil {
		return dataset.TableSchema{}, err
	}
	if len(rows) == 0 {
		return dataset.TableSchema{}, fmt.Errorf("table %q has no header row", name)
	}

	header := rows[0]
	columns := make([]dataset.Column, len(header))
	for i, col := range header {
		colType := "text"
		if len(rows) > 1 && i < len(rows[1]) {
			colType = inferType(rows[1][i])
		}
		columns[i] = dataset.Column{Name: col, Type: colType}
	}
	return dataset.TableSchema{Name: name, Columns: columns}, nil
}

// ReadTableRowsOrdered returns the table's data rows. File order is
// returned as-is; the hasher re-sorts for every tier except physical.
func (s *TableSource) ReadTableRowsOrdered(ctx context.Context, name string, _ dataset.Ordering) ([]dataset.Row, error) {
	raw, err := s.readRaw(name)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, nil
	}

	schema, err := s.ReadTableSchema(ctx, name)
	if err != nil {
		return nil, err
	}

	rows := make([]dataset.Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(dataset.Row, len(schema.Columns))
		for i := range schema.Columns {
			if i >= len(cells) || cells[i] == "" {
				row[i] = nil
				continue
			}
			row[i] = coerce(cells[i], schema.Columns[i].Type)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *TableSource) readRaw(name string) ([][]string, error) {
	xlsxPath := filepath.Join(s.dir, name+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return readExcel(xlsxPath)
	}
	csvPath := filepath.Join(s.dir, name+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return readCSV(csvPath)
	}
	return nil, fmt.Errorf("%w: table %q has no backing file in %s", core.ErrNotFound, name, s.dir)
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func inferType(cell string) string {
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return "float"
	}
	if _, err := time.Parse(time.RFC3339, cell); err == nil {
		return "timestamp"
	}
	return "text"
}

func coerce(cell, colType string) any {
	switch colType {
	case "float":
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	case "timestamp":
		if t, err := time.Parse(time.RFC3339, cell); err == nil {
			return t
		}
	}
	return cell
}
