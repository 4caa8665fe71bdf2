package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"goprove/domain/core"
	"goprove/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func writeCSVTable(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
}

func TestReadCSVTable(t *testing.T) {
	dir := t.TempDir()
	writeCSVTable(t, dir, "bars", "t,symbol,close\n2024-01-02T09:30:00Z,TEST,100.5\n2024-01-02T09:31:00Z,TEST,101.0\n")

	source := NewTableSource(dir)
	ctx := context.Background()

	schema, err := source.ReadTableSchema(ctx, "bars")
	assert.NoError(t, err)
	assert.Equal(t, "bars", schema.Name)
	assert.Len(t, schema.Columns, 3)
	assert.Equal(t, "timestamp", schema.Columns[0].Type)
	assert.Equal(t, "text", schema.Columns[1].Type)
	assert.Equal(t, "float", schema.Columns[2].Type)

	rows, err := source.ReadTableRowsOrdered(ctx, "bars", dataset.Ordering{})
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 100.5, rows[0][2])
}

func TestReadExcelTable(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	assert.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"t", "v"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"1", "10.5"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2", "20.5"}))
	assert.NoError(t, f.SaveAs(filepath.Join(dir, "bars.xlsx")))

	source := NewTableSource(dir)
	rows, err := source.ReadTableRowsOrdered(context.Background(), "bars", dataset.Ordering{})
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMissingTable(t *testing.T) {
	source := NewTableSource(t.TempDir())

	_, err := source.ReadTableSchema(context.Background(), "ghost")
	assert.True(t, core.IsNotFoundError(err), "got %v", err)
}

func TestEmptyCellsBecomeNil(t *testing.T) {
	dir := t.TempDir()
	writeCSVTable(t, dir, "bars", "t,v\n1,10\n2,\n")

	source := NewTableSource(dir)
	rows, err := source.ReadTableRowsOrdered(context.Background(), "bars", dataset.Ordering{})
	assert.NoError(t, err)
	assert.Equal(t, 10.0, rows[0][1])
	assert.Nil(t, rows[1][1])
}
