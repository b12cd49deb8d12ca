package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bdtdharvest/internal/domain"
)

func sampleTable() domain.Table {
	return domain.Table{
		Columns: []string{"ID", "Título", "PDF"},
		Rows: [][]string{
			{"A", "Tese, com vírgula", "A_0.pdf"},
			{"B", "Tese B", ""},
		},
	}
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, CSVWriter{Dir: dir}.Write("data-search", sampleTable()))

	raw, err := os.ReadFile(filepath.Join(dir, "data-search.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ID,Título,PDF", lines[0])
	// the comma-bearing title must come out quoted
	require.Contains(t, lines[1], `"Tese, com vírgula"`)
}

func TestExcelWriter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, ExcelWriter{Dir: dir}.Write("data", sampleTable()))

	f, err := excelize.OpenFile(filepath.Join(dir, "data.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	header, err := f.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	require.Equal(t, "Título", header)

	cell, err := f.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	require.Equal(t, "A_0.pdf", cell)
}

func TestPreviewCapsRows(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	Preview(&sb, sampleTable(), 1)

	out := sb.String()
	require.Contains(t, out, "Tese, com vírgula")
	require.NotContains(t, out, "Tese B")
	require.Contains(t, out, "1 more rows")
}
