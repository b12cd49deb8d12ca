// Package export persists the pipeline's logical tables as delimited
// text or spreadsheet files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xuri/excelize/v2"

	"bdtdharvest/internal/domain"
	"bdtdharvest/internal/ports"
)

// CSVWriter writes each table to <dir>/<name>.csv.
type CSVWriter struct {
	Dir string
}

var _ ports.TableWriter = CSVWriter{}

// Write renders the table as CSV, quoting handled by the renderer.
func (w CSVWriter) Write(name string, t domain.Table) error {
	path := filepath.Join(w.Dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	tw := table.NewWriter()
	tw.SetOutputMirror(f)
	fill(tw, t, len(t.Rows))
	tw.RenderCSV()

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ExcelWriter writes each table to <dir>/<name>.xlsx.
type ExcelWriter struct {
	Dir string
}

var _ ports.TableWriter = ExcelWriter{}

// Write materializes the table on the workbook's first sheet.
func (w ExcelWriter) Write(name string, t domain.Table) error {
	path := filepath.Join(w.Dir, name+".xlsx")
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := writeRow(f, sheet, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell (%d,%d): %w", col+1, rowNum, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

// Preview renders up to maxRows of the table for the console summary.
func Preview(out io.Writer, t domain.Table, maxRows int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	fill(tw, t, maxRows)
	if len(t.Rows) > maxRows {
		tw.AppendFooter(table.Row{fmt.Sprintf("... %d more rows", len(t.Rows)-maxRows)})
	}
	tw.Render()
}

func fill(tw table.Writer, t domain.Table, maxRows int) {
	// column names are data, not decoration: no upper-casing
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for i, row := range t.Rows {
		if i >= maxRows {
			break
		}
		cells := make(table.Row, len(row))
		for j, v := range row {
			cells[j] = v
		}
		tw.AppendRow(cells)
	}
}
