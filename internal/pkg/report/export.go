package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Report"

// WriteCSV writes the header and every export row.
func WriteCSV(w io.Writer, x *Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(x.Header); err != nil {
		return err
	}
	for cells := range x.Rows() {
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same cells as WriteCSV into a single sheet workbook.
func WriteXLSX(w io.Writer, x *Export) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", toCells(x.Header), excelize.RowOpts{}); err != nil {
		return err
	}
	rowNo := 2
	for cells := range x.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(cells)); err != nil {
			return err
		}
		rowNo++
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ExportFilename names a download, e.g. "purchases-2026-10-19-153000.csv".
func ExportFilename(c Context, at time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", c, at.Format("2006-01-02-150405"), ext)
}
