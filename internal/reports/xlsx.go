package reports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"docverify/internal/api"
	"docverify/internal/fileutil"
	"docverify/internal/present"
)

// ExportXLSX writes one worksheet per result view to path. The workbook
// carries the same lines and tables the terminal renderer shows.
func ExportXLSX(resp *api.ResultsResponse, path string) error {
	if resp == nil || resp.ValidationResult == nil {
		return errors.New("export workbook: no validation result")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}

	views := present.RenderAll(resp, present.AllViews())
	for i, view := range views {
		sheet := view.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("export workbook: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("export workbook: sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, view, bold); err != nil {
			return fmt.Errorf("export workbook: sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	if _, err := fileutil.WriteAtomic(path, buf, 0o644, nil); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, view present.Rendered, headerStyle int) error {
	row := 1
	set := func(col, r int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	if err := set(1, row, view.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", headerStyle); err != nil {
		return err
	}
	row += 2
	for _, line := range view.Lines {
		if err := set(1, row, line); err != nil {
			return err
		}
		row++
	}

	if view.Table != nil && len(view.Table.Header) > 0 {
		row++
		for col, header := range view.Table.Header {
			if err := set(col+1, row, header); err != nil {
				return err
			}
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(view.Table.Header), row)
		if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
			return err
		}
		row++
		for _, values := range view.Table.Rows {
			for col, value := range values {
				if err := set(col+1, row, value); err != nil {
					return err
				}
			}
			row++
		}
	}

	if len(view.Notes) > 0 {
		row++
		for _, note := range view.Notes {
			if err := set(1, row, note); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(sheet, "A", "D", 28)
}
