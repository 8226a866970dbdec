package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/tangram/internal/model"
)

// PieceSheetHeader is the column layout of the "Pieces" sheet. The target
// importer reads the same columns back.
var PieceSheetHeader = []string{"ID", "Type", "X", "Y", "Rotation Index", "Mirrored", "Locked"}

// ExportExcel writes the arrangement to an .xlsx workbook with a "Pieces"
// sheet (one row per piece) and, when targets are given, a "Targets" sheet
// in the importable target layout.
func ExportExcel(path string, arr model.Arrangement, targets []model.TargetDefinition) error {
	f := excelize.NewFile()
	defer f.Close()

	const pieces = "Pieces"
	if err := f.SetSheetName("Sheet1", pieces); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeRow(f, pieces, 1, toCells(PieceSheetHeader)); err != nil {
		return err
	}
	for i, p := range arr.Pieces {
		row := []any{
			p.ID,
			p.Type.String(),
			round3(p.Pose.X),
			round3(p.Pose.Y),
			model.RotationIndex(p.Pose.Theta),
			p.Pose.Mirrored,
			p.Locked,
		}
		if err := writeRow(f, pieces, i+2, row); err != nil {
			return err
		}
	}

	if len(targets) > 0 {
		const sheet = "Targets"
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add targets sheet: %w", err)
		}
		if err := writeRow(f, sheet, 1, toCells([]string{"Type", "X", "Y", "Rotation Index", "Mirrored"})); err != nil {
			return err
		}
		for i, td := range targets {
			row := []any{td.Type.String(), round3(td.Position.X), round3(td.Position.Y), model.RotationIndex(td.Rotation), td.Mirrored}
			if err := writeRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
