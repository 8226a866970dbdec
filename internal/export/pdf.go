// Package export renders arrangements to files: a printable PDF board
// sheet, a QR share card, SVG snapshots, spreadsheets and DXF outlines.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/tangram/internal/engine"
	"github.com/piwi3910/tangram/internal/model"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 10.0
	boardSizeMM  = 150.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	tableRowH    = 5.5
)

// ExportPDF writes a one-page board sheet: the board grid, the target
// silhouette (dashed), every piece in its colour and a pose table. When
// report is non-nil its completeness and violations are listed as well.
func ExportPDF(path string, arr model.Arrangement, targets []model.TargetDefinition, report *engine.Report) error {
	if len(arr.Pieces) == 0 && len(targets) == 0 {
		return fmt.Errorf("nothing to export")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	renderHeader(pdf, arr, len(targets))

	scale := boardSizeMM / model.BoardSize
	offsetX := marginLeft + (pageWidth-marginLeft-marginRight-boardSizeMM)/2
	offsetY := drawAreaTop
	toPage := func(p model.Point2D) fpdf.PointType {
		return fpdf.PointType{X: offsetX + p.X*scale, Y: offsetY + p.Y*scale}
	}

	drawBoard(pdf, offsetX, offsetY, scale)

	// Target silhouette
	pdf.SetDrawColor(90, 90, 90)
	pdf.SetLineWidth(0.4)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	for _, td := range targets {
		outline := model.PlacedPiece{Type: td.Type}.OutlineAt(td.Pose())
		pdf.Polygon(pagePoints(outline, toPage), "D")
	}
	pdf.SetDashPattern([]float64{}, 0)

	// Pieces
	for _, p := range arr.Pieces {
		col := p.Type.Color()
		pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Polygon(pagePoints(p.Outline(), toPage), "FD")
		if p.Locked {
			c := toPage(p.Outline().Centroid())
			pdf.SetFillColor(30, 30, 30)
			pdf.Circle(c.X, c.Y, 0.8, "F")
		}
	}

	y := offsetY + boardSizeMM + 8
	y = renderPoseTable(pdf, arr.Pieces, y)
	if report != nil {
		renderReport(pdf, *report, y+4)
	}

	return pdf.OutputFileAndClose(path)
}

func pagePoints(o model.Outline, toPage func(model.Point2D) fpdf.PointType) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(o))
	for i, v := range o {
		pts[i] = toPage(v)
	}
	return pts
}

func renderHeader(pdf *fpdf.Fpdf, arr model.Arrangement, targetCount int) {
	title := arr.Name
	if title == "" {
		title = "Untitled arrangement"
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Pieces: %d | Targets: %d | Area: %.2f of %.0f sq units",
		len(arr.Pieces), targetCount, piecesArea(arr.Pieces), model.TotalArea())
	if arr.ID != "" {
		stats += " | " + arr.ID
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")
}

// drawBoard draws the board background with a line every unit.
func drawBoard(pdf *fpdf.Fpdf, x, y, scale float64) {
	size := model.BoardSize * scale
	pdf.SetFillColor(245, 242, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, size, size, "FD")

	pdf.SetDrawColor(215, 215, 215)
	pdf.SetLineWidth(0.1)
	for i := 1; i < int(model.BoardSize); i++ {
		d := float64(i) * scale
		pdf.Line(x+d, y, x+d, y+size)
		pdf.Line(x, y+d, x+size, y+d)
	}
}

func renderPoseTable(pdf *fpdf.Fpdf, pieces []model.PlacedPiece, y float64) float64 {
	cols := []struct {
		title string
		width float64
	}{
		{"ID", 28}, {"Type", 40}, {"X", 22}, {"Y", 22}, {"Rotation", 28}, {"Mirrored", 20}, {"Locked", 20},
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetXY(marginLeft, y)
	for _, c := range cols {
		pdf.CellFormat(c.width, tableRowH, c.title, "1", 0, "C", true, 0, "")
	}
	y += tableRowH

	pdf.SetFont("Helvetica", "", 8)
	for _, p := range pieces {
		if y > pageHeight-marginBottom-tableRowH {
			break
		}
		pdf.SetXY(marginLeft, y)
		cells := []string{
			p.ID,
			p.Type.String(),
			fmt.Sprintf("%.3f", p.Pose.X),
			fmt.Sprintf("%.3f", p.Pose.Y),
			fmt.Sprintf("%d (%.0f deg)", model.RotationIndex(p.Pose.Theta), model.AngleForIndex(model.RotationIndex(p.Pose.Theta))*180/math.Pi),
			yesNo(p.Pose.Mirrored),
			yesNo(p.Locked),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, tableRowH, cells[i], "1", 0, "C", false, 0, "")
		}
		y += tableRowH
	}
	return y
}

func renderReport(pdf *fpdf.Fpdf, report engine.Report, y float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginLeft, y)
	status := "Incomplete"
	if report.Complete {
		status = "Complete"
	}
	pdf.CellFormat(60, 6, "Status: "+status, "", 0, "L", false, 0, "")
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for _, v := range report.Violations {
		if y > pageHeight-marginBottom-4 {
			return
		}
		if v.Severity == model.SeverityError {
			pdf.SetTextColor(180, 0, 0)
		} else {
			pdf.SetTextColor(150, 100, 0)
		}
		pdf.SetXY(marginLeft+3, y)
		pdf.CellFormat(pageWidth-marginLeft-marginRight-3, 4, v.Error(), "", 0, "L", false, 0, "")
		y += 4
	}
	pdf.SetTextColor(0, 0, 0)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func piecesArea(pieces []model.PlacedPiece) float64 {
	var total float64
	for _, p := range pieces {
		total += p.Area()
	}
	return math.Round(total*100) / 100
}
