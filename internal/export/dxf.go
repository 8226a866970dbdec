package export

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/piwi3910/tangram/internal/model"
)

// ExportDXF writes every piece as a closed LWPOLYLINE in unit coordinates.
// Vertices follow the shape library order, so ImportDXF recovers the same
// poses from the file.
func ExportDXF(path string, pieces []model.PlacedPiece) error {
	if len(pieces) == 0 {
		return fmt.Errorf("no pieces to export")
	}

	d := dxf.NewDrawing()
	for _, p := range pieces {
		outline := p.Outline()
		verts := make([][]float64, len(outline))
		for i, v := range outline {
			verts[i] = []float64{v.X, v.Y}
		}
		if _, err := d.LwPolyline(true, verts...); err != nil {
			return fmt.Errorf("failed to add outline for %s: %w", p.ID, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}
