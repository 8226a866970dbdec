package export

import (
	"fmt"
	"io"
	"math"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
)

// SVGOptions controls the SVG snapshot.
type SVGOptions struct {
	Size        int  // canvas edge in pixels
	Margin      int  // pixels kept free around the board
	Grid        bool // draw a line every unit
	ShowTargets bool
	Labels      bool // write each piece's id at its centroid
}

// DefaultSVGOptions returns a 400px snapshot with grid and targets.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Size: 400, Margin: 10, Grid: true, ShowTargets: true}
}

// WriteSVG renders the board as an SVG document. Coordinates go through
// the same unit-to-screen transform the interactive board uses.
func WriteSVG(w io.Writer, arr model.Arrangement, targets []model.TargetDefinition, opts SVGOptions) error {
	if opts.Size <= 0 {
		return fmt.Errorf("invalid SVG size %d", opts.Size)
	}
	size := float64(opts.Size)
	t := geom.NewTransform(size, size, float64(opts.Margin))

	canvas := svg.New(w)
	canvas.Start(opts.Size, opts.Size)
	canvas.Title(arr.Name)

	origin := t.ToScreen(model.Point2D{})
	edge := int(math.Round(model.BoardSize * t.Scale))
	canvas.Rect(px(origin.X), px(origin.Y), edge, edge, "fill:#f5f2eb;stroke:#646464;stroke-width:2")

	if opts.Grid {
		canvas.Gstyle("stroke:#d7d7d7;stroke-width:1")
		for i := 1; i < int(model.BoardSize); i++ {
			a := t.ToScreen(model.Point2D{X: float64(i)})
			b := t.ToScreen(model.Point2D{X: float64(i), Y: model.BoardSize})
			canvas.Line(px(a.X), px(a.Y), px(b.X), px(b.Y))
			c := t.ToScreen(model.Point2D{Y: float64(i)})
			d := t.ToScreen(model.Point2D{X: model.BoardSize, Y: float64(i)})
			canvas.Line(px(c.X), px(c.Y), px(d.X), px(d.Y))
		}
		canvas.Gend()
	}

	if opts.ShowTargets && len(targets) > 0 {
		canvas.Gid("targets")
		for _, td := range targets {
			xs, ys := screenPolygon(t, model.PlacedPiece{Type: td.Type}.OutlineAt(td.Pose()))
			canvas.Polygon(xs, ys, "fill:none;stroke:#5a5a5a;stroke-width:1.5;stroke-dasharray:6,4")
		}
		canvas.Gend()
	}

	canvas.Gid("pieces")
	for _, p := range arr.Pieces {
		col := p.Type.Color()
		xs, ys := screenPolygon(t, p.Outline())
		style := fmt.Sprintf("fill:rgb(%d,%d,%d);stroke:#1e1e1e;stroke-width:1", col.R, col.G, col.B)
		if p.Locked {
			style += ";fill-opacity:0.85"
		}
		canvas.Polygon(xs, ys, style)
		if opts.Labels {
			c := t.ToScreen(p.Outline().Centroid())
			canvas.Text(px(c.X), px(c.Y), p.ID, "font-size:9px;text-anchor:middle;fill:#000")
		}
	}
	canvas.Gend()

	canvas.End()
	return nil
}

// ExportSVG writes the SVG snapshot to path.
func ExportSVG(path string, arr model.Arrangement, targets []model.TargetDefinition, opts SVGOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteSVG(f, arr, targets, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func screenPolygon(t geom.Transform, o model.Outline) (xs, ys []int) {
	xs = make([]int, len(o))
	ys = make([]int, len(o))
	for i, v := range t.OutlineToScreen(o) {
		xs[i], ys[i] = px(v.X), px(v.Y)
	}
	return xs, ys
}

func px(v float64) int { return int(math.Round(v)) }
