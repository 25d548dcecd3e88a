package preview

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lawnchairsociety/mazeritual/internal/maze"
)

// DefaultSize is the edge length of a saved preview.
const DefaultSize = 6 * vg.Inch

var (
	wallColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	pathColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// newPlot draws walls as unit segments with row 0 at the top, and the
// solution as a line through cell centers.
func newPlot(g *maze.Grid, solution maze.Path, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	w, h := float64(g.Width()), float64(g.Height())
	p.X.Min, p.X.Max = -0.5, w+0.5
	p.Y.Min, p.Y.Max = -h-0.5, 0.5

	segments := []plotter.XYs{
		{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: -h}, {X: 0, Y: -h}, {X: 0, Y: 0}},
	}
	for _, e := range g.WalledEdges() {
		x, y := float64(e.B.Col), -float64(e.B.Row)
		if e.A.Row == e.B.Row {
			// Vertical wall on the west side of B.
			segments = append(segments, plotter.XYs{{X: x, Y: y}, {X: x, Y: y - 1}})
		} else {
			// Horizontal wall on the north side of B.
			segments = append(segments, plotter.XYs{{X: x, Y: y}, {X: x + 1, Y: y}})
		}
	}
	for _, seg := range segments {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return nil, err
		}
		line.Color = wallColor
		line.Width = vg.Points(2)
		p.Add(line)
	}

	if len(solution) > 1 {
		pts := make(plotter.XYs, len(solution))
		for i, c := range solution {
			pts[i] = plotter.XY{X: float64(c.Col) + 0.5, Y: -float64(c.Row) - 0.5}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

// WritePNG encodes a square preview of g to w.
func WritePNG(w io.Writer, g *maze.Grid, solution maze.Path, title string, size vg.Length) error {
	p, err := newPlot(g, solution, title)
	if err != nil {
		return fmt.Errorf("failed to draw maze: %w", err)
	}
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("failed to render maze: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write maze image: %w", err)
	}
	return nil
}

// SavePNG writes a preview of g to path.
func SavePNG(path string, g *maze.Grid, solution maze.Path, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WritePNG(f, g, solution, title, DefaultSize); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
