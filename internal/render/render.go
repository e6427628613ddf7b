// Package render draws the per-band diagnostic figures: a scatter of the flow
// slice and a quiver of the descending gradient, each overlaid with element
// outlines and the probe arrow of every door checked in the band.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/elevation"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/geom"
	"github.com/banshee-data/doorflow/internal/monitoring"
	"github.com/banshee-data/doorflow/internal/validate"
)

// DefaultDPI is the output resolution of the PNG figures.
const DefaultDPI = 600

// figureSize is the edge length of the square figures.
const figureSize = 6 * vg.Inch

var logf = monitoring.Prefixed("render")

var (
	doorColor = color.Black
	wallColor = color.Gray{Y: 0x99}
)

// ValidityColor returns the probe arrow colour for v.
func ValidityColor(v validate.Validity) color.Color {
	switch v {
	case validate.Valid:
		return color.RGBA{G: 0xc0, A: 0xff}
	case validate.Invalid:
		return color.RGBA{R: 0xe0, A: 0xff}
	default:
		return color.Gray{Y: 0x99}
	}
}

// Scene is everything drawn for one band.
type Scene struct {
	Report  analysis.BandReport
	Spacing float64
	Doors   []analysis.Element // outlines of the doors checked in the band
	Walls   []analysis.Element // context outlines
}

// NewScene selects the outlines to draw for report: the doors validated in
// the band and the walls whose floor, raised by headOffset, lies in it.
func NewScene(report analysis.BandReport, spacing float64, doors, walls []analysis.Element, headOffset float64) Scene {
	s := Scene{Report: report, Spacing: spacing}
	checked := make(map[string]bool, len(report.Doors))
	for _, d := range report.Doors {
		checked[d.ID] = true
	}
	for _, d := range doors {
		if checked[d.ID] && d.HasGeometry {
			s.Doors = append(s.Doors, d)
		}
	}
	for _, w := range walls {
		if inBand(w, report.Band, headOffset) {
			s.Walls = append(s.Walls, w)
		}
	}
	return s
}

func inBand(el analysis.Element, b elevation.Band, headOffset float64) bool {
	bounds, ok := geom.BoundsOf(el.WorldVertices())
	return ok && b.Contains(bounds.Min.Z+headOffset)
}

// PNGName returns the artifact name of figure kind (0 scatter, 1 quiver) for band.
func PNGName(kind, band int) string { return fmt.Sprintf("flow-%d-%d.png", kind, band) }

// ScatterPlot draws the slice samples coloured by (value - 1) * spacing.
func ScatterPlot(s Scene) (*plot.Plot, error) {
	p := newPlot(fmt.Sprintf("Band %d %v: distance from exterior", s.Report.Index, s.Report.Band))

	samples := s.Report.Slice.Samples
	if len(samples) > 0 {
		xys := make(plotter.XYs, len(samples))
		dist := make([]float64, len(samples))
		for i, smp := range samples {
			xys[i] = plotter.XY{X: smp.X, Y: smp.Y}
			dist[i] = (smp.Value - 1) * s.Spacing
		}
		lo, hi := floats.Min(dist), floats.Max(dist)
		if hi <= lo {
			hi = lo + 1
		}
		cmap := moreland.SmoothBlueRed()
		cmap.SetMin(lo)
		cmap.SetMax(hi)

		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			c, err := cmap.At(dist[i])
			if err != nil {
				c = color.Black
			}
			return draw.GlyphStyle{Color: c, Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}

	addOverlays(p, s)
	return p, nil
}

// QuiverPlot draws the descending gradient of the band grid.
func QuiverPlot(s Scene) (*plot.Plot, error) {
	p := newPlot(fmt.Sprintf("Band %d %v: flow direction", s.Report.Index, s.Report.Band))

	gf := s.Report.Gradient
	length := gf.Spacing * float64(max(gf.Stride, 1)) * 0.8
	quiver := newSegments(color.RGBA{B: 0x90, A: 0xff}, vg.Points(0.5), vg.Points(1.5))
	for _, v := range gf.Vectors {
		quiver.add(v.X, v.Y, v.X-v.DX*length, v.Y-v.DY*length)
	}
	if len(quiver.Segs) > 0 {
		p.Add(quiver)
	}

	addOverlays(p, s)
	return p, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	return p
}

func outline(el analysis.Element, c color.Color) *segments {
	world := el.WorldVertices()
	seg := newSegments(c, vg.Points(0.75), 0)
	for _, e := range el.Edges {
		a, b := world[e[0]], world[e[1]]
		seg.add(a.X, a.Y, b.X, b.Y)
	}
	return seg
}

func addOverlays(p *plot.Plot, s Scene) {
	for _, w := range s.Walls {
		if seg := outline(w, wallColor); len(seg.Segs) > 0 {
			p.Add(seg)
		}
	}
	for _, d := range s.Doors {
		if seg := outline(d, doorColor); len(seg.Segs) > 0 {
			p.Add(seg)
		}
	}
	for _, d := range s.Report.Doors {
		arrow := newSegments(ValidityColor(d.Validity), vg.Points(1.5), vg.Points(4))
		arrow.add(d.Probe.Near.X, d.Probe.Near.Y, d.Probe.Far.X, d.Probe.Far.Y)
		p.Add(arrow)
	}
	squareAxes(p)
}

// squareAxes widens the shorter axis so both span the same range.
func squareAxes(p *plot.Plot) {
	xs, ys := p.X.Max-p.X.Min, p.Y.Max-p.Y.Min
	if math.IsInf(xs, 0) || math.IsInf(ys, 0) || math.IsNaN(xs) || math.IsNaN(ys) {
		return
	}
	if xs > ys {
		pad := (xs - ys) / 2
		p.Y.Min, p.Y.Max = p.Y.Min-pad, p.Y.Max+pad
	} else {
		pad := (ys - xs) / 2
		p.X.Min, p.X.Max = p.X.Min-pad, p.X.Max+pad
	}
}

// WritePNG encodes p as a square PNG at dpi.
func WritePNG(w io.Writer, p *plot.Plot, dpi int) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(figureSize, figureSize), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}

// WriteBand writes both PNG figures of s into dir and returns their paths.
func WriteBand(dir fsutil.Dir, s Scene, dpi int) ([]string, error) {
	builders := []func(Scene) (*plot.Plot, error){ScatterPlot, QuiverPlot}
	paths := make([]string, 0, len(builders))
	var errs []error
	for kind, build := range builders {
		p, err := build(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		name := PNGName(kind, s.Report.Index)
		if err := writeTo(dir, name, func(w io.Writer) error { return WritePNG(w, p, dpi) }); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		paths = append(paths, dir.Path(name))
	}
	logf("band %d: wrote %d figures", s.Report.Index, len(paths))
	return paths, errors.Join(errs...)
}

func writeTo(dir fsutil.Dir, name string, write func(io.Writer) error) error {
	f, err := dir.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
