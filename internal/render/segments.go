package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// segment is a line in data coordinates from (X0, Y0) to (X1, Y1).
type segment struct {
	X0, Y0, X1, Y1 float64
}

// segments draws line segments, optionally with an arrow head at the end.
// It implements plot.Plotter and plot.DataRanger.
type segments struct {
	Segs  []segment
	Style draw.LineStyle
	// HeadLength is the length of each head stroke; zero draws no heads.
	HeadLength vg.Length
}

var (
	_ plot.Plotter    = (*segments)(nil)
	_ plot.DataRanger = (*segments)(nil)
)

func newSegments(c color.Color, width vg.Length, head vg.Length) *segments {
	return &segments{
		Style:      draw.LineStyle{Color: c, Width: width},
		HeadLength: head,
	}
}

func (s *segments) add(x0, y0, x1, y1 float64) {
	s.Segs = append(s.Segs, segment{x0, y0, x1, y1})
}

// headAngle is the half-angle between the shaft and each head stroke.
const headAngle = 25 * math.Pi / 180

func (s *segments) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, sg := range s.Segs {
		x0, y0 := trX(sg.X0), trY(sg.Y0)
		x1, y1 := trX(sg.X1), trY(sg.Y1)
		c.StrokeLine2(s.Style, x0, y0, x1, y1)
		if s.HeadLength <= 0 || (x0 == x1 && y0 == y1) {
			continue
		}
		back := math.Atan2(float64(y0-y1), float64(x0-x1))
		for _, a := range [2]float64{back - headAngle, back + headAngle} {
			hx := x1 + vg.Length(math.Cos(a))*s.HeadLength
			hy := y1 + vg.Length(math.Sin(a))*s.HeadLength
			c.StrokeLine2(s.Style, x1, y1, hx, hy)
		}
	}
}

func (s *segments) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, sg := range s.Segs {
		xmin = math.Min(xmin, math.Min(sg.X0, sg.X1))
		xmax = math.Max(xmax, math.Max(sg.X0, sg.X1))
		ymin = math.Min(ymin, math.Min(sg.Y0, sg.Y1))
		ymax = math.Max(ymax, math.Max(sg.Y0, sg.Y1))
	}
	return xmin, xmax, ymin, ymax
}
