package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/doorflow/internal/fsutil"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// HTMLName returns the artifact name of the interactive figure for band.
func HTMLName(band int) string { return fmt.Sprintf("flow-%d.html", band) }

// WriteHTML renders the averaged grid of s as an interactive scatter page.
// Doors checked in the band are added as a second series at their centres.
func WriteHTML(w io.Writer, s Scene) error {
	data := make([]opts.ScatterData, 0)
	var values []float64
	if g := s.Report.Grid; g != nil {
		for i := 0; i < g.NX; i++ {
			for j := 0; j < g.NY; j++ {
				v, ok := g.At(i, j)
				if !ok {
					continue
				}
				x, y := g.Origin(i, j)
				data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
				values = append(values, v)
			}
		}
	}
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}

	doors := make([]opts.ScatterData, 0, len(s.Report.Doors))
	for _, d := range s.Report.Doors {
		doors = append(doors, opts.ScatterData{
			Name:  fmt.Sprintf("%s %s", d.ID, d.Validity),
			Value: []interface{}{d.Probe.Center.X, d.Probe.Center.Y},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Door flow check", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Band %d %v", s.Report.Index, s.Report.Band),
			Subtitle: fmt.Sprintf("cells=%d samples=%d doors=%d", len(data), s.Report.Slice.Len(), len(doors)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("flow", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("doors", doors, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteBandHTML writes the interactive figure of s into dir.
func WriteBandHTML(dir fsutil.Dir, s Scene) (string, error) {
	name := HTMLName(s.Report.Index)
	if err := writeTo(dir, name, func(w io.Writer) error { return WriteHTML(w, s) }); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return dir.Path(name), nil
}
