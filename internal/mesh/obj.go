// Package mesh writes the per-door quiver glyphs as Wavefront OBJ meshes that
// share one material library.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/validate"
)

// MaterialLibrary is the file name of the shared material library.
const MaterialLibrary = "mtl.mtl"

const materialLibrary = `newmtl red
Kd 1.0 0.0 0.0

newmtl green
Kd 0.0 1.0 0.0

newmtl gray
Kd 0.6 0.6 0.6
`

// glyph is the arrow outline in units of twice the grid spacing, pointing
// along -x before rotation.
var glyph = [4][2]float64{
	{0.75, 0.5},
	{-0.75, 0},
	{0.75, -0.5},
	{0.25, 0},
}

var glyphFaces = [2][3]int{{0, 1, 3}, {1, 2, 3}}

// Material returns the material name used for v. It panics on values
// outside the enumeration.
func Material(v validate.Validity) string {
	switch v {
	case validate.Unknown:
		return "gray"
	case validate.Valid:
		return "green"
	case validate.Invalid:
		return "red"
	}
	panic(fmt.Sprintf("mesh: no material for %v", v))
}

// FileName returns the mesh artifact name for visualization index n.
func FileName(id string, n int) string { return fmt.Sprintf("%s_%d.obj", fsutil.SafeName(id), n) }

// WriteMaterials writes the shared material library into dir.
func WriteMaterials(dir fsutil.Dir) error {
	return dir.WriteFile(MaterialLibrary, []byte(materialLibrary))
}

// WriteQuiver writes one arrow glyph per placement. Each glyph is scaled by
// twice spacing, rotated by the placement angle and split into two triangles.
func WriteQuiver(w io.Writer, v validate.Validity, placements []analysis.Placement, spacing float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "mtllib %s\n", MaterialLibrary)
	fmt.Fprintf(bw, "usemtl %s\n", Material(v))

	scale := 2 * spacing
	base := 1
	for _, p := range placements {
		s, c := math.Sincos(p.Angle)
		for _, g := range glyph {
			gx, gy := g[0]*scale, g[1]*scale
			fmt.Fprintf(bw, "v %g %g %g\n", c*gx-s*gy+p.X, s*gx+c*gy+p.Y, p.Z)
		}
		for _, f := range glyphFaces {
			fmt.Fprintf(bw, "f %d %d %d\n", base+f[0], base+f[1], base+f[2])
		}
		base += len(glyph)
	}
	return bw.Flush()
}

// WriteElement writes the quiver mesh for one probed element into dir.
func WriteElement(dir fsutil.Dir, id string, oc *analysis.Outcome, spacing float64) (string, error) {
	name := FileName(id, oc.VisualizationIndex)
	f, err := dir.Create(name)
	if err != nil {
		return "", err
	}
	if err := WriteQuiver(f, oc.Validity(), oc.Placements, spacing); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dir.Path(name), nil
}
