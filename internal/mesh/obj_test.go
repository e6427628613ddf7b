package mesh

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/validate"
)

type objFile struct {
	header   []string
	vertices [][3]float64
	faces    [][3]int
}

func parseOBJ(t *testing.T, data []byte) objFile {
	t.Helper()
	var out objFile
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		switch fields[0] {
		case "v":
			var v [3]float64
			for i := range v {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				require.NoError(t, err)
				v[i] = f
			}
			out.vertices = append(out.vertices, v)
		case "f":
			var f [3]int
			for i := range f {
				n, err := strconv.Atoi(fields[i+1])
				require.NoError(t, err)
				f[i] = n
			}
			out.faces = append(out.faces, f)
		default:
			out.header = append(out.header, sc.Text())
		}
	}
	return out
}

func TestWriteQuiver(t *testing.T) {
	var buf bytes.Buffer
	placements := []analysis.Placement{
		{X: 0, Y: 0, Z: 0.05, Angle: 0},
		{X: 10, Y: 5, Z: 0.05, Angle: math.Pi / 2},
	}
	require.NoError(t, WriteQuiver(&buf, validate.Valid, placements, 0.5))

	obj := parseOBJ(t, buf.Bytes())
	assert.Equal(t, []string{"mtllib mtl.mtl", "usemtl green"}, obj.header)
	require.Len(t, obj.vertices, 8)
	assert.Equal(t, [][3]int{{1, 2, 4}, {2, 3, 4}, {5, 6, 8}, {6, 7, 8}}, obj.faces)

	// Unrotated glyph scaled by 2*0.5.
	want := [][3]float64{{0.75, 0.5, 0.05}, {-0.75, 0, 0.05}, {0.75, -0.5, 0.05}, {0.25, 0, 0.05}}
	for i, w := range want {
		for k := range w {
			assert.InDelta(t, w[k], obj.vertices[i][k], 1e-12, "vertex %d", i)
		}
	}
	// Quarter turn maps (0.75, 0.5) to (-0.5, 0.75) before translation.
	assert.InDelta(t, 9.5, obj.vertices[4][0], 1e-12)
	assert.InDelta(t, 5.75, obj.vertices[4][1], 1e-12)
}

func TestWriteQuiver_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQuiver(&buf, validate.Unknown, nil, 1))
	assert.Equal(t, "mtllib mtl.mtl\nusemtl gray\n", buf.String())
}

func TestMaterial(t *testing.T) {
	assert.Equal(t, "gray", Material(validate.Unknown))
	assert.Equal(t, "green", Material(validate.Valid))
	assert.Equal(t, "red", Material(validate.Invalid))
	assert.Panics(t, func() { Material(validate.Validity(42)) })
}

func TestWriteMaterialsAndElement(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	dir := fsutil.Dir{FS: fsys, Root: "/out"}
	require.NoError(t, WriteMaterials(dir))

	mtl, err := fsys.ReadFile("/out/mtl.mtl")
	require.NoError(t, err)
	for _, name := range []string{"red", "green", "gray"} {
		assert.Contains(t, string(mtl), "newmtl "+name)
	}

	oc := &analysis.Outcome{
		ElementID:          "d",
		Probed:             true,
		VisualizationIndex: 3,
		Check:              validate.Outcome{Validity: validate.Invalid},
		Placements:         []analysis.Placement{{X: 1, Y: 1, Z: 0}},
	}
	path, err := WriteElement(dir, "model", oc, 0.25)
	require.NoError(t, err)
	assert.Equal(t, "/out/model_3.obj", path)

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	obj := parseOBJ(t, data)
	assert.Contains(t, obj.header, "usemtl red")
	assert.Len(t, obj.vertices, 4)
	assert.Len(t, obj.faces, 2)
}
