package flowfield

import "gonum.org/v1/gonum/spatial/kdtree"

// indexedPoint is a sample position carrying its offset into Field.samples.
type indexedPoint struct {
	pos [3]float64
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.pos[d] - q.pos[d]
}

func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	var sum float64
	for i := range p.pos {
		d := p.pos[i] - q.pos[i]
		sum += d * d
	}
	return sum
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int { return plane{Dim: d, indexedPoints: p}.Pivot() }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts points along a single dimension for median partitioning.
type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	return p.indexedPoints[i].pos[p.Dim] < p.indexedPoints[j].pos[p.Dim]
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

func buildIndex(samples []Sample) *kdtree.Tree {
	pts := make(indexedPoints, len(samples))
	for i, s := range samples {
		pts[i] = indexedPoint{pos: [3]float64{s.X, s.Y, s.Z}, idx: i}
	}
	return kdtree.New(pts, false)
}
