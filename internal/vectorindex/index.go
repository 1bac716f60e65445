// Package vectorindex is an exact, in-memory nearest-neighbour index over
// dense vectors using Euclidean distance.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyIndex        = errors.New("vector index needs at least one vector")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidK          = errors.New("k must be positive")
)

// Hit is one search result. Index is the position of the vector in the
// slice the index was built from; Distance is the squared L2 distance.
type Hit struct {
	Index    int     `json:"index"`
	Distance float32 `json:"distance"`
}

// Index is read-only after Build and safe for concurrent searches.
type Index struct {
	dim  int
	data []float32 // row-major N x dim
	n    int
}

// Build copies vectors into a flat index. All vectors must have the same
// non-zero dimension.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &Index{dim: dim, data: data, n: len(vectors)}, nil
}

func (x *Index) Len() int       { return x.n }
func (x *Index) Dimension() int { return x.dim }

// Search returns the k nearest vectors to query, closest first. Equal
// distances keep insertion order. k larger than Len returns every vector.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k > x.n {
		k = x.n
	}

	hits := make([]Hit, x.n)
	for i := 0; i < x.n; i++ {
		row := x.data[i*x.dim : (i+1)*x.dim]
		hits[i] = Hit{Index: i, Distance: squaredL2(query, row)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
