package projection

import (
	"math/rand/v2"
	"slices"

	"github.com/poiesic/probe/core"
	"gonum.org/v1/gonum/stat/distuv"
)

// separateFromQuery returns vectors with every one exactly equal to query
// nudged by N(0, 1e-4) noise, so t-SNE never sees a duplicate of the query.
// Other vectors are returned as is.
func separateFromQuery(query []float32, vectors [][]float32, src rand.Source) [][]float32 {
	noise := distuv.Normal{Mu: 0, Sigma: noiseSigma, Src: src}
	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if !slices.Equal(vec, query) {
			out[i] = vec
			continue
		}
		jittered := make([]float32, len(vec))
		for d, v := range vec {
			jittered[d] = v + float32(noise.Rand())
		}
		out[i] = jittered
	}
	return out
}

// Positions lays vectors out in two dimensions. A single vector (or none)
// sits at the origin. Otherwise every component gets N(0, 1e-4) noise
// before t-SNE runs at Perplexity(len(vectors)).
func Positions(vectors [][]float32, src rand.Source) ([]core.Position2D, error) {
	if len(vectors) <= 1 {
		return []core.Position2D{{X: 0, Y: 0}}, nil
	}

	dim := len(vectors[0])
	noise := distuv.Normal{Mu: 0, Sigma: noiseSigma, Src: src}
	points := make([][]float64, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, ErrDimensionMismatch
		}
		points[i] = make([]float64, dim)
		for d, v := range vec {
			points[i][d] = float64(v) + noise.Rand()
		}
	}

	layout := tsne(points, Perplexity(len(points)), src)
	positions := make([]core.Position2D, len(layout))
	for i, p := range layout {
		positions[i] = core.Position2D{X: p[0], Y: p[1]}
	}
	return positions, nil
}
