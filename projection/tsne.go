package projection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// t-SNE parameters.
const (
	outputDims             = 2
	iterations             = 1000
	earlyExaggeration      = 12.0
	exaggerationIterations = 250
	initialMomentum        = 0.5
	finalMomentum          = 0.8
	minGain                = 0.01
	minLearningRate        = 50.0
	minProbability         = 1e-12
	entropyTolerance       = 1e-5
	maxBetaSteps           = 50
	noiseSigma             = 1e-4
)

// Perplexity returns the t-SNE perplexity used for n points: n/2+1,
// clamped below n.
func Perplexity(n int) float64 {
	p := float64(n)/2 + 1
	if p >= float64(n) {
		p = math.Max(float64(n-1), 1)
	}
	return p
}

// learningRate scales with n as max(n / exaggeration / 4, 50).
func learningRate(n int) float64 {
	return math.Max(float64(n)/earlyExaggeration/4, minLearningRate)
}

// tsne computes an exact (O(n²)) t-SNE embedding of points into two dimensions.
func tsne(points [][]float64, perplexity float64, src rand.Source) [][]float64 {
	n := len(points)
	p := jointProbabilities(pairwiseDistances(points), perplexity)

	noise := distuv.Normal{Mu: 0, Sigma: noiseSigma, Src: src}
	y := make([][]float64, n)
	update := make([][]float64, n)
	gains := make([][]float64, n)
	for i := range n {
		y[i] = make([]float64, outputDims)
		for d := range outputDims {
			y[i][d] = noise.Rand()
		}
		update[i] = make([]float64, outputDims)
		gains[i] = []float64{1, 1}
	}

	rate := learningRate(n)
	num := make([][]float64, n)
	for i := range num {
		num[i] = make([]float64, n)
	}
	grad := make([]float64, outputDims)

	for iter := range iterations {
		exaggeration, momentum := earlyExaggeration, initialMomentum
		if iter >= exaggerationIterations {
			exaggeration, momentum = 1, finalMomentum
		}

		// Student-t kernel
		var sumNum float64
		for i := range n {
			for j := i + 1; j < n; j++ {
				d := floats.Distance(y[i], y[j], 2)
				v := 1 / (1 + d*d)
				num[i][j], num[j][i] = v, v
				sumNum += 2 * v
			}
		}

		for i := range n {
			grad[0], grad[1] = 0, 0
			for j := range n {
				if i == j {
					continue
				}
				q := math.Max(num[i][j]/sumNum, minProbability)
				mult := 4 * (exaggeration*p[i][j] - q) * num[i][j]
				for d := range outputDims {
					grad[d] += mult * (y[i][d] - y[j][d])
				}
			}

			for d := range outputDims {
				if grad[d]*update[i][d] < 0 {
					gains[i][d] += 0.2
				} else {
					gains[i][d] *= 0.8
				}
				gains[i][d] = math.Max(gains[i][d], minGain)
				update[i][d] = momentum*update[i][d] - rate*gains[i][d]*grad[d]
			}
		}

		for i := range n {
			floats.Add(y[i], update[i])
		}
		recentre(y)
	}
	return y
}

func pairwiseDistances(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j], dist[j][i] = d*d, d*d
		}
	}
	return dist
}

// jointProbabilities turns squared distances into the symmetric affinity
// matrix P, searching each row's Gaussian precision so its entropy matches
// log(perplexity).
func jointProbabilities(dist [][]float64, perplexity float64) [][]float64 {
	n := len(dist)
	target := math.Log(perplexity)
	p := make([][]float64, n)

	for i := range n {
		p[i] = make([]float64, n)
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for range maxBetaSteps {
			h := conditionalRow(dist[i], i, beta, p[i])
			diff := h - target
			if math.Abs(diff) < entropyTolerance {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
	}

	var total float64
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := p[i][j] + p[j][i]
			p[i][j], p[j][i] = v, v
			total += 2 * v
		}
	}
	for i := range n {
		for j := range n {
			if i == j {
				p[i][j] = 0
				continue
			}
			p[i][j] = math.Max(p[i][j]/total, minProbability)
		}
	}
	return p
}

// conditionalRow fills row with p(j|i) at precision beta and returns its entropy.
func conditionalRow(dist []float64, i int, beta float64, row []float64) float64 {
	// Shift by the nearest distance so exp never underflows to all zeros.
	nearest := math.Inf(1)
	for j, d := range dist {
		if j != i && d < nearest {
			nearest = d
		}
	}

	var sum, weighted float64
	for j, d := range dist {
		if j == i {
			row[j] = 0
			continue
		}
		row[j] = math.Exp(-(d - nearest) * beta)
		sum += row[j]
		weighted += (d - nearest) * row[j]
	}
	floats.Scale(1/sum, row)
	return math.Log(sum) + beta*weighted/sum
}

func recentre(y [][]float64) {
	mean := make([]float64, outputDims)
	for _, row := range y {
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(y)), mean)
	for _, row := range y {
		floats.Sub(row, mean)
	}
}
