package forest

import (
	"math"
	"math/rand/v2"
)

// R2 is the coefficient of determination of pred against y.
func R2(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		ssRes += (v - pred[i]) * (v - pred[i])
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func RMSE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i, v := range y {
		s += (v - pred[i]) * (v - pred[i])
	}
	return math.Sqrt(s / float64(len(y)))
}

// TrainTestSplit shuffles 0..n-1 with seed and holds out testFrac of them.
// At least one sample stays on each side when n >= 2.
func TrainTestSplit(n int, testFrac float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	k := int(math.Ceil(float64(n)*testFrac - 1e-9))
	if n >= 2 {
		k = max(1, min(k, n-1))
	} else {
		k = 0
	}
	return perm[k:], perm[:k]
}

// Subset picks the rows of X and y at idx.
func Subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	sx := make([][]float64, len(idx))
	sy := make([]float64, len(idx))
	for i, j := range idx {
		sx[i] = X[j]
		sy[i] = y[j]
	}
	return sx, sy
}
