package forest

import (
	"context"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// Grid lists the values tried for each tunable parameter. Empty slices keep
// the base value.
type Grid struct {
	NumTrees       []int
	MaxDepth       []int
	MinSamplesLeaf []int
}

func DefaultGrid() Grid {
	return Grid{
		NumTrees:       []int{50, 100, 200},
		MaxDepth:       []int{10, 20, 0},
		MinSamplesLeaf: []int{2, 5, 10},
	}
}

type Result struct {
	Params Params
	Score  float64
}

// GridSearch scores every parameter combination by mean R² over k folds
// and returns the best one.
func GridSearch(ctx context.Context, X [][]float64, y []float64, base Params, grid Grid, folds int) (Result, error) {
	if len(X) < 2 {
		return Result{}, ErrNoSamples
	}
	folds = max(2, min(folds, len(X)))
	parts := kFold(len(X), folds, base.Seed)

	best := Result{}
	found := false
	for _, trees := range orDefault(grid.NumTrees, base.NumTrees) {
		for _, depth := range orDefault(grid.MaxDepth, base.MaxDepth) {
			for _, leaf := range orDefault(grid.MinSamplesLeaf, base.MinSamplesLeaf) {
				p := base
				p.NumTrees, p.MaxDepth, p.MinSamplesLeaf = trees, depth, leaf
				p.OnTreeDone = nil

				score, err := crossValidate(ctx, X, y, p, parts)
				if err != nil {
					return Result{}, errors.Wrapf(err, "trees=%d depth=%d leaf=%d", trees, depth, leaf)
				}
				if !found || score > best.Score {
					best = Result{Params: p, Score: score}
					found = true
				}
			}
		}
	}
	best.Params.OnTreeDone = base.OnTreeDone
	return best, nil
}

func crossValidate(ctx context.Context, X [][]float64, y []float64, p Params, parts [][]int) (float64, error) {
	total := 0.0
	for k, test := range parts {
		var train []int
		for j, part := range parts {
			if j != k {
				train = append(train, part...)
			}
		}
		tx, ty := Subset(X, y, train)
		vx, vy := Subset(X, y, test)
		f, err := Fit(ctx, tx, ty, p)
		if err != nil {
			return 0, err
		}
		total += R2(vy, f.PredictAll(vx))
	}
	return total / float64(len(parts)), nil
}

func kFold(n, k int, seed uint64) [][]int {
	perm := rand.New(rand.NewPCG(seed, seed+7)).Perm(n)
	parts := make([][]int, k)
	for i, j := range perm {
		parts[i%k] = append(parts[i%k], j)
	}
	return parts
}

func orDefault(vals []int, def int) []int {
	if len(vals) == 0 {
		return []int{def}
	}
	return vals
}
