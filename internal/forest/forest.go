// Package forest implements a random forest of CART regression trees.
package forest

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSamples = errors.New("forest: no training samples")
	ErrShape     = errors.New("forest: inconsistent sample shape")
)

// Params controls how a forest is grown.
type Params struct {
	NumTrees       int
	MaxDepth       int // 0 means unlimited
	MinSamplesLeaf int
	MaxFeatures    int // 0 means a third of the features
	Bootstrap      bool
	Seed           uint64
	Workers        int

	// OnTreeDone is called once per finished tree, from any goroutine.
	OnTreeDone func()
}

func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       12,
		MinSamplesLeaf: 5,
		Bootstrap:      true,
		Seed:           42,
	}
}

func (p Params) normalized(features int) Params {
	if p.NumTrees < 1 {
		p.NumTrees = 1
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MaxFeatures <= 0 {
		p.MaxFeatures = (features + 2) / 3
	}
	if p.MaxFeatures > features {
		p.MaxFeatures = features
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Node is one split or leaf of a tree. Leaves have Left == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

type Tree struct {
	Nodes []Node
}

func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type Forest struct {
	Trees       []Tree
	NumFeatures int
}

// Fit grows a forest on X (one row per sample) and targets y. Trees are
// built concurrently; each tree draws from its own seeded source so the
// result only depends on p.Seed.
func Fit(ctx context.Context, X [][]float64, y []float64, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	if len(X) != len(y) {
		return nil, errors.Wrapf(ErrShape, "%d rows, %d targets", len(X), len(y))
	}
	nf := len(X[0])
	for i, row := range X {
		if len(row) != nf {
			return nil, errors.Wrapf(ErrShape, "row %d has %d features, want %d", i, len(row), nf)
		}
	}
	p = p.normalized(nf)

	f := &Forest{Trees: make([]Tree, p.NumTrees), NumFeatures: nf}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := 0; i < p.NumTrees; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &builder{
				X:   X,
				y:   y,
				p:   p,
				rng: rand.New(rand.NewPCG(p.Seed, uint64(i)+1)),
			}
			f.Trees[i] = b.grow()
			if p.OnTreeDone != nil {
				p.OnTreeDone()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "fit forest")
	}
	return f, nil
}

// Predict averages the tree outputs for one sample.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	s := 0.0
	for i := range f.Trees {
		s += f.Trees[i].Predict(x)
	}
	return s / float64(len(f.Trees))
}

func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

type builder struct {
	X     [][]float64
	y     []float64
	p     Params
	rng   *rand.Rand
	nodes []Node
}

func (b *builder) grow() Tree {
	n := len(b.X)
	idx := make([]int, n)
	if b.p.Bootstrap {
		for i := range idx {
			idx[i] = b.rng.IntN(n)
		}
	} else {
		for i := range idx {
			idx[i] = i
		}
	}
	b.split(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) leaf(idx []int) int {
	s := 0.0
	for _, i := range idx {
		s += b.y[i]
	}
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Value: s / float64(len(idx))})
	return len(b.nodes) - 1
}

type candidate struct {
	feature   int
	threshold float64
	gain      float64
	ok        bool
}

func (b *builder) split(idx []int, depth int) int {
	minLeaf := b.p.MinSamplesLeaf
	if (b.p.MaxDepth > 0 && depth >= b.p.MaxDepth) || len(idx) < 2*minLeaf || constant(b.y, idx) {
		return b.leaf(idx)
	}

	best := b.bestSplit(idx)
	if !best.ok {
		return b.leaf(idx)
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: best.feature, Threshold: best.threshold})
	l := b.split(left, depth+1)
	r := b.split(right, depth+1)
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit maximizes the variance reduction over a random subset of
// features: sum(L)^2/|L| + sum(R)^2/|R| against the parent's sum^2/n.
func (b *builder) bestSplit(idx []int) candidate {
	n := len(idx)
	minLeaf := b.p.MinSamplesLeaf

	total := 0.0
	for _, i := range idx {
		total += b.y[i]
	}
	parent := total * total / float64(n)

	best := candidate{}
	sorted := make([]int, n)
	features := b.rng.Perm(len(b.X[0]))[:b.p.MaxFeatures]
	for _, f := range features {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		left := 0.0
		for k := 0; k < n-1; k++ {
			left += b.y[sorted[k]]
			nl := k + 1
			if nl < minLeaf || n-nl < minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			right := total - left
			gain := left*left/float64(nl) + right*right/float64(n-nl) - parent
			if !best.ok || gain > best.gain {
				best = candidate{feature: f, threshold: (lo + hi) / 2, gain: gain, ok: true}
			}
		}
	}
	return best
}

func constant(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
