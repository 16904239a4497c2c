package ml

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"golang.org/x/sync/errgroup"
)

// ForestModel is a bagged ensemble of Gini decision trees.
type ForestModel struct {
	Labels      []sport.Label  `json:"labels"`
	Trees       []decisionTree `json:"trees"`
	Importances []float64      `json:"importances"`
}

type decisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

// treeNode is a split when Feature >= 0 and a leaf otherwise.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Dist      []float64 `json:"d,omitempty"`
}

// Algorithm implements Model.
func (m *ForestModel) Algorithm() Algorithm { return RandomForest }

// Classes implements Model.
func (m *ForestModel) Classes() []sport.Label { return m.Labels }

// PredictProba averages the leaf class distributions of every tree.
func (m *ForestModel) PredictProba(x features.Vector) []float64 {
	probs := make([]float64, len(m.Labels))
	if len(m.Trees) == 0 {
		return probs
	}
	for i := range m.Trees {
		for k, v := range m.Trees[i].leaf(x) {
			probs[k] += v
		}
	}
	for k := range probs {
		probs[k] /= float64(len(m.Trees))
	}
	return probs
}

// Importance returns a copy of the impurity-decrease importances, which sum
// to one.
func (m *ForestModel) Importance() []float64 {
	out := make([]float64, len(m.Importances))
	copy(out, m.Importances)
	return out
}

func (t *decisionTree) leaf(x features.Vector) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Dist
		}
		var v float64
		if n.Feature < len(x) {
			v = x[n.Feature]
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type forestTrainer struct {
	cfg TrainerConfig
}

func (t *forestTrainer) Algorithm() Algorithm { return RandomForest }

// Fit grows ForestTrees trees on bootstrap resamples of the training subset.
// Every tree draws from its own generator seeded from ForestSeed, so the
// ensemble does not depend on scheduling.
func (t *forestTrainer) Fit(ctx context.Context, ds *dataset.Dataset) (Model, error) {
	if err := checkTrainable(ds); err != nil {
		return nil, err
	}

	p := ds.NumFeatures()
	mtry := int(math.Sqrt(float64(p)))
	if mtry < 1 {
		mtry = 1
	}

	master := rand.New(rand.NewSource(t.cfg.ForestSeed))
	seeds := make([]int64, t.cfg.ForestTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]decisionTree, t.cfg.ForestTrees)
	gains := make([][]float64, t.cfg.ForestTrees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := &treeBuilder{
				samples:  ds.Train,
				classes:  len(ds.Classes),
				features: p,
				mtry:     mtry,
				maxDepth: t.cfg.ForestMaxDepth,
				minSplit: t.cfg.ForestMinSplit,
				rng:      rand.New(rand.NewSource(seeds[i])),
				gain:     make([]float64, p),
			}
			trees[i] = b.grow()
			gains[i] = b.gain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	importances := make([]float64, p)
	for _, gain := range gains {
		normalize(gain)
		for j, v := range gain {
			importances[j] += v
		}
	}
	normalize(importances)

	return &ForestModel{
		Labels:      append([]sport.Label(nil), ds.Classes...),
		Trees:       trees,
		Importances: importances,
	}, nil
}

type treeBuilder struct {
	samples  []dataset.Sample
	classes  int
	features int
	mtry     int
	maxDepth int
	minSplit int
	rng      *rand.Rand
	gain     []float64
	nodes    []treeNode
}

func (b *treeBuilder) grow() decisionTree {
	n := len(b.samples)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = b.rng.Intn(n)
	}
	b.split(idx, 0)
	return decisionTree{Nodes: b.nodes}
}

// split appends the subtree for idx and returns its root position.
func (b *treeBuilder) split(idx []int, depth int) int {
	counts := b.classCounts(idx)
	pos := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: -1})

	n := len(idx)
	impurity := gini(counts, n)
	if n < b.minSplit || impurity == 0 || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[pos].Dist = distribution(counts, n)
		return pos
	}

	feature, threshold, leftN, childImpurity, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[pos].Dist = distribution(counts, n)
		return pos
	}
	b.gain[feature] += float64(n)*impurity - childImpurity

	left := make([]int, 0, leftN)
	right := make([]int, 0, n-leftN)
	for _, i := range idx {
		if b.samples[i].X[feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.split(left, depth+1)
	r := b.split(right, depth+1)
	b.nodes[pos] = treeNode{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return pos
}

// bestSplit scans random features until mtry non-constant ones were evaluated
// and returns the threshold with the lowest weighted child impurity
// (n_left*gini_left + n_right*gini_right).
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, leftN int, childImpurity float64, ok bool) {
	n := len(idx)
	sorted := make([]int, n)
	bestScore := math.Inf(1)
	evaluated := 0

	for _, f := range b.rng.Perm(b.features) {
		if evaluated >= b.mtry {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.samples[sorted[i]].X[f] < b.samples[sorted[j]].X[f]
		})
		lo := b.samples[sorted[0]].X[f]
		hi := b.samples[sorted[n-1]].X[f]
		if lo == hi {
			continue
		}
		evaluated++

		leftCounts := make([]int, b.classes)
		rightCounts := b.classCounts(idx)
		for i := 0; i < n-1; i++ {
			c := b.samples[sorted[i]].Class
			leftCounts[c]++
			rightCounts[c]--

			v := b.samples[sorted[i]].X[f]
			next := b.samples[sorted[i+1]].X[f]
			if v == next {
				continue
			}
			nl, nr := i+1, n-i-1
			score := float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)
			if score < bestScore {
				bestScore = score
				feature = f
				threshold = v + (next-v)/2
				if threshold >= next {
					threshold = v
				}
				leftN = nl
				ok = true
			}
		}
	}
	return feature, threshold, leftN, bestScore, ok
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.classes)
	for _, i := range idx {
		counts[b.samples[i].Class]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func distribution(counts []int, n int) []float64 {
	dist := make([]float64, len(counts))
	if n == 0 {
		return dist
	}
	for k, c := range counts {
		dist[k] = float64(c) / float64(n)
	}
	return dist
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
