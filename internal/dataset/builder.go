// Package dataset assembles encoded match records into a labeled dataset with a
// deterministic, stratified train/evaluation split.
package dataset

import (
	"math"
	"math/rand"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"
)

// DefaultSeed seeds the split shuffle when no other seed is configured.
const DefaultSeed int64 = 42

// Sample is one encoded match with its label and class index.
type Sample struct {
	X     features.Vector
	Y     sport.Label
	Class int
}

// Dataset is the encoded form of one sport's records.
type Dataset struct {
	Sport        sport.Sport
	FeatureNames []string
	Classes      []sport.Label
	Train        []Sample
	Eval         []Sample
	Rows         int
}

// Builder builds datasets. The zero value is not usable, call NewBuilder.
type Builder struct {
	seed     int64
	testSize float64
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeed overrides the shuffle seed.
func WithSeed(seed int64) Option {
	return func(b *Builder) { b.seed = seed }
}

// WithTestSize overrides the profile's evaluation fraction. Values outside
// (0, 1) are ignored.
func WithTestSize(size float64) Option {
	return func(b *Builder) {
		if size > 0 && size < 1 {
			b.testSize = size
		}
	}
}

// NewBuilder returns a Builder with the default seed and the profile split.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{seed: DefaultSeed}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build encodes records for s and partitions them. Every class with at least
// two examples lands in both subsets; singletons are kept for training. The
// result depends only on records, s and the builder's options.
func (b *Builder) Build(records []features.MatchRecord, s sport.Sport) (*Dataset, error) {
	p, err := sport.Lookup(s)
	if err != nil {
		return nil, err
	}

	vecs, labels, err := features.EncodeAll(records, s)
	if err != nil {
		return nil, err
	}

	testSize := b.testSize
	if testSize == 0 {
		testSize = p.TestSize
	}

	byClass := make([][]int, len(p.Labels))
	classOf := make([]int, len(labels))
	for i, l := range labels {
		c := p.LabelIndex(l)
		classOf[i] = c
		byClass[c] = append(byClass[c], i)
	}

	rng := rand.New(rand.NewSource(b.seed))
	inEval := make([]bool, len(records))
	for _, idx := range byClass {
		n := len(idx)
		if n < 2 {
			continue
		}
		k := int(math.Round(float64(n) * testSize))
		if k < 1 {
			k = 1
		}
		if k > n-1 {
			k = n - 1
		}
		shuffled := make([]int, n)
		copy(shuffled, idx)
		rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for _, i := range shuffled[:k] {
			inEval[i] = true
		}
	}

	ds := &Dataset{
		Sport:        s,
		FeatureNames: p.FeatureNames(),
		Classes:      append([]sport.Label(nil), p.Labels...),
		Rows:         len(records),
	}
	for i := range vecs {
		smp := Sample{X: vecs[i], Y: labels[i], Class: classOf[i]}
		if inEval[i] {
			ds.Eval = append(ds.Eval, smp)
		} else {
			ds.Train = append(ds.Train, smp)
		}
	}
	return ds, nil
}

// ClassCounts returns per-class support of samples, indexed like Dataset.Classes.
func (d *Dataset) ClassCounts(samples []Sample) []int {
	counts := make([]int, len(d.Classes))
	for _, s := range samples {
		counts[s.Class]++
	}
	return counts
}

// TrainClasses returns how many distinct classes the training subset holds.
func (d *Dataset) TrainClasses() int {
	n := 0
	for _, c := range d.ClassCounts(d.Train) {
		if c > 0 {
			n++
		}
	}
	return n
}

// NumFeatures is the width of every vector in the dataset.
func (d *Dataset) NumFeatures() int {
	return len(d.FeatureNames)
}
