package ml

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/sport"
)

// syntheticMatches generates n records whose outcome follows the strength and
// form gap plus noise.
func syntheticMatches(s sport.Sport, n int, seed int64) []features.MatchRecord {
	rng := rand.New(rand.NewSource(seed))
	p := sport.MustLookup(s)
	records := make([]features.MatchRecord, n)
	for i := range records {
		sa, sb := 60+rng.Float64()*30, 60+rng.Float64()*30
		fa, fb := 0.3+rng.Float64()*0.7, 0.3+rng.Float64()*0.7
		edge := (sa-sb)/10 + (fa-fb)*2 + rng.NormFloat64()*0.3

		var ga, gb float64
		switch {
		case edge > 0.4:
			ga, gb = 2, 0
		case edge < -0.4:
			ga, gb = 0, 2
		case p.HasDraw():
			ga, gb = 1, 1
		case edge >= 0:
			ga, gb = 1, 0
		default:
			ga, gb = 0, 1
		}

		records[i] = features.MatchRecord{
			Sport:  s,
			TeamA:  fmt.Sprintf("team-%d", rng.Intn(20)),
			TeamB:  fmt.Sprintf("team-%d", rng.Intn(20)),
			ScoreA: ga,
			ScoreB: gb,
			Context: map[string]float64{
				"strength_a": sa, "strength_b": sb,
				"form_a": fa, "form_b": fb,
				"xg_a": 1 + rng.Float64(), "xg_b": 1 + rng.Float64(),
				"injuries_a": float64(rng.Intn(3)), "injuries_b": float64(rng.Intn(3)),
				"shots_a": 8 + float64(rng.Intn(10)), "shots_b": 8 + float64(rng.Intn(10)),
				"poss_a": 45 + rng.Float64()*10, "poss_b": 45 + rng.Float64()*10,
			},
		}
	}
	return records
}

func buildDataset(s sport.Sport, n int, seed int64) *dataset.Dataset {
	ds, err := dataset.NewBuilder().Build(syntheticMatches(s, n, seed), s)
	if err != nil {
		panic(err)
	}
	return ds
}

// fastConfig keeps forests small so tests stay quick.
func fastConfig() TrainerConfig {
	cfg := DefaultTrainerConfig()
	cfg.ForestTrees = 25
	return cfg
}

// fixedModel returns the same distribution for every input.
type fixedModel struct {
	labels []sport.Label
	probs  func(x features.Vector) []float64
}

func (m *fixedModel) Algorithm() Algorithm                     { return Logistic }
func (m *fixedModel) Classes() []sport.Label                   { return m.labels }
func (m *fixedModel) PredictProba(x features.Vector) []float64 { return m.probs(x) }
func (m *fixedModel) Importance() []float64                    { return nil }

// blockingTrainer waits until release is closed or ctx ends.
type blockingTrainer struct {
	algo    Algorithm
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingTrainer(algo Algorithm) *blockingTrainer {
	return &blockingTrainer{algo: algo, started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingTrainer) Algorithm() Algorithm { return b.algo }

func (b *blockingTrainer) Fit(ctx context.Context, ds *dataset.Dataset) (Model, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	inner, _ := NewTrainer(b.algo, fastConfig())
	return inner.Fit(ctx, ds)
}

// memSnapshotter is an in-memory Snapshotter.
type memSnapshotter struct {
	mu     sync.Mutex
	slots  map[string]SlotSnapshot
	active map[sport.Sport]Algorithm
}

func newMemSnapshotter() *memSnapshotter {
	return &memSnapshotter{
		slots:  make(map[string]SlotSnapshot),
		active: make(map[sport.Sport]Algorithm),
	}
}

func (m *memSnapshotter) SaveSlot(snap SlotSnapshot, activate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[string(snap.Sport)+"_"+string(snap.Algorithm)] = snap
	if activate {
		m.active[snap.Sport] = snap.Algorithm
	}
	return nil
}

func (m *memSnapshotter) SaveActive(s sport.Sport, algo Algorithm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[s] = algo
	return nil
}

func (m *memSnapshotter) LoadSlots() ([]SlotSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SlotSnapshot, 0, len(m.slots))
	for _, s := range m.slots {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSnapshotter) LoadActive() (map[sport.Sport]Algorithm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[sport.Sport]Algorithm, len(m.active))
	for k, v := range m.active {
		out[k] = v
	}
	return out, nil
}
