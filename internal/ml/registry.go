package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultTrainTimeout bounds a single training run.
const DefaultTrainTimeout = 2 * time.Minute

// Comparison holds the evaluation bundle of each algorithm slot of a sport.
// Empty slots are nil.
type Comparison struct {
	Logistic     *MetricsBundle `json:"logistic"`
	RandomForest *MetricsBundle `json:"random_forest"`
}

// Registry owns the trained models of every sport.
type Registry struct {
	trainer   TrainerConfig
	builder   *dataset.Builder
	timeout   time.Duration
	snapshots Snapshotter
	metrics   MetricsInterface
	listeners []Listener
	states    []*sportState

	newTrainer func(Algorithm, TrainerConfig) (Trainer, error)
}

type sportState struct {
	slots    [numAlgorithms]atomic.Pointer[Entry]
	training [numAlgorithms]atomic.Bool
	active   atomic.Pointer[Algorithm]

	// commit serializes persistence and pointer swaps for the sport.
	commit sync.Mutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSnapshotter persists slots and active pointers through s.
func WithSnapshotter(s Snapshotter) RegistryOption {
	return func(r *Registry) { r.snapshots = s }
}

// WithRegistryMetrics reports training telemetry to m.
func WithRegistryMetrics(m MetricsInterface) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithTrainTimeout overrides DefaultTrainTimeout. Non-positive values disable
// the deadline.
func WithTrainTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// WithTrainerConfig sets algorithm hyperparameters.
func WithTrainerConfig(cfg TrainerConfig) RegistryOption {
	return func(r *Registry) { r.trainer = cfg }
}

// WithBuilder sets the dataset builder used for every run.
func WithBuilder(b *dataset.Builder) RegistryOption {
	return func(r *Registry) { r.builder = b }
}

// WithListener subscribes l to registry events.
func WithListener(l Listener) RegistryOption {
	return func(r *Registry) { r.listeners = append(r.listeners, l) }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		trainer: DefaultTrainerConfig(),
		builder: dataset.NewBuilder(),
		timeout: DefaultTrainTimeout,

		newTrainer: NewTrainer,
	}
	for _, opt := range opts {
		opt(r)
	}
	for range sport.All() {
		r.states = append(r.states, &sportState{})
	}
	return r
}

// AddListener subscribes l after construction. It must be called before the
// registry is shared between goroutines.
func (r *Registry) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *Registry) state(s sport.Sport) (*sportState, error) {
	i := sport.Index(s)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", sport.ErrUnknownSport, string(s))
	}
	return r.states[i], nil
}

func (r *Registry) slot(op string, s sport.Sport, algo Algorithm) (*sportState, int, error) {
	st, err := r.state(s)
	if err != nil {
		return nil, -1, wrapErr(op, s, algo, err)
	}
	idx := algo.index()
	if idx < 0 {
		return nil, -1, wrapErr(op, s, algo, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(algo)))
	}
	return st, idx, nil
}

// Train fits algo on records and replaces the slot on success. A second call
// for the same slot while one is running fails with ErrTrainingInProgress. A
// failed run leaves the slot and active pointer untouched.
func (r *Registry) Train(ctx context.Context, s sport.Sport, algo Algorithm, records []features.MatchRecord) (*Entry, error) {
	const op = "train"
	st, idx, err := r.slot(op, s, algo)
	if err != nil {
		return nil, err
	}
	if !st.training[idx].CompareAndSwap(false, true) {
		return nil, wrapErr(op, s, algo, ErrTrainingInProgress)
	}
	defer st.training[idx].Store(false)

	start := time.Now()
	entry, err := r.fit(ctx, s, algo, records)
	if err == nil {
		err = r.commit(st, idx, entry)
	}
	elapsed := time.Since(start)

	if err != nil {
		r.trainingFailed(s, algo, err)
		return nil, wrapErr(op, s, algo, err)
	}

	if r.metrics != nil {
		r.metrics.MLTrainingRunsInc(string(s), string(algo), "success")
		r.metrics.MLTrainingDurationObserve(string(algo), elapsed.Seconds())
		r.metrics.MLModelAccuracySet(string(s), string(algo), entry.Metrics.Accuracy)
	}
	log.Info().
		Str("sport", string(s)).
		Str("algorithm", string(algo)).
		Str("id", entry.ID).
		Int("rows", entry.Metrics.Rows).
		Float64("accuracy", entry.Metrics.Accuracy).
		Float64("f1_weighted", entry.Metrics.F1Weighted).
		Dur("elapsed", elapsed).
		Msg("Model trained")
	r.publish(Event{Type: EventTrained, Sport: s, Algorithm: algo, Metrics: entry.Metrics})
	return entry, nil
}

func (r *Registry) trainingFailed(s sport.Sport, algo Algorithm, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, ErrTrainingTimeout):
		outcome = "timeout"
	case errors.Is(err, ErrInsufficientData):
		outcome = "insufficient_data"
	}
	if r.metrics != nil {
		r.metrics.MLTrainingRunsInc(string(s), string(algo), outcome)
	}
	log.Warn().
		Err(err).
		Str("sport", string(s)).
		Str("algorithm", string(algo)).
		Msg("Training failed")
	r.publish(Event{Type: EventTrainingFailed, Sport: s, Algorithm: algo, Error: err.Error()})
}

// fit builds, fits and evaluates in a goroutine bounded by the training
// deadline.
func (r *Registry) fit(ctx context.Context, s sport.Sport, algo Algorithm, records []features.MatchRecord) (*Entry, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		entry *Entry
		err   error
	}
	done := make(chan result, 1)
	go func() {
		entry, err := r.buildEntry(ctx, s, algo, records)
		done <- result{entry, err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, ErrTrainingTimeout
		}
		return res.entry, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTrainingTimeout
		}
		return nil, ctx.Err()
	}
}

func (r *Registry) buildEntry(ctx context.Context, s sport.Sport, algo Algorithm, records []features.MatchRecord) (*Entry, error) {
	ds, err := r.builder.Build(records, s)
	if err != nil {
		return nil, err
	}
	trainer, err := r.newTrainer(algo, r.trainer)
	if err != nil {
		return nil, err
	}
	model, err := trainer.Fit(ctx, ds)
	if err != nil {
		return nil, err
	}
	bundle, err := Evaluate(model, ds)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:        uuid.NewString(),
		Sport:     s,
		Algorithm: algo,
		TrainedAt: time.Now().UTC(),
		Metrics:   bundle,
		Model:     model,
	}, nil
}

// commit persists entry and then publishes it. The first trained slot of a
// sport also becomes its active model.
func (r *Registry) commit(st *sportState, idx int, entry *Entry) error {
	st.commit.Lock()
	defer st.commit.Unlock()

	activate := st.active.Load() == nil
	if r.snapshots != nil {
		snap, err := entry.Snapshot()
		if err != nil {
			return err
		}
		if err := r.snapshots.SaveSlot(snap, activate); err != nil {
			return fmt.Errorf("failed to persist model: %w", err)
		}
	}

	st.slots[idx].Store(entry)
	if activate {
		algo := entry.Algorithm
		st.active.Store(&algo)
		if r.metrics != nil {
			r.metrics.MLActiveModelSet(string(entry.Sport), string(algo))
		}
		log.Info().
			Str("sport", string(entry.Sport)).
			Str("algorithm", string(algo)).
			Msg("Active model initialized")
	}
	return nil
}

// TrainCompare trains the empty slots of s concurrently, or every slot when
// force is set, and returns the resulting comparison. Slots are trained
// independently: a failed or rejected run does not cancel the others. The
// comparison is also returned when one of the runs failed.
func (r *Registry) TrainCompare(ctx context.Context, s sport.Sport, records []features.MatchRecord, force bool) (Comparison, error) {
	const op = "train_compare"
	st, err := r.state(s)
	if err != nil {
		return Comparison{}, wrapErr(op, s, "", err)
	}

	var g errgroup.Group
	for i, algo := range algorithms {
		if !force && st.slots[i].Load() != nil {
			continue
		}
		algo := algo
		g.Go(func() error {
			_, err := r.Train(ctx, s, algo, records)
			return err
		})
	}
	err = g.Wait()

	cmp, cerr := r.Compare(s)
	if cerr != nil {
		return Comparison{}, cerr
	}
	return cmp, err
}

// Compare returns the bundle of every slot of s. It never fails for a known
// sport.
func (r *Registry) Compare(s sport.Sport) (Comparison, error) {
	st, err := r.state(s)
	if err != nil {
		return Comparison{}, wrapErr("compare", s, "", err)
	}
	var cmp Comparison
	if e := st.slots[Logistic.index()].Load(); e != nil {
		cmp.Logistic = e.Metrics
	}
	if e := st.slots[RandomForest.index()].Load(); e != nil {
		cmp.RandomForest = e.Metrics
	}
	return cmp, nil
}

// Active returns the active algorithm of s.
func (r *Registry) Active(s sport.Sport) (Algorithm, error) {
	st, err := r.state(s)
	if err != nil {
		return "", wrapErr("active", s, "", err)
	}
	a := st.active.Load()
	if a == nil {
		return "", wrapErr("active", s, "", ErrNoActiveModel)
	}
	return *a, nil
}

// ActiveEntry returns the slot the active pointer of s refers to.
func (r *Registry) ActiveEntry(s sport.Sport) (*Entry, error) {
	algo, err := r.Active(s)
	if err != nil {
		return nil, err
	}
	return r.Entry(s, algo)
}

// Metrics returns the evaluation bundle of the active model of s.
func (r *Registry) Metrics(s sport.Sport) (*MetricsBundle, error) {
	e, err := r.ActiveEntry(s)
	if err != nil {
		return nil, err
	}
	return e.Metrics, nil
}

// Entry returns the content of a slot.
func (r *Registry) Entry(s sport.Sport, algo Algorithm) (*Entry, error) {
	const op = "entry"
	st, idx, err := r.slot(op, s, algo)
	if err != nil {
		return nil, err
	}
	e := st.slots[idx].Load()
	if e == nil {
		return nil, wrapErr(op, s, algo, ErrModelNotTrained)
	}
	return e, nil
}

// Select makes algo the active model of s. The slot must be trained.
func (r *Registry) Select(s sport.Sport, algo Algorithm) error {
	const op = "select"
	st, idx, err := r.slot(op, s, algo)
	if err != nil {
		return err
	}

	st.commit.Lock()
	defer st.commit.Unlock()

	e := st.slots[idx].Load()
	if e == nil {
		return wrapErr(op, s, algo, ErrModelNotTrained)
	}
	if r.snapshots != nil {
		if err := r.snapshots.SaveActive(s, algo); err != nil {
			return wrapErr(op, s, algo, fmt.Errorf("failed to persist active model: %w", err))
		}
	}
	st.active.Store(&algo)

	if r.metrics != nil {
		r.metrics.MLActiveModelSet(string(s), string(algo))
	}
	log.Info().Str("sport", string(s)).Str("algorithm", string(algo)).Msg("Active model selected")
	r.publish(Event{Type: EventSelected, Sport: s, Algorithm: algo, Metrics: e.Metrics})
	return nil
}

// Restore loads every persisted slot and active pointer. It is meant to run
// once at startup, before the registry serves requests.
func (r *Registry) Restore() error {
	const op = "restore"
	if r.snapshots == nil {
		return nil
	}

	snaps, err := r.snapshots.LoadSlots()
	if err != nil {
		return wrapErr(op, "", "", err)
	}
	restored := 0
	for _, snap := range snaps {
		st, idx, err := r.slot(op, snap.Sport, snap.Algorithm)
		if err != nil {
			log.Warn().Err(err).Str("id", snap.ID).Msg("Skipping snapshot")
			continue
		}
		entry, err := EntryFromSnapshot(snap)
		if err != nil {
			log.Warn().Err(err).Str("id", snap.ID).Msg("Skipping unreadable snapshot")
			continue
		}
		st.slots[idx].Store(entry)
		restored++
	}

	active, err := r.snapshots.LoadActive()
	if err != nil {
		return wrapErr(op, "", "", err)
	}
	for s, algo := range active {
		st, idx, err := r.slot(op, s, algo)
		if err != nil || st.slots[idx].Load() == nil {
			log.Warn().Str("sport", string(s)).Str("algorithm", string(algo)).Msg("Active pointer refers to a missing slot")
			continue
		}
		algo := algo
		st.active.Store(&algo)
		if r.metrics != nil {
			r.metrics.MLActiveModelSet(string(s), string(algo))
		}
	}

	log.Info().Int("slots", restored).Int("active", len(active)).Msg("Registry restored")
	return nil
}

// Training reports whether a run for the slot is in flight.
func (r *Registry) Training(s sport.Sport, algo Algorithm) bool {
	st, idx, err := r.slot("training", s, algo)
	if err != nil {
		return false
	}
	return st.training[idx].Load()
}

func (r *Registry) publish(e Event) {
	e.Timestamp = time.Now().UTC()
	for _, l := range r.listeners {
		l.OnEvent(e)
	}
}
