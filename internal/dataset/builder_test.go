package dataset

import (
	"fmt"
	"testing"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// balancedFootball returns n records cycling through home win, draw and away win.
func balancedFootball(n int) []features.MatchRecord {
	scores := [][2]float64{{2, 0}, {1, 1}, {0, 2}}
	records := make([]features.MatchRecord, n)
	for i := 0; i < n; i++ {
		sc := scores[i%3]
		records[i] = features.MatchRecord{
			TeamA:  fmt.Sprintf("home-%d", i),
			TeamB:  fmt.Sprintf("away-%d", i),
			ScoreA: sc[0],
			ScoreB: sc[1],
			Context: map[string]float64{
				"strength_a": 60 + float64(i),
				"strength_b": 70 - float64(i%5),
			},
		}
	}
	return records
}

func TestBuild_Reproducible(t *testing.T) {
	records := balancedFootball(20)

	first, err := NewBuilder().Build(records, sport.Football)
	require.NoError(t, err)
	second, err := NewBuilder().Build(records, sport.Football)
	require.NoError(t, err)

	assert.Equal(t, first.Train, second.Train)
	assert.Equal(t, first.Eval, second.Eval)
}

func TestBuild_SeedChangesPartition(t *testing.T) {
	records := balancedFootball(60)

	a, err := NewBuilder(WithSeed(1)).Build(records, sport.Football)
	require.NoError(t, err)
	b, err := NewBuilder(WithSeed(2)).Build(records, sport.Football)
	require.NoError(t, err)

	assert.Equal(t, len(a.Eval), len(b.Eval))
	assert.NotEqual(t, a.Eval, b.Eval)
}

func TestBuild_Stratified(t *testing.T) {
	ds, err := NewBuilder().Build(balancedFootball(20), sport.Football)
	require.NoError(t, err)

	assert.Equal(t, 20, ds.Rows)
	assert.Equal(t, []sport.Label{sport.HomeWin, sport.Draw, sport.AwayWin}, ds.Classes)

	// 7/7/6 per class -> round(0.25*n) = 2 held out per class.
	assert.Equal(t, []int{2, 2, 2}, ds.ClassCounts(ds.Eval))
	assert.Equal(t, []int{5, 5, 4}, ds.ClassCounts(ds.Train))
	assert.Equal(t, 3, ds.TrainClasses())
	assert.Equal(t, 18, ds.NumFeatures())
}

func TestBuild_SingletonClassStaysInTraining(t *testing.T) {
	records := []features.MatchRecord{
		{ScoreA: 1, ScoreB: 0}, {ScoreA: 2, ScoreB: 0}, {ScoreA: 3, ScoreB: 1},
		{ScoreA: 3, ScoreB: 0}, {ScoreA: 0, ScoreB: 0},
	}

	ds, err := NewBuilder().Build(records, sport.Football)
	require.NoError(t, err)

	eval := ds.ClassCounts(ds.Eval)
	train := ds.ClassCounts(ds.Train)
	assert.Equal(t, 0, eval[1], "draw singleton must not be held out")
	assert.Equal(t, 1, train[1])
	assert.Equal(t, 1, eval[0])
	assert.Equal(t, 3, train[0])
}

func TestBuild_PreservesRecordOrder(t *testing.T) {
	records := balancedFootball(30)
	ds, err := NewBuilder().Build(records, sport.Football)
	require.NoError(t, err)

	last := -1.0
	for _, s := range ds.Train {
		assert.Greater(t, s.X[0], last, "training samples must keep input order")
		last = s.X[0]
	}
}

func TestBuild_TestSizeOption(t *testing.T) {
	ds, err := NewBuilder(WithTestSize(0.5)).Build(balancedFootball(12), sport.Football)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, ds.ClassCounts(ds.Eval))

	// Out of range values fall back to the profile split.
	ds, err = NewBuilder(WithTestSize(1.5)).Build(balancedFootball(12), sport.Football)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, ds.ClassCounts(ds.Eval))
}

func TestBuild_Empty(t *testing.T) {
	ds, err := NewBuilder().Build(nil, sport.Tennis)
	require.NoError(t, err)
	assert.Empty(t, ds.Train)
	assert.Empty(t, ds.Eval)
	assert.Equal(t, 0, ds.TrainClasses())
}

func TestBuild_PropagatesEncoderErrors(t *testing.T) {
	_, err := NewBuilder().Build([]features.MatchRecord{{ScoreA: 1, ScoreB: 1}}, sport.Tennis)
	assert.ErrorIs(t, err, features.ErrInvalidRecord)

	_, err = NewBuilder().Build(nil, sport.Sport("darts"))
	assert.ErrorIs(t, err, sport.ErrUnknownSport)
}
