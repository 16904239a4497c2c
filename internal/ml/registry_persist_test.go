package ml_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sports-ai/internal/features"
	"sports-ai/internal/ml"
	"sports-ai/internal/ml/mocks"
	"sports-ai/internal/sport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func tennisRecords(n int) []features.MatchRecord {
	records := make([]features.MatchRecord, n)
	for i := range records {
		a, b := 1.0, 0.0
		if i%2 == 1 {
			a, b = 0, 1
		}
		records[i] = features.MatchRecord{
			TeamA:  fmt.Sprintf("p%d", i),
			TeamB:  fmt.Sprintf("q%d", i),
			ScoreA: a,
			ScoreB: b,
			Context: map[string]float64{
				"strength_a": 70 + 10*(a-b) + float64(i%3),
				"strength_b": 70,
			},
		}
	}
	return records
}

func TestRegistry_PersistsBeforeSwap(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotter(ctrl)

	store.EXPECT().
		SaveSlot(gomock.Any(), true).
		DoAndReturn(func(snap ml.SlotSnapshot, activate bool) error {
			assert.Equal(t, sport.Tennis, snap.Sport)
			assert.Equal(t, ml.Logistic, snap.Algorithm)
			assert.NotEmpty(t, snap.ID)
			assert.NotEmpty(t, snap.Model)
			return nil
		})
	store.EXPECT().SaveSlot(gomock.Any(), false).Return(nil)
	store.EXPECT().SaveActive(sport.Tennis, ml.RandomForest).Return(nil)

	reg := ml.NewRegistry(ml.WithSnapshotter(store))
	_, err := reg.Train(context.Background(), sport.Tennis, ml.Logistic, tennisRecords(24))
	require.NoError(t, err)
	_, err = reg.Train(context.Background(), sport.Tennis, ml.RandomForest, tennisRecords(24))
	require.NoError(t, err)
	require.NoError(t, reg.Select(sport.Tennis, ml.RandomForest))
}

func TestRegistry_PersistFailureLeavesRegistryUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotter(ctrl)
	diskFull := errors.New("disk full")
	store.EXPECT().SaveSlot(gomock.Any(), true).Return(diskFull)

	reg := ml.NewRegistry(ml.WithSnapshotter(store))
	_, err := reg.Train(context.Background(), sport.Tennis, ml.Logistic, tennisRecords(24))
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)

	_, err = reg.Entry(sport.Tennis, ml.Logistic)
	assert.ErrorIs(t, err, ml.ErrModelNotTrained)
	_, err = reg.Active(sport.Tennis)
	assert.ErrorIs(t, err, ml.ErrNoActiveModel)
}

func TestRegistry_SelectPersistFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotter(ctrl)
	store.EXPECT().SaveSlot(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	store.EXPECT().SaveActive(sport.Tennis, ml.RandomForest).Return(errors.New("read-only"))

	reg := ml.NewRegistry(ml.WithSnapshotter(store))
	_, err := reg.TrainCompare(context.Background(), sport.Tennis, tennisRecords(24), false)
	require.NoError(t, err)
	before, err := reg.Active(sport.Tennis)
	require.NoError(t, err)

	err = reg.Select(sport.Tennis, ml.RandomForest)
	require.Error(t, err)

	after, err := reg.Active(sport.Tennis)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegistry_RestoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotter(ctrl)
	store.EXPECT().LoadSlots().Return(nil, errors.New("corrupt"))

	reg := ml.NewRegistry(ml.WithSnapshotter(store))
	assert.Error(t, reg.Restore())
}

func TestRegistry_RestoreSkipsDanglingActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSnapshotter(ctrl)
	store.EXPECT().LoadSlots().Return([]ml.SlotSnapshot{
		{ID: "bad", Sport: sport.Football, Algorithm: ml.Logistic, Model: []byte("not json")},
	}, nil)
	store.EXPECT().LoadActive().Return(map[sport.Sport]ml.Algorithm{sport.Football: ml.Logistic}, nil)

	reg := ml.NewRegistry(ml.WithSnapshotter(store))
	require.NoError(t, reg.Restore())

	_, err := reg.Active(sport.Football)
	assert.ErrorIs(t, err, ml.ErrNoActiveModel)
}
