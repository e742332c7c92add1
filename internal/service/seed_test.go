package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/lending-service/internal/repository"
)

func TestInitialize_SeedsRates(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	db, err := repository.NewMemDB()
	require.NoError(t, err)
	store := repository.NewMemRateRepository(db)

	require.NoError(t, Initialize(ctx, store, logger))

	svc := NewRateService(store, logger)
	personal, err := svc.GetRateByType(ctx, "PERSONAL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), personal.ID)
	assert.Equal(t, 10.0, personal.RateValue)

	housing, err := svc.GetRateByType(ctx, "HOUSING")
	require.NoError(t, err)
	assert.Equal(t, int64(2), housing.ID)
	assert.Equal(t, 8.0, housing.RateValue)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "Seeded 2 rates", hook.LastEntry().Message)
}

func TestInitialize_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	db, err := repository.NewMemDB()
	require.NoError(t, err)
	store := repository.NewMemRateRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, Initialize(ctx, store, logger))
	}

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedRates, all)
}

func TestInitialize_RestoresTamperedSeed(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	db, err := repository.NewMemDB()
	require.NoError(t, err)
	store := repository.NewMemRateRepository(db)

	require.NoError(t, Initialize(ctx, store, logger))
	tampered := SeedRates[0]
	tampered.RateValue = 42
	require.NoError(t, store.Save(ctx, &tampered))

	require.NoError(t, Initialize(ctx, store, logger))
	rate, found, err := store.FindByType(ctx, "PERSONAL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10.0, rate.RateValue)
}
