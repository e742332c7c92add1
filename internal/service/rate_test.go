package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/lending-service/internal/models"
	"github.com/Dan9191/lending-service/internal/repository"
)

type mockRateStore struct {
	repository.RateStore
	rates     map[string]models.Rate
	err       error
	requested []string
}

func (m *mockRateStore) FindByType(ctx context.Context, rateType string) (models.Rate, bool, error) {
	m.requested = append(m.requested, rateType)
	if m.err != nil {
		return models.Rate{}, false, m.err
	}
	rate, ok := m.rates[rateType]
	return rate, ok, nil
}

func newMockStore() *mockRateStore {
	return &mockRateStore{rates: map[string]models.Rate{
		"PERSONAL": {ID: 1, Type: "PERSONAL", RateValue: 10.0},
	}}
}

func TestGetRateByType_Found(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewRateService(newMockStore(), logger)

	rate, err := svc.GetRateByType(context.Background(), "PERSONAL")
	require.NoError(t, err)
	assert.Equal(t, &models.Rate{ID: 1, Type: "PERSONAL", RateValue: 10.0}, rate)
}

func TestGetRateByType_NotFound(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewRateService(newMockStore(), logger)

	rate, err := svc.GetRateByType(context.Background(), "AUTO")
	assert.Nil(t, rate)

	var notFound *RateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "AUTO", notFound.Type)
	assert.EqualError(t, err, "Rate Not Found: AUTO")
}

func TestGetRateByType_PassesTypeUnchanged(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := newMockStore()
	svc := NewRateService(store, logger)

	for _, rateType := range []string{"", " personal ", "personal"} {
		_, err := svc.GetRateByType(context.Background(), rateType)
		var notFound *RateNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, rateType, notFound.Type)
	}
	assert.Equal(t, []string{"", " personal ", "personal"}, store.requested)
}

func TestGetRateByType_InfrastructureErrorPropagates(t *testing.T) {
	logger, _ := test.NewNullLogger()
	connErr := errors.New("connection reset")
	store := newMockStore()
	store.err = connErr
	svc := NewRateService(store, logger)

	_, err := svc.GetRateByType(context.Background(), "PERSONAL")
	require.ErrorIs(t, err, connErr)

	var notFound *RateNotFoundError
	assert.False(t, errors.As(err, &notFound))
}
