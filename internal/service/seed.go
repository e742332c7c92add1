package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/lending-service/internal/models"
	"github.com/Dan9191/lending-service/internal/repository"
)

// SeedRates are written on every startup
var SeedRates = []models.Rate{
	{ID: 1, Type: "PERSONAL", RateValue: 10.0},
	{ID: 2, Type: "HOUSING", RateValue: 8.0},
}

// Initialize writes SeedRates to store. Rows are saved by id, so running it
// again overwrites them instead of adding duplicates.
func Initialize(ctx context.Context, store repository.RateStore, log *logrus.Logger) error {
	rates := make([]models.Rate, len(SeedRates))
	copy(rates, SeedRates)

	if err := store.SaveAll(ctx, rates); err != nil {
		return fmt.Errorf("failed to seed rates: %w", err)
	}
	log.Infof("Seeded %d rates", len(rates))
	return nil
}
