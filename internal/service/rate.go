package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/lending-service/internal/models"
	"github.com/Dan9191/lending-service/internal/repository"
)

// RateNotFoundError reports that no rate exists for the requested loan type
type RateNotFoundError struct {
	Type string
}

func (e *RateNotFoundError) Error() string {
	return "Rate Not Found: " + e.Type
}

// RateService handles rate lookups
type RateService struct {
	repo repository.RateStore
	log  *logrus.Logger
}

// NewRateService initializes a new rate service
func NewRateService(repo repository.RateStore, log *logrus.Logger) *RateService {
	return &RateService{repo: repo, log: log}
}

// GetRateByType returns the rate for rateType. The type is passed to the
// store unchanged; an unknown type yields *RateNotFoundError.
func (s *RateService) GetRateByType(ctx context.Context, rateType string) (*models.Rate, error) {
	rate, found, err := s.repo.FindByType(ctx, rateType)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate %q: %w", rateType, err)
	}
	if !found {
		s.log.WithField("type", rateType).Debug("Rate not found")
		return nil, &RateNotFoundError{Type: rateType}
	}
	return &rate, nil
}
