package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/lending-service/internal/models"
)

var (
	// ErrNotFound is returned by Delete when no row has the given id
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateType is returned when a rate with the same type but another id exists
	ErrDuplicateType = errors.New("rate type already exists")

	ErrNegativeRate = errors.New("rate value must not be negative")

	ErrEmptyType = errors.New("type must not be empty")
)

// RateStore provides access to the rate table.
// Type lookups are exact and case-sensitive.
type RateStore interface {
	Save(ctx context.Context, rate *models.Rate) error
	SaveAll(ctx context.Context, rates []models.Rate) error
	FindByID(ctx context.Context, id int64) (models.Rate, bool, error)
	FindAll(ctx context.Context) ([]models.Rate, error)
	FindByType(ctx context.Context, rateType string) (models.Rate, bool, error)
	Delete(ctx context.Context, id int64) error
}

// LoanStore provides access to the loan table.
// Results of FindAll and FindByType are ordered by id.
type LoanStore interface {
	Save(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id int64) (models.Loan, bool, error)
	FindAll(ctx context.Context) ([]models.Loan, error)
	FindByType(ctx context.Context, loanType string) ([]models.Loan, error)
	Delete(ctx context.Context, id int64) error
}

func validateRate(rate *models.Rate) error {
	if rate.Type == "" {
		return fmt.Errorf("invalid rate %d: %w", rate.ID, ErrEmptyType)
	}
	if rate.RateValue < 0 {
		return fmt.Errorf("invalid rate %s: %w", rate.Type, ErrNegativeRate)
	}
	return nil
}

func validateLoan(loan *models.Loan) error {
	if loan.Type == "" {
		return fmt.Errorf("invalid loan %d: %w", loan.ID, ErrEmptyType)
	}
	return nil
}

var (
	_ RateStore = (*RateRepository)(nil)
	_ RateStore = (*MemRateRepository)(nil)
	_ LoanStore = (*LoanRepository)(nil)
	_ LoanStore = (*MemLoanRepository)(nil)
)
