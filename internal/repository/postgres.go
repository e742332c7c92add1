package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dan9191/lending-service/internal/models"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// translatePQError maps constraint violations onto repository sentinels
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == pqUniqueViolation && pqErr.Constraint == "rate_type_key":
		return fmt.Errorf("%w: %s", ErrDuplicateType, pqErr.Detail)
	case pqErr.Code == pqCheckViolation && pqErr.Constraint == "rate_value_check":
		return ErrNegativeRate
	}
	return err
}

// bumpSequence moves the serial sequence of table past the highest id,
// so rows inserted without an id do not collide with explicit ones.
func bumpSequence(ctx context.Context, q execer, table string) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %[1]s))`, table)
	if _, err := q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to advance %s id sequence: %w", table, err)
	}
	return nil
}

// RateRepository stores rates in PostgreSQL
type RateRepository struct {
	db *sql.DB
}

// NewRateRepository initializes a new rate repository
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func saveRate(ctx context.Context, q execer, rate *models.Rate) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	if rate.ID == 0 {
		query := `
			INSERT INTO rate (type, rate_value)
			VALUES ($1, $2)
			RETURNING id`
		if err := q.QueryRowContext(ctx, query, rate.Type, rate.RateValue).Scan(&rate.ID); err != nil {
			return fmt.Errorf("failed to create rate: %w", translatePQError(err))
		}
		return nil
	}
	query := `
		INSERT INTO rate (id, type, rate_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, rate_value = EXCLUDED.rate_value`
	if _, err := q.ExecContext(ctx, query, rate.ID, rate.Type, rate.RateValue); err != nil {
		return fmt.Errorf("failed to save rate %d: %w", rate.ID, translatePQError(err))
	}
	return nil
}

// Save inserts the rate, or updates it when a row with the same id exists.
// A zero ID is assigned by the database and written back to rate.
func (r *RateRepository) Save(ctx context.Context, rate *models.Rate) error {
	explicitID := rate.ID != 0
	if err := saveRate(ctx, r.db, rate); err != nil {
		return err
	}
	if explicitID {
		return bumpSequence(ctx, r.db, "rate")
	}
	return nil
}

// SaveAll saves every rate in a single transaction
func (r *RateRepository) SaveAll(ctx context.Context, rates []models.Rate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range rates {
		if err := saveRate(ctx, tx, &rates[i]); err != nil {
			return err
		}
	}
	if err := bumpSequence(ctx, tx, "rate"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rates: %w", err)
	}
	return nil
}

// FindByID retrieves a rate by id
func (r *RateRepository) FindByID(ctx context.Context, id int64) (models.Rate, bool, error) {
	query := `
		SELECT id, type, rate_value
		FROM rate
		WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByType retrieves the rate of a loan type
func (r *RateRepository) FindByType(ctx context.Context, rateType string) (models.Rate, bool, error) {
	query := `
		SELECT id, type, rate_value
		FROM rate
		WHERE type = $1`
	return r.findOne(ctx, query, rateType)
}

func (r *RateRepository) findOne(ctx context.Context, query string, arg interface{}) (models.Rate, bool, error) {
	var rate models.Rate
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&rate.ID, &rate.Type, &rate.RateValue)
	if err == sql.ErrNoRows {
		return models.Rate{}, false, nil
	}
	if err != nil {
		return models.Rate{}, false, fmt.Errorf("failed to find rate: %w", err)
	}
	return rate, true, nil
}

// FindAll lists rates ordered by id
func (r *RateRepository) FindAll(ctx context.Context) ([]models.Rate, error) {
	query := `
		SELECT id, type, rate_value
		FROM rate
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	rates := []models.Rate{}
	for rows.Next() {
		var rate models.Rate
		if err := rows.Scan(&rate.ID, &rate.Type, &rate.RateValue); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	return rates, nil
}

// Delete removes a rate by id
func (r *RateRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "rate", id)
}

// LoanRepository stores loans in PostgreSQL
type LoanRepository struct {
	db *sql.DB
}

// NewLoanRepository initializes a new loan repository
func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Save inserts the loan, or updates it when a row with the same id exists
func (r *LoanRepository) Save(ctx context.Context, loan *models.Loan) error {
	if err := validateLoan(loan); err != nil {
		return err
	}
	if loan.ID == 0 {
		query := `
			INSERT INTO loan (type)
			VALUES ($1)
			RETURNING id`
		if err := r.db.QueryRowContext(ctx, query, loan.Type).Scan(&loan.ID); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO loan (id, type)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type`
	if _, err := r.db.ExecContext(ctx, query, loan.ID, loan.Type); err != nil {
		return fmt.Errorf("failed to save loan %d: %w", loan.ID, err)
	}
	return bumpSequence(ctx, r.db, "loan")
}

// FindByID retrieves a loan by id
func (r *LoanRepository) FindByID(ctx context.Context, id int64) (models.Loan, bool, error) {
	var loan models.Loan
	query := `
		SELECT id, type
		FROM loan
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&loan.ID, &loan.Type)
	if err == sql.ErrNoRows {
		return models.Loan{}, false, nil
	}
	if err != nil {
		return models.Loan{}, false, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, true, nil
}

// FindAll lists loans ordered by id
func (r *LoanRepository) FindAll(ctx context.Context) ([]models.Loan, error) {
	query := `
		SELECT id, type
		FROM loan
		ORDER BY id`
	return r.list(ctx, query)
}

// FindByType lists the loans of a type ordered by id
func (r *LoanRepository) FindByType(ctx context.Context, loanType string) ([]models.Loan, error) {
	query := `
		SELECT id, type
		FROM loan
		WHERE type = $1
		ORDER BY id`
	return r.list(ctx, query, loanType)
}

func (r *LoanRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		var loan models.Loan
		if err := rows.Scan(&loan.ID, &loan.Type); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// Delete removes a loan by id
func (r *LoanRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "loan", id)
}

func deleteByID(ctx context.Context, q execer, table string, id int64) error {
	res, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", table, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
