package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/Dan9191/lending-service/internal/models"
)

const (
	rateTable = "rate"
	loanTable = "loan"

	idIndex   = "id"
	typeIndex = "type"
)

func memSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			rateTable: {
				Name: rateTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					// go-memdb does not reject a second object with the same
					// unique secondary value, see checkRateTypeFree
					typeIndex: {
						Name:    typeIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Type"},
					},
				},
			},
			loanTable: {
				Name: loanTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					typeIndex: {
						Name:    typeIndex,
						Indexer: &memdb.StringFieldIndex{Field: "Type"},
					},
				},
			},
		},
	}
}

// NewMemDB creates an in-memory database holding the rate and loan tables
func NewMemDB() (*memdb.MemDB, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return db, nil
}

// nextID returns max(id)+1 of table. Must run inside a write transaction.
func nextID(txn *memdb.Txn, table string) (int64, error) {
	it, err := txn.Get(table, idIndex)
	if err != nil {
		return 0, err
	}
	var max int64
	for obj := it.Next(); obj != nil; obj = it.Next() {
		var id int64
		switch v := obj.(type) {
		case *models.Rate:
			id = v.ID
		case *models.Loan:
			id = v.ID
		}
		if id > max {
			max = id
		}
	}
	return max + 1, nil
}

// MemRateRepository stores rates in memory
type MemRateRepository struct {
	db *memdb.MemDB
}

// NewMemRateRepository initializes a rate repository on db
func NewMemRateRepository(db *memdb.MemDB) *MemRateRepository {
	return &MemRateRepository{db: db}
}

func checkRateTypeFree(txn *memdb.Txn, rate *models.Rate) error {
	raw, err := txn.First(rateTable, typeIndex, rate.Type)
	if err != nil {
		return fmt.Errorf("failed to check rate type: %w", err)
	}
	if raw != nil && raw.(*models.Rate).ID != rate.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateType, rate.Type)
	}
	return nil
}

func insertRate(txn *memdb.Txn, rate *models.Rate) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	if rate.ID == 0 {
		id, err := nextID(txn, rateTable)
		if err != nil {
			return fmt.Errorf("failed to assign rate id: %w", err)
		}
		rate.ID = id
	}
	if err := checkRateTypeFree(txn, rate); err != nil {
		return err
	}
	stored := *rate
	if err := txn.Insert(rateTable, &stored); err != nil {
		return fmt.Errorf("failed to save rate %d: %w", rate.ID, err)
	}
	return nil
}

// Save inserts the rate, or updates it when one with the same id exists
func (r *MemRateRepository) Save(ctx context.Context, rate *models.Rate) error {
	return r.write(ctx, func(txn *memdb.Txn) error {
		return insertRate(txn, rate)
	})
}

// SaveAll saves every rate atomically
func (r *MemRateRepository) SaveAll(ctx context.Context, rates []models.Rate) error {
	return r.write(ctx, func(txn *memdb.Txn) error {
		for i := range rates {
			if err := insertRate(txn, &rates[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MemRateRepository) write(ctx context.Context, fn func(txn *memdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// FindByID retrieves a rate by id
func (r *MemRateRepository) FindByID(ctx context.Context, id int64) (models.Rate, bool, error) {
	return r.first(ctx, idIndex, id)
}

// FindByType retrieves the rate of a loan type
func (r *MemRateRepository) FindByType(ctx context.Context, rateType string) (models.Rate, bool, error) {
	return r.first(ctx, typeIndex, rateType)
}

func (r *MemRateRepository) first(ctx context.Context, index string, arg interface{}) (models.Rate, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Rate{}, false, err
	}
	raw, err := r.db.Txn(false).First(rateTable, index, arg)
	if err != nil {
		return models.Rate{}, false, fmt.Errorf("failed to find rate: %w", err)
	}
	if raw == nil {
		return models.Rate{}, false, nil
	}
	return *raw.(*models.Rate), true, nil
}

// FindAll lists rates ordered by id
func (r *MemRateRepository) FindAll(ctx context.Context) ([]models.Rate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	it, err := r.db.Txn(false).Get(rateTable, idIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	rates := []models.Rate{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rates = append(rates, *obj.(*models.Rate))
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].ID < rates[j].ID })
	return rates, nil
}

// Delete removes a rate by id
func (r *MemRateRepository) Delete(ctx context.Context, id int64) error {
	return deleteMem(ctx, r.db, rateTable, id)
}

// MemLoanRepository stores loans in memory
type MemLoanRepository struct {
	db *memdb.MemDB
}

// NewMemLoanRepository initializes a loan repository on db
func NewMemLoanRepository(db *memdb.MemDB) *MemLoanRepository {
	return &MemLoanRepository{db: db}
}

// Save inserts the loan, or updates it when one with the same id exists
func (r *MemLoanRepository) Save(ctx context.Context, loan *models.Loan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	if loan.ID == 0 {
		id, err := nextID(txn, loanTable)
		if err != nil {
			return fmt.Errorf("failed to assign loan id: %w", err)
		}
		loan.ID = id
	}
	stored := *loan
	if err := txn.Insert(loanTable, &stored); err != nil {
		return fmt.Errorf("failed to save loan %d: %w", loan.ID, err)
	}
	txn.Commit()
	return nil
}

// FindByID retrieves a loan by id
func (r *MemLoanRepository) FindByID(ctx context.Context, id int64) (models.Loan, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Loan{}, false, err
	}
	raw, err := r.db.Txn(false).First(loanTable, idIndex, id)
	if err != nil {
		return models.Loan{}, false, fmt.Errorf("failed to find loan: %w", err)
	}
	if raw == nil {
		return models.Loan{}, false, nil
	}
	return *raw.(*models.Loan), true, nil
}

// FindAll lists loans ordered by id
func (r *MemLoanRepository) FindAll(ctx context.Context) ([]models.Loan, error) {
	return r.list(ctx, idIndex)
}

// FindByType lists the loans of a type ordered by id
func (r *MemLoanRepository) FindByType(ctx context.Context, loanType string) ([]models.Loan, error) {
	return r.list(ctx, typeIndex, loanType)
}

func (r *MemLoanRepository) list(ctx context.Context, index string, args ...interface{}) ([]models.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	it, err := r.db.Txn(false).Get(loanTable, index, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	loans := []models.Loan{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		loans = append(loans, *obj.(*models.Loan))
	}
	// int ids are varint encoded, so index order is not numeric
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// Delete removes a loan by id
func (r *MemLoanRepository) Delete(ctx context.Context, id int64) error {
	return deleteMem(ctx, r.db, loanTable, id)
}

func deleteMem(ctx context.Context, db *memdb.MemDB, table string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(table, idIndex, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", table, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	txn.Commit()
	return nil
}
