package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the rate and loan tables if they are missing
const Schema = `
CREATE TABLE IF NOT EXISTS rate (
	id         SERIAL PRIMARY KEY,
	type       VARCHAR(32) NOT NULL,
	rate_value DOUBLE PRECISION NOT NULL,
	CONSTRAINT rate_type_key UNIQUE (type),
	CONSTRAINT rate_value_check CHECK (rate_value >= 0)
);

CREATE TABLE IF NOT EXISTS loan (
	id   SERIAL PRIMARY KEY,
	type VARCHAR(32) NOT NULL CHECK (type <> '')
);

CREATE INDEX IF NOT EXISTS loan_type_idx ON loan (type);`

// EnsureSchema applies Schema to db
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
