package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const sweetColumns = `id, name, category, price, quantity, version, created_at, updated_at`

const insertSweet = `
INSERT INTO sweets (` + sweetColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type InsertSweetParams struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     decimal.Decimal
	Quantity  int32
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) InsertSweet(ctx context.Context, arg InsertSweetParams) error {
	_, err := q.db.ExecContext(ctx, insertSweet,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Price,
		arg.Quantity,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getSweet = `SELECT ` + sweetColumns + ` FROM sweets WHERE id = $1`

func (q *Queries) GetSweet(ctx context.Context, id uuid.UUID) (SweetRow, error) {
	return scanSweet(q.db.QueryRowContext(ctx, getSweet, id))
}

const getSweetForUpdate = getSweet + ` FOR UPDATE`

// GetSweetForUpdate locks the row until the surrounding transaction ends.
func (q *Queries) GetSweetForUpdate(ctx context.Context, id uuid.UUID) (SweetRow, error) {
	return scanSweet(q.db.QueryRowContext(ctx, getSweetForUpdate, id))
}

const listSweets = `SELECT ` + sweetColumns + ` FROM sweets ORDER BY created_at, id`

func (q *Queries) ListSweets(ctx context.Context) ([]SweetRow, error) {
	rows, err := q.db.QueryContext(ctx, listSweets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SweetRow
	for rows.Next() {
		i, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSweets = `SELECT count(*) FROM sweets`

func (q *Queries) CountSweets(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSweets).Scan(&count)
	return count, err
}

const updateSweet = `
UPDATE sweets
SET name = $2, category = $3, price = $4, quantity = $5, version = $6, updated_at = $7
WHERE id = $1 AND version = $6 - 1`

type UpdateSweetParams struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     decimal.Decimal
	Quantity  int32
	Version   int64
	UpdatedAt time.Time
}

// UpdateSweet writes the next version of a row. Zero rows affected means the
// stored version was not Version-1.
func (q *Queries) UpdateSweet(ctx context.Context, arg UpdateSweetParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSweet,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Price,
		arg.Quantity,
		arg.Version,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSweet = `DELETE FROM sweets WHERE id = $1`

func (q *Queries) DeleteSweet(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSweet, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSweet(row scanner) (SweetRow, error) {
	var i SweetRow
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Price,
		&i.Quantity,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
