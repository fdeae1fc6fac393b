package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SweetRow mirrors one row of the sweets table.
type SweetRow struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     decimal.Decimal
	Quantity  int32
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
