package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the append-only record written with every successful Sell. It
// keeps the product name and unit price as they were at the time of sale.
type Sale struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	UnitsSold   int64
	SoldByUID   uuid.UUID
	SoldByName  string
	SoldByEmail string
	SoldAt      time.Time
}

// Total is UnitPrice × UnitsSold.
func (s *Sale) Total() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.UnitsSold))
}
