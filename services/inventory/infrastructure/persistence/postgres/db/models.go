package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	Name           string
	Category       string
	Price          decimal.Decimal
	QtyUploaded    int64
	QtyCurrent     int64
	QtySold        int64
	Status         string
	Version        int64
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastSoldAt     sql.NullTime
	LastSoldByUid  uuid.NullUUID
	LastSoldByName string
}

type Sale struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	UnitsSold   int64
	SoldByUid   uuid.UUID
	SoldByName  string
	SoldByEmail string
	SoldAt      time.Time
}
