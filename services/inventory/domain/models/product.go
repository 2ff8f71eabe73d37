package models

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
)

// Status is derived from QtyCurrent; it is never set independently.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// StatusFor returns the status a product with qtyCurrent units must carry.
func StatusFor(qtyCurrent int64) Status {
	if qtyCurrent > 0 {
		return StatusAvailable
	}
	return StatusSold
}

const (
	// MaxRestockAmount caps a single restock; larger requests are clamped.
	MaxRestockAmount int64 = 1_000_000

	maxCategoryLength = 60
)

// Product is the tenant-scoped inventory aggregate. Quantity fields change
// only through Restock and Sell, which keep these invariants:
//
//	QtyCurrent >= 0
//	QtyUploaded >= QtyCurrent
//	QtySold == QtyUploaded - QtyCurrent
//	Status == StatusFor(QtyCurrent)
//
// CompanyID is set once by NewProduct and never changes.
type Product struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID // tenant scope, every query filters on it
	Name        ProductName
	Category    string
	Price       decimal.Decimal
	QtyUploaded int64
	QtyCurrent  int64
	QtySold     int64
	Status      Status
	// Version increments on every committed change.
	Version        int64
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastSoldAt     *time.Time
	LastSoldByUID  *uuid.UUID
	LastSoldByName string
}

// Seller identifies who performed a sale.
type Seller struct {
	UID   uuid.UUID
	Name  string
	Email string
}

// RestockResult is echoed to the caller after a restock.
type RestockResult struct {
	Added       int64  `json:"added"`
	QtyCurrent  int64  `json:"new_qty_current"`
	QtyUploaded int64  `json:"new_qty_uploaded"`
	Status      Status `json:"status"`
}

// SellResult is echoed to the caller after a sale.
type SellResult struct {
	UnitsSold  int64  `json:"units_sold"`
	QtyCurrent int64  `json:"new_qty_current"`
	Status     Status `json:"status"`
}

// NewProduct builds a product holding initialQty units, none sold.
func NewProduct(companyID, createdBy uuid.UUID, name ProductName, category string, price decimal.Decimal, initialQty int64, now time.Time) (*Product, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company is required", inventorydomain.ErrInvalidArgument)
	}
	if initialQty < 0 {
		return nil, fmt.Errorf("%w: initial quantity must not be negative", inventorydomain.ErrInvalidArgument)
	}
	category, err := normalizeCategory(category)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", inventorydomain.ErrInvalidProduct)
	}

	now = now.UTC()
	p := &Product{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        name,
		Category:    category,
		Price:       price.Round(2),
		QtyUploaded: initialQty,
		QtyCurrent:  initialQty,
		QtySold:     0,
		Status:      StatusFor(initialQty),
		Version:     1,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return p, p.CheckInvariants()
}

// NormalizeRestockAmount rejects amounts below 1 and clamps amounts above
// MaxRestockAmount.
func NormalizeRestockAmount(amount int64) (int64, error) {
	if amount < 1 {
		return 0, fmt.Errorf("%w: amount must be at least 1", inventorydomain.ErrInvalidArgument)
	}
	return min(amount, MaxRestockAmount), nil
}

// Restock adds amount units to both the cumulative and the on-hand quantity.
func (p *Product) Restock(amount int64, now time.Time) (RestockResult, error) {
	n, err := NormalizeRestockAmount(amount)
	if err != nil {
		return RestockResult{}, err
	}
	if p.QtyUploaded > math.MaxInt64-n {
		return RestockResult{}, fmt.Errorf("%w: quantity would overflow", inventorydomain.ErrInvalidArgument)
	}

	p.QtyUploaded += n
	p.QtyCurrent += n
	p.Status = StatusFor(p.QtyCurrent)
	p.touch(now)

	if err := p.CheckInvariants(); err != nil {
		return RestockResult{}, err
	}
	return RestockResult{Added: n, QtyCurrent: p.QtyCurrent, QtyUploaded: p.QtyUploaded, Status: p.Status}, nil
}

// Sell removes units from stock. The upper bound is the quantity on hand in
// this very copy of the product, which callers must have read inside the
// same transaction that will persist the result.
func (p *Product) Sell(units int64, seller Seller, now time.Time) (SellResult, *Sale, error) {
	if units < 1 {
		return SellResult{}, nil, fmt.Errorf("%w: units must be at least 1", inventorydomain.ErrInvalidArgument)
	}
	if units > p.QtyCurrent {
		return SellResult{}, nil, &inventorydomain.InsufficientStockError{Available: p.QtyCurrent, Requested: units}
	}

	p.QtyCurrent -= units
	p.QtySold += units
	p.Status = StatusFor(p.QtyCurrent)
	p.touch(now)

	soldAt := p.UpdatedAt
	uid := seller.UID
	p.LastSoldAt = &soldAt
	p.LastSoldByUID = &uid
	p.LastSoldByName = seller.Name

	if err := p.CheckInvariants(); err != nil {
		return SellResult{}, nil, err
	}

	sale := &Sale{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		ProductID:   p.ID,
		ProductName: p.Name.String(),
		UnitPrice:   p.Price,
		UnitsSold:   units,
		SoldByUID:   seller.UID,
		SoldByName:  seller.Name,
		SoldByEmail: seller.Email,
		SoldAt:      soldAt,
	}
	return SellResult{UnitsSold: units, QtyCurrent: p.QtyCurrent, Status: p.Status}, sale, nil
}

// UpdateDetails replaces the descriptive fields. Quantities are untouched.
func (p *Product) UpdateDetails(name ProductName, category string, price decimal.Decimal, now time.Time) error {
	category, err := normalizeCategory(category)
	if err != nil {
		return err
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", inventorydomain.ErrInvalidProduct)
	}
	p.Name = name
	p.Category = category
	p.Price = price.Round(2)
	p.touch(now)
	return nil
}

// CheckInvariants validates a product at the store boundary: after it is
// read and before it is written.
func (p *Product) CheckInvariants() error {
	switch {
	case p.ID == uuid.Nil || p.CompanyID == uuid.Nil:
		return fmt.Errorf("%w: missing id or company", inventorydomain.ErrInvariantViolation)
	case p.QtyCurrent < 0:
		return fmt.Errorf("%w: qty_current %d is negative", inventorydomain.ErrInvariantViolation, p.QtyCurrent)
	case p.QtyUploaded < p.QtyCurrent:
		return fmt.Errorf("%w: qty_uploaded %d below qty_current %d", inventorydomain.ErrInvariantViolation, p.QtyUploaded, p.QtyCurrent)
	case p.QtySold != p.QtyUploaded-p.QtyCurrent:
		return fmt.Errorf("%w: qty_sold %d != %d - %d", inventorydomain.ErrInvariantViolation, p.QtySold, p.QtyUploaded, p.QtyCurrent)
	case p.Status != StatusFor(p.QtyCurrent):
		return fmt.Errorf("%w: status %q with qty_current %d", inventorydomain.ErrInvariantViolation, p.Status, p.QtyCurrent)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: negative price", inventorydomain.ErrInvariantViolation)
	}
	return nil
}

// StockValue is the on-hand quantity priced at the current unit price.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.QtyCurrent))
}

func (p *Product) touch(now time.Time) {
	p.UpdatedAt = now.UTC()
	p.Version++
}

func normalizeCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxCategoryLength {
		return "", fmt.Errorf("%w: category must not exceed %d characters", inventorydomain.ErrInvalidProduct, maxCategoryLength)
	}
	return s, nil
}
