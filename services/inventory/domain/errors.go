package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the inventory domain. Use errors.Is() to check these.
var (
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidArgument indicates a malformed quantity or identifier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidProduct indicates descriptive fields (name, category, price) violate domain rules.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInsufficientStock indicates a sale larger than the stock on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvariantViolation indicates a stored product breaks the ledger invariants.
	// It is never caused by caller input.
	ErrInvariantViolation = errors.New("product invariant violated")
)

// InsufficientStockError reports the quantity that was available when the
// sale was attempted. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left", e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) succeed.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
