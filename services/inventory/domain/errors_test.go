package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestInsufficientStockError(t *testing.T) {
	err := error(&InsufficientStockError{Available: 4, Requested: 6})

	if err.Error() != "only 4 left" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("errors.Is must match ErrInsufficientStock")
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Fatal("must not match unrelated sentinels")
	}

	wrapped := fmt.Errorf("sell: %w", err)
	var ise *InsufficientStockError
	if !errors.As(wrapped, &ise) || ise.Available != 4 || ise.Requested != 6 {
		t.Fatalf("errors.As lost the quantities: %+v", ise)
	}
	if !errors.Is(wrapped, ErrInsufficientStock) {
		t.Fatal("wrapped error must still match ErrInsufficientStock")
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", ErrInvalidProduct, errors.New("name too long"))
	if !errors.Is(wrapped, ErrInvalidProduct) {
		t.Fatal("errors.Is must match double-wrapped ErrInvalidProduct")
	}
}
