// Package services contains stateless domain services for the inventory bounded context.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/inventory/domain/models"
)

// ValidateName enforces business rules for ProductName beyond the length
// check of the constructor:
//   - No control characters
//   - No consecutive spaces
func ValidateName(name models.ProductName) error {
	s := name.String()

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("product name must not have leading or trailing whitespace")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("product name must not contain control characters")
		}
	}
	if strings.Contains(s, "  ") {
		return fmt.Errorf("product name must not contain consecutive spaces")
	}
	return nil
}

// ValidateProductForCreation performs cross-field checks on a product built
// by models.NewProduct before it is persisted.
func ValidateProductForCreation(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product cannot be nil")
	}
	if err := ValidateName(p.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	if p.CompanyID == uuid.Nil {
		return fmt.Errorf("company_id must be set")
	}
	if p.CreatedBy == uuid.Nil {
		return fmt.Errorf("created_by must be set")
	}
	if p.QtySold != 0 || p.QtyCurrent != p.QtyUploaded {
		return fmt.Errorf("a new product cannot have sales")
	}
	return nil
}
