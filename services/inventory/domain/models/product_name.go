package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ProductName is a value object for a trimmed, non-empty product name.
type ProductName string

const maxProductNameLength = 120

// NewProductName trims s and enforces 1 <= runes <= 120.
func NewProductName(s string) (ProductName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("product name is required")
	}
	if utf8.RuneCountInString(s) > maxProductNameLength {
		return "", fmt.Errorf("product name must not exceed %d characters", maxProductNameLength)
	}
	return ProductName(s), nil
}

// String returns the underlying string value.
func (n ProductName) String() string {
	return string(n)
}
