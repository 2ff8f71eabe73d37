// Package services contains stateless domain services for the account bounded context.
package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

// MinPasswordLength is the shortest temporary or signup password accepted.
const MinPasswordLength = 6

const (
	maxNameLength  = 120
	maxEmailLength = 254
)

// Credentials is validated, normalized account input.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// ValidateCredentials trims name and email, lowercases the email and checks
// that every field is present and the password is long enough. Violations
// are reported as ErrInvalidArgument.
func ValidateCredentials(name, email, password string) (Credentials, error) {
	c := Credentials{
		Name:     strings.TrimSpace(name),
		Email:    models.NormalizeEmail(email),
		Password: password,
	}

	switch {
	case c.Name == "":
		return Credentials{}, fmt.Errorf("%w: name is required", accountdomain.ErrInvalidArgument)
	case utf8.RuneCountInString(c.Name) > maxNameLength:
		return Credentials{}, fmt.Errorf("%w: name exceeds %d characters", accountdomain.ErrInvalidArgument, maxNameLength)
	case c.Email == "":
		return Credentials{}, fmt.Errorf("%w: email is required", accountdomain.ErrInvalidArgument)
	case len(c.Email) > maxEmailLength:
		return Credentials{}, fmt.Errorf("%w: email is too long", accountdomain.ErrInvalidArgument)
	case strings.TrimSpace(c.Password) == "":
		return Credentials{}, fmt.Errorf("%w: password is required", accountdomain.ErrInvalidArgument)
	case utf8.RuneCountInString(c.Password) < MinPasswordLength:
		return Credentials{}, fmt.Errorf("%w: password must be at least %d characters", accountdomain.ErrInvalidArgument, MinPasswordLength)
	}

	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return Credentials{}, fmt.Errorf("%w: email is not a valid address", accountdomain.ErrInvalidArgument)
	}
	return c, nil
}

// ValidateCompanyName trims and checks a company name.
func ValidateCompanyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: company name is required", accountdomain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: company name exceeds %d characters", accountdomain.ErrInvalidArgument, maxNameLength)
	}
	return name, nil
}
