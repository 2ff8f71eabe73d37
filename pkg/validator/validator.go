// Package validator decodes and validates JSON request bodies with
// go-playground/validator. Field names in error responses are the JSON names.
//
// Besides the stock tags it registers:
//
//	notblank  string is non-empty once surrounding whitespace is trimmed
//	money     decimal.Decimal is non-negative with at most two decimal places
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/blueledger/blueledger/pkg/httpx"
)

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("money", money)
	return v
})

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	return f.Kind() == reflect.String && strings.TrimSpace(f.String()) != ""
}

func money(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative() && d.Equal(d.Round(2))
}

// ValidationResponse is the 422 body listing every failed field.
type ValidationResponse struct {
	Error  string            `json:"error" example:"Validation failed"`
	Code   string            `json:"code" example:"invalid_argument"`
	Fields map[string]string `json:"fields"`
} // @name ValidationResponse

// Validate checks s against its validate tags.
func Validate(s any) error {
	return instance().Struct(s)
}

// FormatValidationErrors maps each failed field to a readable message. Errors
// that are not validation errors yield an empty map.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return out
	}
	for _, e := range ve {
		out[e.Field()] = message(e)
	}
	return out
}

var messages = map[string]func(param string) string{
	"required": func(string) string { return "This field is required" },
	"notblank": func(string) string { return "This field is required" },
	"uuid":     func(string) string { return "Must be a valid UUID" },
	"email":    func(string) string { return "Must be a valid email address" },
	"money":    func(string) string { return "Must be a non-negative amount with at most 2 decimals" },
	"min":      func(p string) string { return "Minimum length is " + p },
	"max":      func(p string) string { return "Maximum length is " + p },
	"gte":      func(p string) string { return "Must be greater than or equal to " + p },
	"lte":      func(p string) string { return "Must be less than or equal to " + p },
	"oneof":    func(p string) string { return "Must be one of: " + p },
}

func message(e validator.FieldError) string {
	if f, ok := messages[e.Tag()]; ok {
		return f(e.Param())
	}
	return fmt.Sprintf("Validation failed on '%s'", e.Tag())
}

// ValidateRequest decodes the JSON body into T and validates it. On failure
// it writes the error response and returns false: 413 for an oversized body,
// 400 for malformed JSON or unknown fields, 422 listing the failed fields.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httpx.JSONError(w, http.StatusRequestEntityTooLarge, httpx.CodeInvalidArgument, "Request body too large")
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			httpx.JSONError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, strings.TrimPrefix(err.Error(), "json: "))
		default:
			httpx.JSONError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, "Invalid JSON")
		}
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, ValidationResponse{
			Error:  "Validation failed",
			Code:   httpx.CodeInvalidArgument,
			Fields: FormatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}
