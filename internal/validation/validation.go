// Package validation checks request messages with go-playground/validator
// struct tags and reports the first failure as an *apperr.ValidationError.
//
// Custom tags:
//
//	positive_amount     decimal string, > 0, at most 2 decimal places
//	nonnegative_amount  decimal string, >= 0, at most 2 decimal places
//
// Both accept the empty string so that "required" or "required_without" stay
// in charge of presence.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/money"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := vld.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := money.ParsePositive(s)
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'positive_amount': %w", err)
	}

	if err := vld.RegisterValidation("nonnegative_amount", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		c, err := money.Parse(s)
		return err == nil && c >= 0
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'nonnegative_amount': %w", err)
	}

	return vld, nil
}

// Struct validates payload and returns nil or the first failing field as an
// *apperr.ValidationError.
func Struct(payload any) error {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	if errValidate != nil {
		return fmt.Errorf("validator initialization failed: %w", errValidate)
	}

	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return format(fieldErrs[0])
	}
	return fmt.Errorf("validation failed: %w", err)
}

var problems = map[string]func(param string) string{
	"required":           func(string) string { return "is required" },
	"required_without":   func(p string) string { return "is required when " + p + " is not set" },
	"excluded_with":      func(p string) string { return "must not be set together with " + p },
	"max":                func(p string) string { return "must be at most " + p + " characters" },
	"min":                func(p string) string { return "must be at least " + p + " characters" },
	"gt":                 func(p string) string { return "must be greater than " + p },
	"gte":                func(p string) string { return "must be at least " + p },
	"oneof":              func(p string) string { return "must be one of [" + p + "]" },
	"email":              func(string) string { return "must be a valid email address" },
	"uuid":               func(string) string { return "must be a valid UUID" },
	"positive_amount":    func(string) string { return "must be a positive amount with at most 2 decimal places" },
	"nonnegative_amount": func(string) string { return "must be a non-negative amount with at most 2 decimal places" },
}

func format(fe validator.FieldError) error {
	field := fe.Field()
	if problem, ok := problems[fe.Tag()]; ok {
		return &apperr.ValidationError{Field: field, Problem: problem(toSnakeCase(fe.Param()))}
	}
	return &apperr.ValidationError{Field: field, Problem: fmt.Sprintf("failed '%s' check", fe.Tag())}
}

// toSnakeCase converts a Go field name used as a tag param (e.g. AmountCents)
// to its JSON spelling.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
