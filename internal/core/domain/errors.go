package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCriteria   = errors.New("invalid search criteria")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	ErrMalformedSource   = errors.New("malformed catalog source")
)

// NotFoundError carries the identifier of the missing product.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item with id %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidCriteriaError describes the first invalid search parameter.
type InvalidCriteriaError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidCriteriaError) Error() string {
	return fmt.Sprintf(
		"invalid search criteria: %s = %s: %s", e.Field, e.Value, e.Reason,
	)
}

func (e *InvalidCriteriaError) Unwrap() error {
	return ErrInvalidCriteria
}
