package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies an error for the request layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is an expected failure with a stable code and a client-safe message.
type Error struct {
	kind    Kind
	code    string
	message string
}

// NewError creates a new domain error
func NewError(kind Kind, code, message string) *Error {
	return &Error{kind: kind, code: code, message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Kind returns the error classification
func (e *Error) Kind() Kind {
	return e.kind
}

// Code returns the machine-readable error code, e.g. "INSUFFICIENT_STOCK"
func (e *Error) Code() string {
	return e.code
}

// Message returns the client-safe message
func (e *Error) Message() string {
	return e.message
}

var (
	ErrValidation         = NewError(KindValidation, "VALIDATION_FAILED", "validation failed")
	ErrWeakPassword       = NewError(KindValidation, "WEAK_PASSWORD", "password must be at least 8 characters")
	ErrDuplicateEmail     = NewError(KindConflict, "DUPLICATE_EMAIL", "email already in use")
	ErrInvalidCredentials = NewError(KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrUnauthorized       = NewError(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrForbidden          = NewError(KindForbidden, "FORBIDDEN", "insufficient permissions")

	ErrNotFound         = NewError(KindNotFound, "NOT_FOUND", "resource not found")
	ErrUserNotFound     = NewError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrOrderNotFound    = NewError(KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrCategoryNotFound = NewError(KindNotFound, "CATEGORY_NOT_FOUND", "category not found")
	ErrProductNotFound  = NewError(KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrCategoryExists   = NewError(KindConflict, "CATEGORY_EXISTS", "category with this name already exists")
	ErrCategoryInUse    = NewError(KindConflict, "CATEGORY_IN_USE", "category still has products")
	ErrProductInUse     = NewError(KindConflict, "PRODUCT_IN_USE", "product is referenced by orders")

	// ErrInvalidCategory is returned when a product write names a category
	// that does not exist. It shares CATEGORY_NOT_FOUND with the lookup error
	// but is the caller's fault.
	ErrInvalidCategory = NewError(KindValidation, "CATEGORY_NOT_FOUND", "category not found")

	ErrEmptyOrder        = NewError(KindValidation, "EMPTY_ORDER", "order must contain at least one item")
	ErrInvalidQuantity   = NewError(KindValidation, "INVALID_QUANTITY", "quantity must be a positive integer")
	ErrInsufficientStock = NewError(KindConflict, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrInvalidStatus     = NewError(KindValidation, "INVALID_STATUS", "invalid order status")
)

// ItemError attaches the offending product to a per-line placement failure.
// The request layer reports every ItemError as a bad request.
type ItemError struct {
	ProductID uuid.UUID
	Err       *Error
}

// ProductNotFound builds the error for a requested product that does not exist
func ProductNotFound(id uuid.UUID) *ItemError {
	return &ItemError{ProductID: id, Err: ErrProductNotFound}
}

// InsufficientStock builds the error for a line whose quantity exceeds stock
func InsufficientStock(id uuid.UUID) *ItemError {
	return &ItemError{ProductID: id, Err: ErrInsufficientStock}
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Message(), e.ProductID)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind()
	}
	return KindInternal
}
