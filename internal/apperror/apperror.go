package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Type string

const (
	TypeValidation  Type = "validation"
	TypeAuth        Type = "auth"
	TypeBadRequest  Type = "bad_request"
	TypePersistence Type = "persistence"
	TypeInternal    Type = "internal"
)

// PersistenceMessage is shown whenever a write could not be committed.
const PersistenceMessage = "Something went wrong while saving your changes."

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Type    Type
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case TypeValidation, TypeBadRequest:
		return http.StatusBadRequest
	case TypeAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FieldMap returns the first message per field, for templates and JSON bodies.
func (e *AppError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := m[f.Field]; !ok {
			m[f.Field] = f.Message
		}
	}
	return m
}

func NewValidationError(fields ...FieldError) *AppError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	msg := "Please correct the highlighted fields."
	if len(msgs) > 0 {
		msg = strings.Join(msgs, " ")
	}
	return &AppError{Type: TypeValidation, Message: msg, Fields: fields}
}

func NewAuthError(message string) *AppError {
	return &AppError{Type: TypeAuth, Message: message}
}

func NewBadRequest(message string) *AppError {
	return &AppError{Type: TypeBadRequest, Message: message}
}

func NewPersistenceError(err error) *AppError {
	return &AppError{Type: TypePersistence, Message: PersistenceMessage, Err: err}
}

func NewInternal(err error) *AppError {
	return &AppError{Type: TypeInternal, Message: "Internal server error", Err: err}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t Type) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}
