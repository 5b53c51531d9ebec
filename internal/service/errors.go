package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// NotFoundError names the missing resource. errors.Is(err, ErrNotFound) holds for it.
type NotFoundError struct {
	Resource string
	Key      any
}

func NewNotFoundError(resource string, key any) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return e.Resource
	}
	return fmt.Sprintf("%s (%v) was not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError carries field level rule violations keyed by json field name.
type ValidationError struct {
	Errors map[string][]string
}

func NewValidationError(field string, messages ...string) *ValidationError {
	v := &ValidationError{Errors: map[string][]string{}}
	v.Add(field, messages...)
	return v
}

func (e *ValidationError) Add(field string, messages ...string) {
	if e.Errors == nil {
		e.Errors = map[string][]string{}
	}
	e.Errors[field] = append(e.Errors[field], messages...)
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Errors[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AppError is a business rule violation whose message is safe to show to clients.
type AppError struct {
	Message string
}

func NewAppError(format string, args ...any) *AppError {
	return &AppError{Message: fmt.Sprintf(format, args...)}
}

func (e *AppError) Error() string {
	return e.Message
}

// UnauthorizedError keeps a client facing message while matching ErrUnauthorized.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}
