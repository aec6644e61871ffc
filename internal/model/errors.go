package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the engine, the store and the API.
var (
	// ErrNotFound is returned for unknown or foreign ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation is returned for operations that can never succeed,
	// such as a transfer from an account to itself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidAmount is returned for non-positive or unparsable amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrRateUnavailable signals that no exchange rate applies. It is not
	// fatal: conversion degrades to the identity.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidOperation.
func (e ValidationError) Unwrap() error {
	return ErrInvalidOperation
}

// Classify returns a short label for err, suitable for metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrRateUnavailable):
		return "rate_unavailable"
	default:
		return "internal"
	}
}
