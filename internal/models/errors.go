package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIllegalTransition = errors.New("illegal workflow transition")
	ErrNoTicketsSold     = errors.New("no tickets have been sold")
	ErrPriceMismatch     = errors.New("declared total does not match ticket price")
	ErrNotFound          = errors.New("not found")
)

// ValidationError lists the form fields that failed validation. It never
// reaches the ledger.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in all fields: " + strings.Join(e.Fields, ", ")
}

// RegistrationError is a register call rejected by the ledger.
type RegistrationError struct {
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil && e.Reason == "" {
		return "registration failed: " + e.Err.Error()
	}
	return "registration failed: " + e.Reason
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// DrawError is a refused or failed draw.
type DrawError struct {
	Reason string
	Err    error
}

func (e *DrawError) Error() string {
	if e.Err != nil && e.Reason == "" {
		return "draw failed: " + e.Err.Error()
	}
	return "draw failed: " + e.Reason
}

func (e *DrawError) Unwrap() error { return e.Err }

// TransportError is a network or decoding failure on a ledger call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
