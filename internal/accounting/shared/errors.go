package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit for a transaction group.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrJournalNotFound indicates missing transaction group.
	ErrJournalNotFound = errors.New("accounting: journal group not found")
	// ErrAccountNotFound indicates a missing CoA node.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrInvalidDateRange indicates from/to are missing or inverted.
	ErrInvalidDateRange = errors.New("accounting: invalid date range")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
	// ErrPeriodClosed indicates no open fiscal period covers the posting date.
	ErrPeriodClosed = errors.New("accounting: no open period for posting date")
)
