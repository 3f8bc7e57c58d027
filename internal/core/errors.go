package core

import "errors"

// Error kinds shared by the record store, the debt ledger and their callers.
// Wrapped errors keep these as their root so callers match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDuplicateOpenDebt  = errors.New("client already has an open debt")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation error")
)

// Kind returns a stable identifier for the error kind of err, suitable for
// rendering user-facing messages.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrDuplicateOpenDebt):
		return "duplicate_open_debt"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal_error"
	}
}
