package domain

import "errors"

// The closed set of failure kinds. Every fallible operation reports one of
// these; storage-level failures are wrapped separately and never replace
// them.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrIncorrectValue        = errors.New("incorrect value")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrIncorrectPrice        = errors.New("incorrect price")
	ErrNotOwner              = errors.New("not owner")
	ErrNotVerifier           = errors.New("not verifier")
	ErrCannotFetch           = errors.New("cannot fetch")
	ErrSeatTaken             = errors.New("seat taken")
	ErrSeatMismatch          = errors.New("seat mismatch")
)
