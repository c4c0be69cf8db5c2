package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tessera-live/tessera/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidAccount      = "invalid_account"
	codeUnauthorized        = "unauthorized"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
	codeInsufficientBalance = "insufficient_balance"
	codeInsufficientAllow   = "insufficient_allowance"
	codeIncorrectValue      = "incorrect_value"
	codeTransferFailed      = "transfer_failed"
	codeIncorrectPrice      = "incorrect_price"
	codeNotOwner            = "not_owner"
	codeNotVerifier         = "not_verifier"
	codeCannotFetch         = "cannot_fetch"
	codeSeatTaken           = "seat_taken"
	codeSeatMismatch        = "seat_mismatch"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the ledger's closed error set onto HTTP statuses
// and stable codes. Anything outside the set is an internal error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, codeInsufficientBalance, err.Error())
	case errors.Is(err, domain.ErrInsufficientAllowance):
		writeError(w, http.StatusConflict, codeInsufficientAllow, err.Error())
	case errors.Is(err, domain.ErrIncorrectValue):
		writeError(w, http.StatusBadRequest, codeIncorrectValue, err.Error())
	case errors.Is(err, domain.ErrTransferFailed):
		writeError(w, http.StatusBadGateway, codeTransferFailed, err.Error())
	case errors.Is(err, domain.ErrIncorrectPrice):
		writeError(w, http.StatusPaymentRequired, codeIncorrectPrice, err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, codeNotOwner, err.Error())
	case errors.Is(err, domain.ErrNotVerifier):
		writeError(w, http.StatusForbidden, codeNotVerifier, err.Error())
	case errors.Is(err, domain.ErrCannotFetch):
		writeError(w, http.StatusNotFound, codeCannotFetch, err.Error())
	case errors.Is(err, domain.ErrSeatTaken):
		writeError(w, http.StatusConflict, codeSeatTaken, err.Error())
	case errors.Is(err, domain.ErrSeatMismatch):
		writeError(w, http.StatusBadRequest, codeSeatMismatch, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
