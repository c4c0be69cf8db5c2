package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tessera-live/tessera/internal/domain"
)

// TokenLedger is the mutating half of the ledger surface.
type TokenLedger interface {
	Transfer(ctx context.Context, call domain.Call, to domain.Account, value uint64) error
	Approve(ctx context.Context, call domain.Call, spender domain.Account, value uint64) error
	TransferFrom(ctx context.Context, call domain.Call, from, to domain.Account, value uint64) error
	Burn(ctx context.Context, call domain.Call, from domain.Account, value uint64) error
}

type transferRequest struct {
	To    string `json:"to"`
	Value uint64 `json:"value"`
}

// HandleTransfer returns an HTTP handler for moving tokens from the caller.
func HandleTransfer(svc TokenLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req transferRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.To == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "to is required")
			return
		}

		err := svc.Transfer(r.Context(), domain.Call{Caller: caller}, domain.Account(req.To), req.Value)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeNoContent(w)
	}
}

type approveRequest struct {
	Spender string `json:"spender"`
	Value   uint64 `json:"value"`
}

// HandleApprove returns an HTTP handler for overwriting an allowance.
func HandleApprove(svc TokenLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req approveRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Spender == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "spender is required")
			return
		}

		err := svc.Approve(r.Context(), domain.Call{Caller: caller}, domain.Account(req.Spender), req.Value)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeNoContent(w)
	}
}

type transferFromRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value uint64 `json:"value"`
}

// HandleTransferFrom returns an HTTP handler for spending an allowance.
func HandleTransferFrom(svc TokenLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req transferFromRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.From == "" || req.To == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "from and to are required")
			return
		}

		err := svc.TransferFrom(r.Context(), domain.Call{Caller: caller},
			domain.Account(req.From), domain.Account(req.To), req.Value)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeNoContent(w)
	}
}

type burnRequest struct {
	From  string `json:"from"`
	Value uint64 `json:"value"`
}

// HandleBurn returns an HTTP handler for destroying tokens. The service
// rejects callers that are not registered verifiers.
func HandleBurn(svc TokenLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req burnRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.From == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "from is required")
			return
		}

		err := svc.Burn(r.Context(), domain.Call{Caller: caller}, domain.Account(req.From), req.Value)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeNoContent(w)
	}
}

// beginMutation enforces POST and an authenticated caller.
func beginMutation(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return "", false
	}
	return requireCaller(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
