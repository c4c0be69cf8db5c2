package http

import (
	"context"
	"net/http"

	"github.com/tessera-live/tessera/internal/domain"
)

// Admin is the owner-gated surface plus its public reads.
type Admin interface {
	AddVerifier(ctx context.Context, call domain.Call, target domain.Account) error
	IsVerifier(ctx context.Context, account domain.Account) (bool, error)
	ContractBalance(ctx context.Context) (uint64, error)
	Clear(ctx context.Context, call domain.Call) (uint64, error)
	Owner() domain.Account
}

type addVerifierRequest struct {
	Address string `json:"address"`
}

// HandleAddVerifier returns an HTTP handler for registering a verifier.
// The service rejects callers other than the owner.
func HandleAddVerifier(svc Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req addVerifierRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Address == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "address is required")
			return
		}

		err := svc.AddVerifier(r.Context(), domain.Call{Caller: caller}, domain.Account(req.Address))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeNoContent(w)
	}
}

type verifierResponse struct {
	Address  string `json:"address"`
	Verifier bool   `json:"verifier"`
}

// HandleVerifierStatus serves GET /verifiers/{account}.
func HandleVerifierStatus(svc Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		account, ok := pathSuffix(r.URL.Path, "/verifiers/")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		isVerifier, err := svc.IsVerifier(r.Context(), domain.Account(account))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, verifierResponse{Address: account, Verifier: isVerifier})
	}
}

type treasuryResponse struct {
	Balance uint64 `json:"balance"`
}

// HandleTreasury serves GET /treasury.
func HandleTreasury(svc Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		balance, err := svc.ContractBalance(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, treasuryResponse{Balance: balance})
	}
}

type clearResponse struct {
	Withdrawn uint64 `json:"withdrawn"`
}

// HandleClear returns an HTTP handler for the owner's treasury withdrawal.
func HandleClear(svc Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		withdrawn, err := svc.Clear(r.Context(), domain.Call{Caller: caller})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clearResponse{Withdrawn: withdrawn})
	}
}

type ownerResponse struct {
	Owner string `json:"owner"`
}

// HandleOwner serves GET /owner.
func HandleOwner(svc Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, ownerResponse{Owner: string(svc.Owner())})
	}
}
