package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tessera-live/tessera/internal/domain"
)

// LedgerReader is the read-only half of the ledger surface.
type LedgerReader interface {
	BalanceOf(ctx context.Context, account domain.Account) (uint64, error)
	Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// HandleBalance serves GET /balances/{account}.
func HandleBalance(svc LedgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		account, ok := pathSuffix(r.URL.Path, "/balances/")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		balance, err := svc.BalanceOf(r.Context(), domain.Account(account))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Account: account, Balance: balance})
	}
}

type allowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance uint64 `json:"allowance"`
}

// HandleAllowance serves GET /allowances/{owner}/{spender}.
func HandleAllowance(svc LedgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		rest, ok := pathSuffix(r.URL.Path, "/allowances/")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		owner, spender, found := strings.Cut(rest, "/")
		if !found || owner == "" || spender == "" || strings.Contains(spender, "/") {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		allowance, err := svc.Allowance(r.Context(), domain.Account(owner), domain.Account(spender))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, allowanceResponse{Owner: owner, Spender: spender, Allowance: allowance})
	}
}

type supplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

// HandleSupply serves GET /supply.
func HandleSupply(svc LedgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		supply, err := svc.TotalSupply(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, supplyResponse{TotalSupply: supply})
	}
}

// pathSuffix returns the non-empty remainder of path after prefix.
func pathSuffix(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return "", false
	}
	return rest, true
}
