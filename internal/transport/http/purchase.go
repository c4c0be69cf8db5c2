package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/tessera-live/tessera/internal/app"
	"github.com/tessera-live/tessera/internal/domain"
)

// TicketPurchaser is the purchase surface: the atomic buy plus its reads.
type TicketPurchaser interface {
	PurchaseTickets(ctx context.Context, call domain.Call, in app.PurchaseInput) (domain.Receipt, error)
	IsSeatAvailable(ctx context.Context, seats []string) (bool, error)
	ListSeats(ctx context.Context) ([]domain.Seat, error)
	Proof(ctx context.Context, account domain.Account) ([]byte, error)
	Price() uint64
}

type purchaseRequest struct {
	To        string   `json:"to"`
	Value     uint64   `json:"value"`
	Signature string   `json:"signature"`
	Seats     []string `json:"seats"`
	// Payment is the value the environment attached to this call.
	Payment uint64 `json:"payment"`
}

type purchaseResponse struct {
	ID         string    `json:"id"`
	Buyer      string    `json:"buyer"`
	Value      uint64    `json:"value"`
	Seats      []string  `json:"seats,omitempty"`
	AmountPaid uint64    `json:"amount_paid"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandlePurchase returns an HTTP handler for the atomic ticket purchase.
func HandlePurchase(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := beginMutation(w, r)
		if !ok {
			return
		}

		var req purchaseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.To == "" {
			writeError(w, http.StatusBadRequest, codeInvalidAccount, "to is required")
			return
		}
		signature, err := base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "signature must be base64")
			return
		}

		receipt, err := svc.PurchaseTickets(r.Context(),
			domain.Call{Caller: caller, Paid: req.Payment},
			app.PurchaseInput{
				To:        domain.Account(req.To),
				Value:     req.Value,
				Signature: signature,
				Seats:     req.Seats,
			})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, purchaseResponse{
			ID:         receipt.ID,
			Buyer:      string(receipt.Buyer),
			Value:      receipt.Value,
			Seats:      receipt.Seats,
			AmountPaid: receipt.AmountPaid,
			CreatedAt:  receipt.CreatedAt,
		})
	}
}

type seatResponse struct {
	ID    string `json:"id"`
	Taken bool   `json:"taken"`
}

// HandleSeats serves GET /seats: the catalog in construction order.
func HandleSeats(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		seats, err := svc.ListSeats(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]seatResponse, 0, len(seats))
		for _, seat := range seats {
			out = append(out, seatResponse{ID: seat.ID, Taken: seat.Taken})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type availabilityResponse struct {
	Seats     []string `json:"seats"`
	Available bool     `json:"available"`
}

// HandleSeatAvailability serves GET /seats/availability?ids=A1,A2.
func HandleSeatAvailability(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		var seats []string
		if raw := r.URL.Query().Get("ids"); raw != "" {
			for _, id := range strings.Split(raw, ",") {
				id = strings.TrimSpace(id)
				if id != "" {
					seats = append(seats, id)
				}
			}
		}

		available, err := svc.IsSeatAvailable(r.Context(), seats)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{Seats: seats, Available: available})
	}
}

type proofResponse struct {
	Account   string `json:"account"`
	Signature string `json:"signature"`
}

// HandleProof serves GET /proofs/{account}: the receipt signature recorded
// by the account's most recent purchase.
func HandleProof(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		account, ok := pathSuffix(r.URL.Path, "/proofs/")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		signature, err := svc.Proof(r.Context(), domain.Account(account))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proofResponse{
			Account:   account,
			Signature: base64.StdEncoding.EncodeToString(signature),
		})
	}
}

type priceResponse struct {
	UnitPrice uint64 `json:"unit_price"`
}

// HandlePrice serves GET /price.
func HandlePrice(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, priceResponse{UnitPrice: svc.Price()})
	}
}
