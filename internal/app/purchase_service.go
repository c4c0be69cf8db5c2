package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/tessera-live/tessera/internal/clock"
	"github.com/tessera-live/tessera/internal/domain"
)

type PurchaseRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	SetBalance(ctx context.Context, account domain.Account, value uint64) error
	TreasuryBalance(ctx context.Context) (uint64, error)
	SetTreasuryBalance(ctx context.Context, value uint64) error
	SeatCount(ctx context.Context) (int, error)
	SeatListed(ctx context.Context, id string) (bool, error)
	SeatTaken(ctx context.Context, id string) (bool, error)
	MarkSeatTaken(ctx context.Context, id string) error
	ListSeats(ctx context.Context) ([]domain.Seat, error)
	Proof(ctx context.Context, account domain.Account) ([]byte, error)
	SetProof(ctx context.Context, account domain.Account, signature []byte) error
}

// PurchaseService composes the ledger, the seat inventory and the treasury
// into the single all-or-nothing purchase operation.
type PurchaseService struct {
	repo     PurchaseRepository
	clock    clock.Clock
	notifier Notifier
	owner    domain.Account
	price    uint64
}

type PurchaseServiceOption func(*PurchaseService)

// WithPurchaseNotifier wires a notifier that receives the sale's transfer
// event.
func WithPurchaseNotifier(n Notifier) PurchaseServiceOption {
	return func(s *PurchaseService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewPurchaseService(repo PurchaseRepository, clk clock.Clock, owner domain.Account, price uint64, opts ...PurchaseServiceOption) *PurchaseService {
	svc := &PurchaseService{
		repo:     repo,
		clock:    clk,
		notifier: noopNotifier{},
		owner:    owner,
		price:    price,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Price returns the unit price fixed at construction.
func (s *PurchaseService) Price() uint64 {
	return s.price
}

type PurchaseInput struct {
	To        domain.Account
	Value     uint64
	Signature []byte
	Seats     []string
}

// PurchaseTickets sells Value tokens from the owner's float to the buyer,
// claims the requested seats and credits the attached payment to the
// treasury. Every precondition is checked before any state is written, so a
// failure leaves the ledger, the inventory, the treasury and the buyer's
// proof record exactly as they were.
func (s *PurchaseService) PurchaseTickets(ctx context.Context, call domain.Call, in PurchaseInput) (domain.Receipt, error) {
	if in.Value > domain.MaxAmount {
		return domain.Receipt{}, domain.ErrIncorrectValue
	}

	required, err := domain.MulAmount(s.price, in.Value)
	if err != nil {
		return domain.Receipt{}, err
	}
	if required != call.Paid {
		return domain.Receipt{}, domain.ErrIncorrectPrice
	}

	var (
		receipt domain.Receipt
		ev      domain.TransferEvent
	)
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		seatCount, err := s.repo.SeatCount(txCtx)
		if err != nil {
			return err
		}

		// An empty catalog means no-seats mode: the purchase degenerates
		// to a plain paid transfer and the request's seat list is ignored.
		claimed := in.Seats
		if seatCount == 0 {
			claimed = nil
		} else {
			if err := s.checkSeatsFree(txCtx, in.Seats); err != nil {
				return err
			}
			if in.Value != uint64(len(in.Seats)) {
				return domain.ErrSeatMismatch
			}
		}

		treasury, err := s.repo.TreasuryBalance(txCtx)
		if err != nil {
			return err
		}
		newTreasury, err := domain.AddAmount(treasury, call.Paid)
		if err != nil {
			return err
		}

		moved, err := move(txCtx, s.repo, s.owner, in.To, in.Value)
		if err != nil {
			return err
		}
		ev = moved

		if err := s.repo.SetTreasuryBalance(txCtx, newTreasury); err != nil {
			return err
		}
		for _, id := range claimed {
			if err := s.repo.MarkSeatTaken(txCtx, id); err != nil {
				return err
			}
		}
		if err := s.repo.SetProof(txCtx, in.To, in.Signature); err != nil {
			return err
		}

		receipt = domain.Receipt{
			ID:         uuid.NewString(),
			Buyer:      in.To,
			Value:      in.Value,
			Seats:      claimed,
			AmountPaid: call.Paid,
			CreatedAt:  s.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	s.notifier.TransferOccurred(ctx, ev)
	return receipt, nil
}

// IsSeatAvailable reports whether every requested seat is currently free.
// Unknown identifiers count as unavailable.
func (s *PurchaseService) IsSeatAvailable(ctx context.Context, seats []string) (bool, error) {
	available := false
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		switch err := s.checkSeatsFree(txCtx, seats); err {
		case nil:
			available = true
			return nil
		case domain.ErrSeatTaken:
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return available, nil
}

// ListSeats returns the catalog in construction order with each seat's
// taken flag.
func (s *PurchaseService) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	return s.repo.ListSeats(ctx)
}

// Proof returns the receipt signature recorded for the account's most
// recent purchase.
func (s *PurchaseService) Proof(ctx context.Context, account domain.Account) ([]byte, error) {
	signature, err := s.repo.Proof(ctx, account)
	if err != nil {
		return nil, err
	}
	if signature == nil {
		return nil, domain.ErrCannotFetch
	}
	return signature, nil
}

// checkSeatsFree fails with ErrSeatTaken when any requested seat is
// unknown, already taken, or repeated within the request.
func (s *PurchaseService) checkSeatsFree(ctx context.Context, seats []string) error {
	seen := make(map[string]struct{}, len(seats))
	for _, id := range seats {
		if _, dup := seen[id]; dup {
			return domain.ErrSeatTaken
		}
		seen[id] = struct{}{}

		listed, err := s.repo.SeatListed(ctx, id)
		if err != nil {
			return err
		}
		if !listed {
			return domain.ErrSeatTaken
		}
		taken, err := s.repo.SeatTaken(ctx, id)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSeatTaken
		}
	}
	return nil
}
