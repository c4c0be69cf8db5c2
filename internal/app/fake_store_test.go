package app

import (
	"context"
	"errors"

	"github.com/tessera-live/tessera/internal/domain"
)

// fakeStore backs all three repository interfaces with plain maps so the
// services can be tested without a database.
type fakeStore struct {
	balances   map[domain.Account]uint64
	allowances map[string]uint64
	verifiers  map[domain.Account]bool
	seatOrder  []string
	seatTaken  map[string]bool
	proofs     map[domain.Account][]byte
	treasury   uint64
	supply     uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		balances:   make(map[domain.Account]uint64),
		allowances: make(map[string]uint64),
		verifiers:  make(map[domain.Account]bool),
		seatTaken:  make(map[string]bool),
		proofs:     make(map[domain.Account][]byte),
	}
}

func (f *fakeStore) addSeats(ids ...string) {
	for _, id := range ids {
		f.seatOrder = append(f.seatOrder, id)
		f.seatTaken[id] = false
	}
}

func allowanceKey(owner, spender domain.Account) string {
	return string(owner) + "|" + string(spender)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) Balance(_ context.Context, account domain.Account) (uint64, error) {
	return f.balances[account], nil
}

func (f *fakeStore) SetBalance(_ context.Context, account domain.Account, value uint64) error {
	if value == 0 {
		delete(f.balances, account)
		return nil
	}
	f.balances[account] = value
	return nil
}

func (f *fakeStore) Allowance(_ context.Context, owner, spender domain.Account) (uint64, error) {
	return f.allowances[allowanceKey(owner, spender)], nil
}

func (f *fakeStore) SetAllowance(_ context.Context, owner, spender domain.Account, value uint64) error {
	key := allowanceKey(owner, spender)
	if value == 0 {
		delete(f.allowances, key)
		return nil
	}
	f.allowances[key] = value
	return nil
}

func (f *fakeStore) TotalSupply(_ context.Context) (uint64, error) {
	return f.supply, nil
}

func (f *fakeStore) SetTotalSupply(_ context.Context, value uint64) error {
	f.supply = value
	return nil
}

func (f *fakeStore) AddVerifier(_ context.Context, account domain.Account) error {
	f.verifiers[account] = true
	return nil
}

func (f *fakeStore) IsVerifier(_ context.Context, account domain.Account) (bool, error) {
	return f.verifiers[account], nil
}

func (f *fakeStore) TreasuryBalance(_ context.Context) (uint64, error) {
	return f.treasury, nil
}

func (f *fakeStore) SetTreasuryBalance(_ context.Context, value uint64) error {
	f.treasury = value
	return nil
}

func (f *fakeStore) SeatCount(_ context.Context) (int, error) {
	return len(f.seatOrder), nil
}

func (f *fakeStore) SeatListed(_ context.Context, id string) (bool, error) {
	_, ok := f.seatTaken[id]
	return ok, nil
}

func (f *fakeStore) SeatTaken(_ context.Context, id string) (bool, error) {
	return f.seatTaken[id], nil
}

func (f *fakeStore) MarkSeatTaken(_ context.Context, id string) error {
	if _, ok := f.seatTaken[id]; !ok {
		return errors.New("unknown seat")
	}
	f.seatTaken[id] = true
	return nil
}

func (f *fakeStore) ListSeats(_ context.Context) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0, len(f.seatOrder))
	for _, id := range f.seatOrder {
		seats = append(seats, domain.Seat{ID: id, Taken: f.seatTaken[id]})
	}
	return seats, nil
}

func (f *fakeStore) Proof(_ context.Context, account domain.Account) ([]byte, error) {
	return f.proofs[account], nil
}

func (f *fakeStore) SetProof(_ context.Context, account domain.Account, signature []byte) error {
	f.proofs[account] = append([]byte(nil), signature...)
	return nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	transfers []domain.TransferEvent
	approvals []domain.ApprovalEvent
}

func (n *recordingNotifier) TransferOccurred(_ context.Context, ev domain.TransferEvent) {
	n.transfers = append(n.transfers, ev)
}

func (n *recordingNotifier) ApprovalGranted(_ context.Context, ev domain.ApprovalEvent) {
	n.approvals = append(n.approvals, ev)
}

// fakePayments confirms or rejects payouts on demand.
type fakePayments struct {
	fail    bool
	payouts []uint64
}

func (p *fakePayments) Payout(_ context.Context, _ domain.Account, amount uint64) error {
	if p.fail {
		return errors.New("channel unavailable")
	}
	p.payouts = append(p.payouts, amount)
	return nil
}
