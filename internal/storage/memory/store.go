package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessera-live/tessera/internal/domain"
)

type txKey struct{}

// Store is the authoritative in-memory ledger state. WithTx serializes
// operations the way the hosting environment does: one at a time, each
// fully visible to the next. Balances and allowances are sparse; writing a
// zero deletes the key so absent entries and zero values stay
// indistinguishable.
type Store struct {
	mu sync.Mutex

	balances    map[domain.Account]uint64
	allowances  map[allowanceKey]uint64
	verifiers   map[domain.Account]struct{}
	seatOrder   []string
	seatTaken   map[string]bool
	proofs      map[domain.Account][]byte
	treasury    uint64
	totalSupply uint64
}

type allowanceKey struct {
	owner   domain.Account
	spender domain.Account
}

// Seed holds the construction parameters the store is born with.
type Seed struct {
	Owner         domain.Account
	InitialSupply uint64
	Seats         []string
}

// New builds a store in its construction state: the owner's float is the
// full initial supply and every catalog seat starts free. Duplicate seat
// identifiers in the catalog collapse to one seat.
func New(seed Seed) *Store {
	s := &Store{
		balances:    make(map[domain.Account]uint64),
		allowances:  make(map[allowanceKey]uint64),
		verifiers:   make(map[domain.Account]struct{}),
		seatTaken:   make(map[string]bool),
		proofs:      make(map[domain.Account][]byte),
		totalSupply: seed.InitialSupply,
	}
	if seed.InitialSupply > 0 {
		s.balances[seed.Owner] = seed.InitialSupply
	}
	for _, id := range seed.Seats {
		if _, ok := s.seatTaken[id]; ok {
			continue
		}
		s.seatOrder = append(s.seatOrder, id)
		s.seatTaken[id] = false
	}
	return s
}

// WithTx runs fn while holding the store's lock. Nested calls run in the
// enclosing scope.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	held, _ := ctx.Value(txKey{}).(bool)
	return held
}

// lock acquires the store's lock unless the context already holds it; the
// returned func releases whatever was acquired.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	defer s.lock(ctx)()
	return s.balances[account], nil
}

func (s *Store) SetBalance(ctx context.Context, account domain.Account, value uint64) error {
	defer s.lock(ctx)()
	if value == 0 {
		delete(s.balances, account)
		return nil
	}
	s.balances[account] = value
	return nil
}

func (s *Store) Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error) {
	defer s.lock(ctx)()
	return s.allowances[allowanceKey{owner: owner, spender: spender}], nil
}

func (s *Store) SetAllowance(ctx context.Context, owner, spender domain.Account, value uint64) error {
	defer s.lock(ctx)()
	key := allowanceKey{owner: owner, spender: spender}
	if value == 0 {
		delete(s.allowances, key)
		return nil
	}
	s.allowances[key] = value
	return nil
}

func (s *Store) TotalSupply(ctx context.Context) (uint64, error) {
	defer s.lock(ctx)()
	return s.totalSupply, nil
}

func (s *Store) SetTotalSupply(ctx context.Context, value uint64) error {
	defer s.lock(ctx)()
	s.totalSupply = value
	return nil
}

func (s *Store) IsVerifier(ctx context.Context, account domain.Account) (bool, error) {
	defer s.lock(ctx)()
	_, ok := s.verifiers[account]
	return ok, nil
}

func (s *Store) AddVerifier(ctx context.Context, account domain.Account) error {
	defer s.lock(ctx)()
	s.verifiers[account] = struct{}{}
	return nil
}

func (s *Store) TreasuryBalance(ctx context.Context) (uint64, error) {
	defer s.lock(ctx)()
	return s.treasury, nil
}

func (s *Store) SetTreasuryBalance(ctx context.Context, value uint64) error {
	defer s.lock(ctx)()
	s.treasury = value
	return nil
}

func (s *Store) SeatCount(ctx context.Context) (int, error) {
	defer s.lock(ctx)()
	return len(s.seatOrder), nil
}

func (s *Store) SeatListed(ctx context.Context, id string) (bool, error) {
	defer s.lock(ctx)()
	_, ok := s.seatTaken[id]
	return ok, nil
}

func (s *Store) SeatTaken(ctx context.Context, id string) (bool, error) {
	defer s.lock(ctx)()
	return s.seatTaken[id], nil
}

func (s *Store) MarkSeatTaken(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.seatTaken[id]; !ok {
		return fmt.Errorf("mark seat taken: unknown seat %q", id)
	}
	s.seatTaken[id] = true
	return nil
}

func (s *Store) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	defer s.lock(ctx)()
	seats := make([]domain.Seat, 0, len(s.seatOrder))
	for _, id := range s.seatOrder {
		seats = append(seats, domain.Seat{ID: id, Taken: s.seatTaken[id]})
	}
	return seats, nil
}

func (s *Store) Proof(ctx context.Context, account domain.Account) ([]byte, error) {
	defer s.lock(ctx)()
	signature, ok := s.proofs[account]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(signature))
	copy(out, signature)
	return out, nil
}

func (s *Store) SetProof(ctx context.Context, account domain.Account, signature []byte) error {
	defer s.lock(ctx)()
	stored := make([]byte, len(signature))
	copy(stored, signature)
	s.proofs[account] = stored
	return nil
}
