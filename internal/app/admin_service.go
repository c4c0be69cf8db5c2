package app

import (
	"context"

	"github.com/tessera-live/tessera/internal/domain"
)

type AdminRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	AddVerifier(ctx context.Context, account domain.Account) error
	IsVerifier(ctx context.Context, account domain.Account) (bool, error)
	TreasuryBalance(ctx context.Context) (uint64, error)
	SetTreasuryBalance(ctx context.Context, value uint64) error
}

// PaymentChannel moves value from the contract's own balance out to an
// account. It is the hosting environment's side of a treasury withdrawal;
// Clear only zeroes the treasury after the channel confirms the payout.
type PaymentChannel interface {
	Payout(ctx context.Context, to domain.Account, amount uint64) error
}

type AdminService struct {
	repo     AdminRepository
	payments PaymentChannel
	owner    domain.Account
}

func NewAdminService(repo AdminRepository, payments PaymentChannel, owner domain.Account) *AdminService {
	return &AdminService{
		repo:     repo,
		payments: payments,
		owner:    owner,
	}
}

// Owner returns the account fixed at construction. There is no way to
// reassign it.
func (s *AdminService) Owner() domain.Account {
	return s.owner
}

// AddVerifier registers an account as a token verifier. Owner only;
// inserting an existing verifier is a no-op.
func (s *AdminService) AddVerifier(ctx context.Context, call domain.Call, target domain.Account) error {
	if call.Caller != s.owner {
		return domain.ErrNotOwner
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.AddVerifier(txCtx, target)
	})
}

func (s *AdminService) IsVerifier(ctx context.Context, account domain.Account) (bool, error) {
	return s.repo.IsVerifier(ctx, account)
}

func (s *AdminService) ContractBalance(ctx context.Context) (uint64, error) {
	return s.repo.TreasuryBalance(ctx)
}

// Clear pays the accumulated treasury balance out to the owner and zeroes
// it. The amount paid out is returned. If the payment channel cannot
// confirm the payout the treasury is left untouched.
func (s *AdminService) Clear(ctx context.Context, call domain.Call) (uint64, error) {
	if call.Caller != s.owner {
		return 0, domain.ErrNotOwner
	}

	var amount uint64
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		balance, err := s.repo.TreasuryBalance(txCtx)
		if err != nil {
			return err
		}
		if balance == 0 {
			return nil
		}

		if err := s.payments.Payout(txCtx, s.owner, balance); err != nil {
			return domain.ErrTransferFailed
		}

		amount = balance
		return s.repo.SetTreasuryBalance(txCtx, 0)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}
