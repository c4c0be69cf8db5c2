package app

import (
	"context"

	"github.com/tessera-live/tessera/internal/domain"
)

type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	SetBalance(ctx context.Context, account domain.Account, value uint64) error
	Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error)
	SetAllowance(ctx context.Context, owner, spender domain.Account, value uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
	SetTotalSupply(ctx context.Context, value uint64) error
	IsVerifier(ctx context.Context, account domain.Account) (bool, error)
}

type LedgerService struct {
	repo     LedgerRepository
	notifier Notifier
}

type LedgerServiceOption func(*LedgerService)

// WithLedgerNotifier wires a notifier that receives transfer and approval
// events.
func WithLedgerNotifier(n Notifier) LedgerServiceOption {
	return func(s *LedgerService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewLedgerService(repo LedgerRepository, opts ...LedgerServiceOption) *LedgerService {
	svc := &LedgerService{
		repo:     repo,
		notifier: noopNotifier{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Transfer moves value from the caller to another account.
func (s *LedgerService) Transfer(ctx context.Context, call domain.Call, to domain.Account, value uint64) error {
	if value > domain.MaxAmount {
		return domain.ErrIncorrectValue
	}

	var ev domain.TransferEvent
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		moved, err := move(txCtx, s.repo, call.Caller, to, value)
		if err != nil {
			return err
		}
		ev = moved
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.TransferOccurred(ctx, ev)
	return nil
}

// Approve overwrites the allowance the caller grants to spender. The new
// budget replaces the old one entirely; it is not additive.
func (s *LedgerService) Approve(ctx context.Context, call domain.Call, spender domain.Account, value uint64) error {
	if value > domain.MaxAmount {
		return domain.ErrIncorrectValue
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.SetAllowance(txCtx, call.Caller, spender, value)
	})
	if err != nil {
		return err
	}

	s.notifier.ApprovalGranted(ctx, domain.ApprovalEvent{
		Owner:   call.Caller,
		Spender: spender,
		Value:   value,
	})
	return nil
}

// TransferFrom spends the caller's allowance on from's balance. A failed
// balance move leaves the allowance untouched.
func (s *LedgerService) TransferFrom(ctx context.Context, call domain.Call, from, to domain.Account, value uint64) error {
	if value > domain.MaxAmount {
		return domain.ErrIncorrectValue
	}

	var ev domain.TransferEvent
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		allowance, err := s.repo.Allowance(txCtx, from, call.Caller)
		if err != nil {
			return err
		}
		if allowance < value {
			return domain.ErrInsufficientAllowance
		}

		moved, err := move(txCtx, s.repo, from, to, value)
		if err != nil {
			return err
		}
		ev = moved

		return s.repo.SetAllowance(txCtx, from, call.Caller, allowance-value)
	})
	if err != nil {
		return err
	}

	s.notifier.TransferOccurred(ctx, ev)
	return nil
}

// Burn destroys value from an account. Only registered verifiers may burn;
// total supply shrinks by the burned amount.
func (s *LedgerService) Burn(ctx context.Context, call domain.Call, from domain.Account, value uint64) error {
	if value > domain.MaxAmount {
		return domain.ErrIncorrectValue
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		isVerifier, err := s.repo.IsVerifier(txCtx, call.Caller)
		if err != nil {
			return err
		}
		if !isVerifier {
			return domain.ErrNotVerifier
		}

		balance, err := s.repo.Balance(txCtx, from)
		if err != nil {
			return err
		}
		if balance < value {
			return domain.ErrInsufficientBalance
		}

		supply, err := s.repo.TotalSupply(txCtx)
		if err != nil {
			return err
		}
		if supply < value {
			return domain.ErrIncorrectValue
		}

		if err := s.repo.SetBalance(txCtx, from, balance-value); err != nil {
			return err
		}
		return s.repo.SetTotalSupply(txCtx, supply-value)
	})
}

func (s *LedgerService) BalanceOf(ctx context.Context, account domain.Account) (uint64, error) {
	return s.repo.Balance(ctx, account)
}

func (s *LedgerService) Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error) {
	return s.repo.Allowance(ctx, owner, spender)
}

func (s *LedgerService) TotalSupply(ctx context.Context) (uint64, error) {
	return s.repo.TotalSupply(ctx)
}

type balanceStore interface {
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	SetBalance(ctx context.Context, account domain.Account, value uint64) error
}

// move validates both sides of a balance movement before writing either
// side. A self-transfer still requires sufficient balance but writes
// nothing.
func move(ctx context.Context, store balanceStore, from, to domain.Account, value uint64) (domain.TransferEvent, error) {
	ev := domain.TransferEvent{From: &from, To: &to, Value: value}

	fromBalance, err := store.Balance(ctx, from)
	if err != nil {
		return domain.TransferEvent{}, err
	}
	if fromBalance < value {
		return domain.TransferEvent{}, domain.ErrInsufficientBalance
	}
	if from == to {
		return ev, nil
	}

	toBalance, err := store.Balance(ctx, to)
	if err != nil {
		return domain.TransferEvent{}, err
	}
	newToBalance, err := domain.AddAmount(toBalance, value)
	if err != nil {
		return domain.TransferEvent{}, err
	}

	if err := store.SetBalance(ctx, from, fromBalance-value); err != nil {
		return domain.TransferEvent{}, err
	}
	if err := store.SetBalance(ctx, to, newToBalance); err != nil {
		return domain.TransferEvent{}, err
	}
	return ev, nil
}
