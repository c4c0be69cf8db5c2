package app

import (
	"context"
	"errors"
	"testing"

	"github.com/tessera-live/tessera/internal/domain"
)

func TestLedgerService_Transfer(t *testing.T) {
	t.Parallel()

	t.Run("moves value between accounts", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 100
		notifier := &recordingNotifier{}
		svc := NewLedgerService(store, WithLedgerNotifier(notifier))

		err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "bob", 40)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.balances["alice"] != 60 {
			t.Fatalf("expected alice balance 60, got %d", store.balances["alice"])
		}
		if store.balances["bob"] != 40 {
			t.Fatalf("expected bob balance 40, got %d", store.balances["bob"])
		}
		if len(notifier.transfers) != 1 {
			t.Fatalf("expected 1 transfer event, got %d", len(notifier.transfers))
		}
		ev := notifier.transfers[0]
		if ev.From == nil || *ev.From != "alice" || ev.To == nil || *ev.To != "bob" || ev.Value != 40 {
			t.Fatalf("unexpected event %+v", ev)
		}
	})

	t.Run("full balance transfer clears the sender entry", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 25
		svc := NewLedgerService(store)

		if err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "bob", 25); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := store.balances["alice"]; ok {
			t.Fatalf("expected alice entry deleted after zeroing")
		}
	})

	t.Run("insufficient balance leaves state unchanged", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 10
		notifier := &recordingNotifier{}
		svc := NewLedgerService(store, WithLedgerNotifier(notifier))

		err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "bob", 11)
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		if store.balances["alice"] != 10 {
			t.Fatalf("expected alice balance unchanged, got %d", store.balances["alice"])
		}
		if len(notifier.transfers) != 0 {
			t.Fatalf("expected no events, got %d", len(notifier.transfers))
		}
	})

	t.Run("transfer from an account with no entry fails for nonzero value", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLedgerService(store)

		err := svc.Transfer(context.Background(), domain.Call{Caller: "ghost"}, "bob", 1)
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("zero value transfer succeeds and writes nothing", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLedgerService(store)

		if err := svc.Transfer(context.Background(), domain.Call{Caller: "ghost"}, "bob", 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(store.balances) != 0 {
			t.Fatalf("expected no balance entries, got %d", len(store.balances))
		}
	})

	t.Run("self transfer keeps the balance intact", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 50
		svc := NewLedgerService(store)

		if err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "alice", 30); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.balances["alice"] != 50 {
			t.Fatalf("expected balance 50 after self-transfer, got %d", store.balances["alice"])
		}
	})

	t.Run("recipient overflow is rejected before any write", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = domain.MaxAmount
		store.balances["bob"] = domain.MaxAmount
		svc := NewLedgerService(store)

		err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "bob", 1)
		if !errors.Is(err, domain.ErrIncorrectValue) {
			t.Fatalf("expected ErrIncorrectValue, got %v", err)
		}
		if store.balances["alice"] != domain.MaxAmount || store.balances["bob"] != domain.MaxAmount {
			t.Fatalf("expected balances unchanged, got alice=%d bob=%d", store.balances["alice"], store.balances["bob"])
		}
	})

	t.Run("value above the ceiling is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLedgerService(store)

		err := svc.Transfer(context.Background(), domain.Call{Caller: "alice"}, "bob", domain.MaxAmount+1)
		if !errors.Is(err, domain.ErrIncorrectValue) {
			t.Fatalf("expected ErrIncorrectValue, got %v", err)
		}
	})
}

func TestLedgerService_Approve(t *testing.T) {
	t.Parallel()

	t.Run("overwrites the previous allowance", func(t *testing.T) {
		store := newFakeStore()
		notifier := &recordingNotifier{}
		svc := NewLedgerService(store, WithLedgerNotifier(notifier))

		if err := svc.Approve(context.Background(), domain.Call{Caller: "alice"}, "bob", 30); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.Approve(context.Background(), domain.Call{Caller: "alice"}, "bob", 7); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := svc.Allowance(context.Background(), "alice", "bob")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != 7 {
			t.Fatalf("expected allowance 7, got %d", got)
		}
		if len(notifier.approvals) != 2 {
			t.Fatalf("expected 2 approval events, got %d", len(notifier.approvals))
		}
		if notifier.approvals[1].Value != 7 {
			t.Fatalf("expected last approval value 7, got %d", notifier.approvals[1].Value)
		}
	})

	t.Run("approving more than the caller holds is allowed", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLedgerService(store)

		if err := svc.Approve(context.Background(), domain.Call{Caller: "alice"}, "bob", 1000); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("zero approval clears the entry", func(t *testing.T) {
		store := newFakeStore()
		svc := NewLedgerService(store)

		if err := svc.Approve(context.Background(), domain.Call{Caller: "alice"}, "bob", 30); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.Approve(context.Background(), domain.Call{Caller: "alice"}, "bob", 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(store.allowances) != 0 {
			t.Fatalf("expected no allowance entries, got %d", len(store.allowances))
		}
	})
}

func TestLedgerService_TransferFrom(t *testing.T) {
	t.Parallel()

	t.Run("spends the allowance alongside the balance", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 100
		store.allowances[allowanceKey("alice", "carol")] = 60
		svc := NewLedgerService(store)

		err := svc.TransferFrom(context.Background(), domain.Call{Caller: "carol"}, "alice", "bob", 40)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.balances["alice"] != 60 || store.balances["bob"] != 40 {
			t.Fatalf("unexpected balances alice=%d bob=%d", store.balances["alice"], store.balances["bob"])
		}
		if store.allowances[allowanceKey("alice", "carol")] != 20 {
			t.Fatalf("expected remaining allowance 20, got %d", store.allowances[allowanceKey("alice", "carol")])
		}
	})

	t.Run("insufficient allowance wins over insufficient balance", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 5
		store.allowances[allowanceKey("alice", "carol")] = 3
		svc := NewLedgerService(store)

		err := svc.TransferFrom(context.Background(), domain.Call{Caller: "carol"}, "alice", "bob", 4)
		if !errors.Is(err, domain.ErrInsufficientAllowance) {
			t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
		}
	})

	t.Run("insufficient balance leaves the allowance untouched", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 5
		store.allowances[allowanceKey("alice", "carol")] = 50
		svc := NewLedgerService(store)

		err := svc.TransferFrom(context.Background(), domain.Call{Caller: "carol"}, "alice", "bob", 10)
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		if store.allowances[allowanceKey("alice", "carol")] != 50 {
			t.Fatalf("expected allowance unchanged, got %d", store.allowances[allowanceKey("alice", "carol")])
		}
	})

	t.Run("exact allowance spend clears the entry", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 100
		store.allowances[allowanceKey("alice", "carol")] = 40
		svc := NewLedgerService(store)

		if err := svc.TransferFrom(context.Background(), domain.Call{Caller: "carol"}, "alice", "bob", 40); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(store.allowances) != 0 {
			t.Fatalf("expected allowance entry deleted, got %d entries", len(store.allowances))
		}
	})
}

func TestLedgerService_Burn(t *testing.T) {
	t.Parallel()

	t.Run("verifier burns and supply shrinks", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 100
		store.supply = 100
		store.verifiers["vera"] = true
		svc := NewLedgerService(store)

		err := svc.Burn(context.Background(), domain.Call{Caller: "vera"}, "alice", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.balances["alice"] != 70 {
			t.Fatalf("expected balance 70, got %d", store.balances["alice"])
		}
		if store.supply != 70 {
			t.Fatalf("expected supply 70, got %d", store.supply)
		}
	})

	t.Run("non-verifier cannot burn", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 100
		store.supply = 100
		svc := NewLedgerService(store)

		err := svc.Burn(context.Background(), domain.Call{Caller: "mallory"}, "alice", 30)
		if !errors.Is(err, domain.ErrNotVerifier) {
			t.Fatalf("expected ErrNotVerifier, got %v", err)
		}
		if store.balances["alice"] != 100 || store.supply != 100 {
			t.Fatalf("expected state unchanged, got balance=%d supply=%d", store.balances["alice"], store.supply)
		}
	})

	t.Run("burning more than the balance fails", func(t *testing.T) {
		store := newFakeStore()
		store.balances["alice"] = 10
		store.supply = 100
		store.verifiers["vera"] = true
		svc := NewLedgerService(store)

		err := svc.Burn(context.Background(), domain.Call{Caller: "vera"}, "alice", 11)
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})
}

func TestLedgerService_Conservation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.balances["alice"] = 1000
	store.supply = 1000
	store.verifiers["vera"] = true
	svc := NewLedgerService(store)
	ctx := context.Background()

	steps := []func() error{
		func() error { return svc.Transfer(ctx, domain.Call{Caller: "alice"}, "bob", 300) },
		func() error { return svc.Approve(ctx, domain.Call{Caller: "bob"}, "carol", 200) },
		func() error { return svc.TransferFrom(ctx, domain.Call{Caller: "carol"}, "bob", "dave", 150) },
		func() error { return svc.Transfer(ctx, domain.Call{Caller: "dave"}, "alice", 50) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	var total uint64
	for _, balance := range store.balances {
		total += balance
	}
	if total != store.supply {
		t.Fatalf("expected balances to sum to supply %d, got %d", store.supply, total)
	}
}
