package postgres

import (
	"context"
	"fmt"

	"github.com/tessera-live/tessera/internal/domain"
)

// SeedState holds the construction parameters installed on first run.
type SeedState struct {
	Owner         domain.Account
	InitialSupply uint64
	Seats         []string
}

// Seed initializes a fresh ledger: the owner's float is the full initial
// supply and every catalog seat starts free. A ledger that already carries
// state is left untouched. Returns true when this call did the
// initialization.
func (s *Store) Seed(ctx context.Context, seed SeedState) (bool, error) {
	created := false
	err := withTx(ctx, s.pool, func(txCtx context.Context) error {
		var exists bool
		if err := s.queryRow(txCtx, `SELECT EXISTS (SELECT 1 FROM ledger_state)`).Scan(&exists); err != nil {
			return fmt.Errorf("check ledger state: %w", err)
		}
		if exists {
			return nil
		}

		if _, err := s.exec(txCtx,
			`INSERT INTO ledger_state (total_supply, treasury) VALUES ($1, 0)`,
			int64(seed.InitialSupply),
		); err != nil {
			return fmt.Errorf("init ledger state: %w", err)
		}

		if seed.InitialSupply > 0 {
			if _, err := s.exec(txCtx,
				`INSERT INTO accounts (address, balance) VALUES ($1, $2)`,
				string(seed.Owner), int64(seed.InitialSupply),
			); err != nil {
				return fmt.Errorf("init owner balance: %w", err)
			}
		}

		for position, id := range seed.Seats {
			if _, err := s.exec(txCtx,
				`INSERT INTO seats (id, position, taken) VALUES ($1, $2, FALSE) ON CONFLICT (id) DO NOTHING`,
				id, position,
			); err != nil {
				return fmt.Errorf("init seat %q: %w", id, err)
			}
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
