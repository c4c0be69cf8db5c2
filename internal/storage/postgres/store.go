package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-live/tessera/internal/domain"
)

// Store is the durable ledger state. Reads of absent rows report the
// default-zero value; writes of zero delete the row to keep the tables as
// sparse as the in-memory representation.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

func (s *Store) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	const query = `SELECT balance FROM accounts WHERE address = $1`
	var balance int64
	err := s.queryRow(ctx, query, string(account)).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return uint64(balance), nil
}

func (s *Store) SetBalance(ctx context.Context, account domain.Account, value uint64) error {
	if value == 0 {
		const stmt = `DELETE FROM accounts WHERE address = $1`
		if _, err := s.exec(ctx, stmt, string(account)); err != nil {
			return fmt.Errorf("clear balance: %w", err)
		}
		return nil
	}

	const stmt = `
INSERT INTO accounts (address, balance) VALUES ($1, $2)
ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance`
	if _, err := s.exec(ctx, stmt, string(account), int64(value)); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (s *Store) Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error) {
	const query = `SELECT amount FROM allowances WHERE owner = $1 AND spender = $2`
	var amount int64
	err := s.queryRow(ctx, query, string(owner), string(spender)).Scan(&amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get allowance: %w", err)
	}
	return uint64(amount), nil
}

func (s *Store) SetAllowance(ctx context.Context, owner, spender domain.Account, value uint64) error {
	if value == 0 {
		const stmt = `DELETE FROM allowances WHERE owner = $1 AND spender = $2`
		if _, err := s.exec(ctx, stmt, string(owner), string(spender)); err != nil {
			return fmt.Errorf("clear allowance: %w", err)
		}
		return nil
	}

	const stmt = `
INSERT INTO allowances (owner, spender, amount) VALUES ($1, $2, $3)
ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`
	if _, err := s.exec(ctx, stmt, string(owner), string(spender), int64(value)); err != nil {
		return fmt.Errorf("set allowance: %w", err)
	}
	return nil
}

func (s *Store) TotalSupply(ctx context.Context) (uint64, error) {
	const query = `SELECT total_supply FROM ledger_state`
	var supply int64
	err := s.queryRow(ctx, query).Scan(&supply)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get total supply: %w", err)
	}
	return uint64(supply), nil
}

func (s *Store) SetTotalSupply(ctx context.Context, value uint64) error {
	const stmt = `UPDATE ledger_state SET total_supply = $1`
	if _, err := s.exec(ctx, stmt, int64(value)); err != nil {
		return fmt.Errorf("set total supply: %w", err)
	}
	return nil
}

func (s *Store) IsVerifier(ctx context.Context, account domain.Account) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM verifiers WHERE address = $1)`
	var ok bool
	if err := s.queryRow(ctx, query, string(account)).Scan(&ok); err != nil {
		return false, fmt.Errorf("is verifier: %w", err)
	}
	return ok, nil
}

func (s *Store) AddVerifier(ctx context.Context, account domain.Account) error {
	const stmt = `INSERT INTO verifiers (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`
	if _, err := s.exec(ctx, stmt, string(account)); err != nil {
		return fmt.Errorf("add verifier: %w", err)
	}
	return nil
}

func (s *Store) TreasuryBalance(ctx context.Context) (uint64, error) {
	const query = `SELECT treasury FROM ledger_state`
	var treasury int64
	err := s.queryRow(ctx, query).Scan(&treasury)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get treasury: %w", err)
	}
	return uint64(treasury), nil
}

func (s *Store) SetTreasuryBalance(ctx context.Context, value uint64) error {
	const stmt = `UPDATE ledger_state SET treasury = $1`
	if _, err := s.exec(ctx, stmt, int64(value)); err != nil {
		return fmt.Errorf("set treasury: %w", err)
	}
	return nil
}

func (s *Store) SeatCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM seats`
	var count int
	if err := s.queryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("seat count: %w", err)
	}
	return count, nil
}

func (s *Store) SeatListed(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM seats WHERE id = $1)`
	var ok bool
	if err := s.queryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("seat listed: %w", err)
	}
	return ok, nil
}

func (s *Store) SeatTaken(ctx context.Context, id string) (bool, error) {
	const query = `SELECT taken FROM seats WHERE id = $1`
	var taken bool
	err := s.queryRow(ctx, query, id).Scan(&taken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("seat taken: %w", err)
	}
	return taken, nil
}

func (s *Store) MarkSeatTaken(ctx context.Context, id string) error {
	const stmt = `UPDATE seats SET taken = TRUE WHERE id = $1`
	tag, err := s.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("mark seat taken: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark seat taken: unknown seat %q", id)
	}
	return nil
}

func (s *Store) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	const query = `SELECT id, taken FROM seats ORDER BY position`
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var seat domain.Seat
		if err := rows.Scan(&seat.ID, &seat.Taken); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

func (s *Store) Proof(ctx context.Context, account domain.Account) ([]byte, error) {
	const query = `SELECT signature FROM proofs WHERE address = $1`
	var signature []byte
	err := s.queryRow(ctx, query, string(account)).Scan(&signature)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get proof: %w", err)
	}
	if signature == nil {
		signature = []byte{}
	}
	return signature, nil
}

func (s *Store) SetProof(ctx context.Context, account domain.Account, signature []byte) error {
	const stmt = `
INSERT INTO proofs (address, signature, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (address) DO UPDATE SET signature = EXCLUDED.signature, updated_at = NOW()`
	if _, err := s.exec(ctx, stmt, string(account), signature); err != nil {
		return fmt.Errorf("set proof: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}
