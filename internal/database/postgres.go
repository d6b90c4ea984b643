// Package database implements the ledger contract on PostgreSQL. All
// multi-row mutations run inside a single serializable-enough transaction:
// balance rows are locked before they are checked, and the session row
// carries a version column used for the optimistic commit check.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
)

// Store is a ledger.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

// Connect opens a pool against dsn, verifies connectivity, and ensures the
// schema exists.
func Connect(ctx context.Context, dsn string, log *logrus.Entry) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	s := &Store{pool: pool, log: log}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	address    BYTEA PRIMARY KEY,
	creator    BYTEA NOT NULL,
	state      SMALLINT NOT NULL,
	record     JSONB NOT NULL,
	version    BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_state_idx ON sessions (state);

CREATE TABLE IF NOT EXISTS session_history (
	id       BIGSERIAL PRIMARY KEY,
	creator  BYTEA NOT NULL,
	record   JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS session_history_creator_idx ON session_history (creator);

CREATE TABLE IF NOT EXISTS participants (
	address BYTEA PRIMARY KEY,
	session BYTEA NOT NULL,
	record  JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS participants_session_idx ON participants (session);

CREATE TABLE IF NOT EXISTS balances (
	address  BYTEA PRIMARY KEY,
	lamports BIGINT NOT NULL CHECK (lamports >= 0)
);
`

// Commit applies a session transition atomically: transfers settle first
// (debits are aggregated per source and checked under row locks), then the
// session row is created or version-checked, then participant accounts are
// upserted. Any failure rolls the whole commit back.
func (s *Store) Commit(ctx context.Context, c ledger.Commit) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if err := s.applyTransfers(ctx, tx, c.Transfers); err != nil {
		return err
	}
	if err := s.writeSession(ctx, tx, c); err != nil {
		return err
	}
	for _, acct := range c.Accounts {
		raw, err := json.Marshal(acct)
		if err != nil {
			return fmt.Errorf("encode participant: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO participants (address, session, record) VALUES ($1, $2, $3)
			ON CONFLICT (address) DO UPDATE SET record = EXCLUDED.record`,
			acct.Address[:], acct.Session[:], raw)
		if err != nil {
			return fmt.Errorf("write participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) applyTransfers(ctx context.Context, tx pgx.Tx, transfers []ledger.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	debits := make(map[engine.Address]uint64)
	for _, t := range transfers {
		debits[t.From] += t.Amount
	}
	for from, total := range debits {
		var lamports int64
		err := tx.QueryRow(ctx,
			`SELECT lamports FROM balances WHERE address = $1 FOR UPDATE`,
			from[:]).Scan(&lamports)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && uint64(lamports) < total) {
			return ledger.ErrInsufficientFunds
		}
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
	}
	for _, t := range transfers {
		if _, err := tx.Exec(ctx,
			`UPDATE balances SET lamports = lamports - $2 WHERE address = $1`,
			t.From[:], int64(t.Amount)); err != nil {
			return fmt.Errorf("debit: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO balances (address, lamports) VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET lamports = balances.lamports + EXCLUDED.lamports`,
			t.To[:], int64(t.Amount)); err != nil {
			return fmt.Errorf("credit: %w", err)
		}
	}
	return nil
}

func (s *Store) writeSession(ctx context.Context, tx pgx.Tx, c ledger.Commit) error {
	rec := c.Record
	if c.Expect == 0 {
		var state int16
		var prior []byte
		err := tx.QueryRow(ctx,
			`SELECT state, record FROM sessions WHERE address = $1 FOR UPDATE`,
			rec.Address[:]).Scan(&state, &prior)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Fresh address.
		case err != nil:
			return fmt.Errorf("lock session: %w", err)
		case engine.State(state).Terminal():
			if _, err := tx.Exec(ctx,
				`INSERT INTO session_history (creator, record) VALUES ($1, $2)`,
				rec.Session.Creator[:], prior); err != nil {
				return fmt.Errorf("archive session: %w", err)
			}
		default:
			return ledger.ErrAlreadyActive
		}
		rec.Version = 1
	} else {
		var version int64
		err := tx.QueryRow(ctx,
			`SELECT version FROM sessions WHERE address = $1 FOR UPDATE`,
			rec.Address[:]).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}
		if uint64(version) != c.Expect {
			return ledger.ErrConflict
		}
		rec.Version = c.Expect + 1
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (address, creator, state, record, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			creator = EXCLUDED.creator,
			state = EXCLUDED.state,
			record = EXCLUDED.record,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`,
		rec.Address[:], rec.Session.Creator[:], int16(rec.Session.State),
		raw, int64(rec.Version), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// GetSession fetches one session record by address.
func (s *Store) GetSession(ctx context.Context, addr engine.Address) (ledger.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM sessions WHERE address = $1`, addr[:]).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Record{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	var rec ledger.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ledger.Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

// GetParticipant fetches one participant account by derived address.
func (s *Store) GetParticipant(ctx context.Context, addr engine.Address) (ledger.PlayerAccount, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM participants WHERE address = $1`, addr[:]).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.PlayerAccount{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.PlayerAccount{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	var acct ledger.PlayerAccount
	if err := json.Unmarshal(raw, &acct); err != nil {
		return ledger.PlayerAccount{}, fmt.Errorf("decode participant: %w", err)
	}
	return acct, nil
}

// ListOpenSessions returns sessions still accepting joins, oldest first.
func (s *Store) ListOpenSessions(ctx context.Context) ([]ledger.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT record FROM sessions
		WHERE state = $1 OR state = $2
		ORDER BY updated_at`,
		int16(engine.StateCreated), int16(engine.StateWaiting))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListHistory returns the archived terminal sessions of a creator.
func (s *Store) ListHistory(ctx context.Context, creator engine.Address) ([]ledger.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM session_history WHERE creator = $1 ORDER BY id`,
		creator[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]ledger.Record, error) {
	var out []ledger.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var rec ledger.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Balance returns an account's lamports; unknown accounts hold zero.
func (s *Store) Balance(ctx context.Context, addr engine.Address) (uint64, error) {
	var lamports int64
	err := s.pool.QueryRow(ctx,
		`SELECT lamports FROM balances WHERE address = $1`, addr[:]).Scan(&lamports)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	return uint64(lamports), nil
}

// Deposit credits an account.
func (s *Store) Deposit(ctx context.Context, addr engine.Address, amount uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balances (address, lamports) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET lamports = balances.lamports + EXCLUDED.lamports`,
		addr[:], int64(amount))
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	return nil
}
