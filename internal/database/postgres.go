package database

import (
	"context"
	"database/sql"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"
)

// PostgresStore implements Store on top of the migrated schema. Statement
// semantics keep each mutation atomic; ON CONFLICT DO NOTHING makes
// re-appends of an already-seen transaction harmless.
type PostgresStore struct {
	db *sql.DB
}

var _ interfaces.Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AddAddress(ctx context.Context, scope models.Scope) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watched_addresses (subscriber, address)
		VALUES ($1, $2)
		ON CONFLICT (subscriber, address) DO NOTHING
	`, scope.Subscriber, scope.Address)
	return err
}

func (s *PostgresStore) RemoveAddress(ctx context.Context, scope models.Scope) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watched_addresses WHERE subscriber = $1 AND address = $2
	`, scope.Subscriber, scope.Address)
	return err
}

func (s *PostgresStore) Addresses(ctx context.Context, subscriber string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address FROM watched_addresses
		WHERE subscriber = $1
		ORDER BY position
	`, subscriber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

func (s *PostgresStore) Pairs(ctx context.Context) ([]models.Scope, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscriber, address FROM watched_addresses
		ORDER BY subscriber, position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []models.Scope
	for rows.Next() {
		var scope models.Scope
		if err := rows.Scan(&scope.Subscriber, &scope.Address); err != nil {
			return nil, err
		}
		pairs = append(pairs, scope)
	}
	return pairs, rows.Err()
}

func (s *PostgresStore) SeenRecords(ctx context.Context, scope models.Scope) ([]models.SeenRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, seq FROM seen_records
		WHERE subscriber = $1 AND address = $2
		ORDER BY seq
	`, scope.Subscriber, scope.Address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.SeenRecord
	for rows.Next() {
		var rec models.SeenRecord
		if err := rows.Scan(&rec.TxID, &rec.Sequence); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PostgresStore) AppendSeen(ctx context.Context, scope models.Scope, rec models.SeenRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seen_records (subscriber, address, tx_id, seq)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subscriber, address, tx_id) DO NOTHING
	`, scope.Subscriber, scope.Address, rec.TxID, rec.Sequence)
	return err
}

func (s *PostgresStore) TrimSeen(ctx context.Context, scope models.Scope, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM seen_records
		WHERE subscriber = $1 AND address = $2
		  AND seq <= (
			SELECT COALESCE(MAX(seq), 0) FROM seen_records
			WHERE subscriber = $1 AND address = $2
		  ) - $3
	`, scope.Subscriber, scope.Address, keep)
	return err
}

func (s *PostgresStore) DeleteScope(ctx context.Context, scope models.Scope) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM seen_records WHERE subscriber = $1 AND address = $2
	`, scope.Subscriber, scope.Address)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
