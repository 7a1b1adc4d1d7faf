package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrKeyExists is returned by PostgresStore.Insert if the API key has already been
// issued (even if it has since been revoked)
var ErrKeyExists = errors.New("api key already exists")

// Querier is the subset of *sql.DB (and *sql.Tx) that PostgresStore needs
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore looks up keys in the hmac_api_key table (see db.Migrate). Revoked keys
// are treated as nonexistent.
type PostgresStore struct {
	q Querier
}

func NewPostgresStore(q Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) Lookup(ctx context.Context, apiKey string) (Key, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT hmac_api_key.secret, hmac_api_key.principal
		FROM hmac_api_key
		WHERE hmac_api_key.api_key = $1
			AND hmac_api_key.revoked_at IS NULL
	`, apiKey)

	k := Key{ApiKey: apiKey}
	if err := row.Scan(&k.Secret, &k.Principal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Key{}, ErrKeyNotFound
		}
		return Key{}, fmt.Errorf("failed to query api key: %w", err)
	}
	return k, nil
}

// Insert issues a new key
func (s *PostgresStore) Insert(ctx context.Context, k Key) error {
	if k.ApiKey == "" || k.Secret == "" {
		return fmt.Errorf("api key and secret are required")
	}
	if k.Principal == "" {
		k.Principal = k.ApiKey
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO hmac_api_key (api_key, secret, principal, created_at)
		VALUES ($1, $2, $3, now())
	`, k.ApiKey, k.Secret, k.Principal)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrKeyExists
		}
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// Revoke marks a key as revoked, after which Lookup will no longer return it. Returns
// ErrKeyNotFound if there is no unrevoked key with that ID.
func (s *PostgresStore) Revoke(ctx context.Context, apiKey string) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE hmac_api_key SET revoked_at = now()
		WHERE hmac_api_key.api_key = $1
			AND hmac_api_key.revoked_at IS NULL
	`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	numRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get number of revoked keys: %w", err)
	}
	if numRows == 0 {
		return ErrKeyNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
