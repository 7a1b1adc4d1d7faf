// Package db connects to the postgres database that backs keystore.PostgresStore, and
// owns the schema of the tables it reads.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
)

// FormatConnectionString formats the provided database connection details into a
// 'postgres://' URI that can be used to connect to that database, e.g. via sql.Open
func FormatConnectionString(host string, port int, dbname, user, password, sslmode string) string {
	urlencodedPassword := url.QueryEscape(password)
	s := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", user, urlencodedPassword, host, port, dbname)
	if sslmode != "" {
		s += fmt.Sprintf("?sslmode=%s", sslmode)
	}
	return s
}

// Open connects to the postgres database at uri and verifies that it's reachable
func Open(ctx context.Context, uri string) (*sql.DB, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
