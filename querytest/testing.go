package querytest

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/golden-vcr/hmac-auth/db"
	impl "github.com/golden-vcr/hmac-auth/querytest/internal"
)

// EnvUri names an environment variable that, if set, supplies the 'postgres://' URI of
// a database to run query tests against, bypassing docker entirely (e.g. in CI, where
// postgres runs as a service container)
const EnvUri = "HMACAUTH_QUERYTEST_URI"

// Prepare returns a sql.DB, with our schema applied, that unit tests can run database
// queries against. The database is taken from $HMACAUTH_QUERYTEST_URI if set;
// otherwise we look for a querytest container running in docker. If neither is
// available, the test is skipped with a descriptive message.
//
// To start a test database, run the following from anywhere in the repo:
//
// - go run github.com/golden-vcr/hmac-auth/querytest/cmd
func Prepare(t *testing.T) *sql.DB {
	uri := resolvePostgresUri(t)
	conn, err := sql.Open("postgres", uri)
	if err != nil {
		t.Fatalf("sql.Open failed with querytest uri %s: %v", uri, err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("failed to migrate querytest database: %v", err)
	}
	return conn
}

// PrepareTx prepares a sql.DB via Prepare, then begins a transaction which is rolled
// back when the test is done, so tests never observe each other's writes
func PrepareTx(t *testing.T) *sql.Tx {
	conn := Prepare(t)
	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("db.Begin failed: %v", err)
	}
	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Logf("failed to roll back transaction created via PrepareTx: %v", err)
		}
	})
	return tx
}

func resolvePostgresUri(t *testing.T) string {
	if uri := os.Getenv(EnvUri); uri != "" {
		return uri
	}

	rootDir, err := impl.FindProjectRootDir()
	if err != nil {
		t.Fatalf("unable to resolve project root directory: %v", err)
	}
	projectName := impl.GetProjectName(rootDir)
	containerName := impl.GetContainerName(projectName)

	ctx := context.Background()
	hasDocker := impl.IsDockerInstalled(ctx)
	containerIsRunning := false
	if hasDocker {
		_, err := impl.FindContainerId(ctx, containerName)
		if err != nil && !errors.Is(err, impl.ErrNoSuchContainer) {
			t.Fatalf("unable to check querytest container status: %v", err)
		}
		containerIsRunning = err == nil
	}

	if !containerIsRunning {
		prefix := ""
		if !hasDocker {
			prefix = "install docker and "
		}
		t.Skipf("%srun 'go run github.com/golden-vcr/hmac-auth/querytest/cmd' (or set %s) to enable query tests", prefix, EnvUri)
	}
	return impl.GetPostgresUri(projectName)
}
