package querytest

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
)

// AssertCount runs a 'SELECT COUNT(*) FROM ...' query and fails the test, logging the
// query and its arguments, unless the result is wantCount
func AssertCount(t *testing.T, tx *sql.Tx, wantCount int, query string, args ...any) {
	t.Helper()
	var count int
	err := tx.QueryRow(query, args...).Scan(&count)
	if err == nil && count != wantCount {
		err = fmt.Errorf("expected count of %d; got %d", wantCount, count)
	}
	if err == nil {
		return
	}

	t.Logf("With query:")
	for _, line := range strings.Split(strings.TrimSpace(query), "\n") {
		t.Logf("  %s", strings.TrimSpace(line))
	}
	for i, value := range args {
		t.Logf(" $%d: %v", i+1, value)
	}
	t.Fatal(err)
}
