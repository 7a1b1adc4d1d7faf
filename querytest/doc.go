// Package querytest lets unit tests run queries against a live postgres database with
// our schema applied, skipping those tests when no such database is available.
//
// Test functions for database queries can be written like so:
//
//	func Test_foo(t *testing.T) {
//		tx := querytest.PrepareTx(t)
//		store := keystore.NewPostgresStore(tx)
//
//		err := store.Insert(context.Background(), keystore.Key{...})
//		assert.NoError(t, err)
//
//		querytest.AssertCount(t, tx, 1, "SELECT COUNT(*) FROM hmac_api_key")
//	}
package querytest
