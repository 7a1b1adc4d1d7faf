// Package keystore resolves API keys to the shared secrets and principals that they
// were issued for. Stores may be backed by a static YAML file, by a postgres table, or
// by another Store wrapped in an in-memory cache.
package keystore
