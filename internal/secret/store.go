// Package secret keeps shared-store credentials out of the config file and
// the SQLite database.
package secret

// SecretStore holds the passwords for the team and organization symbol
// backends. The default implementation uses the macOS Keychain; it can be
// swapped for Vault, env vars, etc.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}
