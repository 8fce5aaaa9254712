package sharedstore

import (
	_ "modernc.org/sqlite"
)

// newSQLiteBackend creates a backend over a local SQLite file. Used by
// standalone installs where team/organization symbols have no server to live
// on. Opens in WAL mode with busy timeout for concurrent access.
func newSQLiteBackend(cfg *Config) (*sqlBackend, error) {
	path := cfg.FilePath
	if path == "" {
		path = cfg.Host // older configs put the file path in host
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	return newSQLBackend("sqlite", dsn)
}
