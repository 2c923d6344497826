// Package cli implements the operator subcommands. Each command parses its
// own flag set and opens the store itself, so it can run while no server is
// up.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mrlokans/readlog/internal/database"
)

// openStore resolves path and opens the store, migrating it if needed.
func openStore(path, logLevel string) (*database.Database, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.Open(absPath, database.Options{LogLevel: database.ParseLogLevel(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
