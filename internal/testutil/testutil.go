// Package testutil provides shared test helpers for config files and migrated databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sanhsing/beidou-edu-server/internal/config"
	"github.com/sanhsing/beidou-edu-server/internal/database"
)

// SetupTestConfig creates a config file for a SQLite database and output directories under tmpDir.
// Returns the path to the generated config file. The database is not migrated.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	dirs := []string{"reports", "exports"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`database:
  driver: sqlite3
  path: %s
outputs:
  report_directory: %s
  export_directory: %s
`,
		filepath.Join(tmpDir, "beidou.db"),
		filepath.Join(tmpDir, "reports"),
		filepath.Join(tmpDir, "exports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// OpenMigratedSQLite creates a SQLite database in a temporary directory, applies every
// migration and opens it. The connection is closed when the test ends.
func OpenMigratedSQLite(t *testing.T) (*sqlx.DB, config.DatabaseConfig) {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "review.db"),
	}
	require.NoError(t, database.MigrateUp(cfg))

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, cfg
}
