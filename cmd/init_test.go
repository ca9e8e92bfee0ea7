package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrArkon/Rustic/rustic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rustic.sqlite3")

	originalCfg := cfg
	t.Cleanup(
		func() {
			cfg = originalCfg
		},
	)
	cfg = rustic.DefaultConfig()
	cfg.Database = dbPath
	cfg.DatabaseType = "sqlite"

	initCmd.SetContext(context.Background())
	initCmd.Run(initCmd, nil)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
