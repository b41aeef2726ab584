package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		replaceCatalog = false
		refreshTypes = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSeedAndTypesCommands(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("NARRATIVE_PROVIDER", "offline")

	out := runCLI(t, "seed")
	assert.Contains(t, out, "seeded 4 dimensions, 12 questions")

	out = runCLI(t, "seed")
	assert.Contains(t, out, "catalog already present")

	out = runCLI(t, "seed", "--replace")
	assert.Contains(t, out, "seeded 4 dimensions")

	out = runCLI(t, "types")
	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "PWEE")
	assert.Contains(t, out, "Plot/Whimsy/External/Explicit")
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	rootCmd.SetArgs([]string{"seed"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	assert.Error(t, rootCmd.Execute())
}
