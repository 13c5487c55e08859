package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/21namanpandey/e-library/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{UploadDir: "x"}
	got, err := configFromContext(withConfig(context.Background(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestRunSweep_UsesConfigFromContext(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.pdf")
	fresh := filepath.Join(dir, "fresh.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	prev := sweepOlderThan
	sweepOlderThan = time.Hour
	t.Cleanup(func() { sweepOlderThan = prev })

	cmd := &cobra.Command{}
	cmd.SetContext(withConfig(context.Background(), &config.Config{UploadDir: dir}))

	require.NoError(t, runSweep(cmd, nil))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestRunSweep_WithoutConfigFails(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	assert.Error(t, runSweep(cmd, nil))
}
