package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquee/marquee/internal/database"
	"github.com/marquee/marquee/internal/registry"
	"github.com/marquee/marquee/internal/series"
)

func writeTestConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "data", "marquee.db")
	configPath = filepath.Join(dir, "config.yaml")
	content := "database:\n  path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, dbPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestMigrateCommands(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, configPath, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 3")

	out, err = runCLI(t, configPath, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 2")

	out, err = runCLI(t, configPath, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 2")
}

func TestShowsList(t *testing.T) {
	configPath, dbPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "shows", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No shows in the library")

	db, err := database.New(dbPath)
	require.NoError(t, err)
	reg := registry.New(db.Conn(), zerolog.Nop())
	require.NoError(t, reg.Create(context.Background(), &registry.Show{
		Identifier: series.Identifier{Indexer: series.IndexerTVDB, ID: 81189},
		Title:      "Breaking Bad",
		Year:       2008,
		Path:       "/tv/Breaking Bad",
		RootDir:    "/tv",
		Status:     series.StatusSkipped,
	}))
	require.NoError(t, db.Close())

	out, err = runCLI(t, configPath, "shows", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tvdb81189")
	assert.Contains(t, out, "Breaking Bad")
	assert.Contains(t, out, "2008")
	assert.Contains(t, out, "now")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "1 shows"))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "3")
	assert.Empty(t, renderTable(nil, nil, nil))
}
