package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "fetch")
}

func TestFetchCommand_Flags(t *testing.T) {
	cmd := newFetchCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--format", "markdown", "--max-retries", "1", "--timeout", "30s"}))

	format, err := cmd.Flags().GetString("format")
	require.NoError(t, err)
	assert.Equal(t, "markdown", format)

	retries, err := cmd.Flags().GetInt("max-retries")
	require.NoError(t, err)
	assert.Equal(t, 1, retries)

	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"https://example.com"}))
}
