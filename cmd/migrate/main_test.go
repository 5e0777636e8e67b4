package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backoffice-backend/pkg/migrate"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs(nil, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "up", opts.cmd)
	require.Empty(t, opts.dir)
	require.True(t, needsDatabase(opts.cmd))

	opts, err = parseArgs([]string{"-cmd", "validate"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, migrate.DefaultDir, opts.dir)
	require.False(t, needsDatabase(opts.cmd))
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	cases := [][]string{
		{"-cmd", "create"},
		{"-cmd", "to"},
		{"-cmd", "to", "-version", "yesterday"},
		{"-cmd", "reset"},
	}
	for _, args := range cases {
		_, err := parseArgs(args, io.Discard)
		require.Error(t, err, "%v", args)
	}

	opts, err := parseArgs([]string{"-cmd", "to", "-version", "0"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "0", opts.version)
}

func TestRunFilesCreatesAndValidates(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runFiles(options{cmd: "create", dir: dir, name: "add reservation notes"}, &out))
	require.Contains(t, out.String(), "created migration:")

	matches, err := filepath.Glob(filepath.Join(dir, "*_add_reservation_notes.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	out.Reset()
	require.NoError(t, runFiles(options{cmd: "validate", dir: dir}, &out))
	require.Contains(t, out.String(), "migration validation passed")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_broken.sql"), []byte("-- +goose Up\n"), 0o644))
	require.Error(t, runFiles(options{cmd: "validate", dir: dir}, &out))
}
