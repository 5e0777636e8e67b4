package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestShippedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestEmbeddedFilesMatchDirectory(t *testing.T) {
	files, err := Files("")
	require.NoError(t, err)
	embeddedNames, err := fs.Glob(files, "*.sql")
	require.NoError(t, err)

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.Len(t, embeddedNames, len(onDisk))
	require.Contains(t, embeddedNames, "20260301090100_create_orders.sql")
}

func TestRunnerListsVersionsInOrder(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	files, err := Files("")
	require.NoError(t, err)
	runner, err := NewRunner(sqlDB, files)
	require.NoError(t, err)

	versions := runner.Versions()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		require.Less(t, versions[i-1], versions[i])
	}

	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)
	first := strings.SplitN(entries[0].Name(), "_", 2)[0]
	want, err := strconv.ParseInt(first, 10, 64)
	require.NoError(t, err)
	require.Equal(t, want, versions[0])
}

func TestRunnerNeedsDBAndFiles(t *testing.T) {
	_, err := NewRunner(nil, os.DirFS(t.TempDir()))
	require.Error(t, err)

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	_, err = NewRunner(sqlDB, os.DirFS(t.TempDir()))
	require.Error(t, err)
}

func TestFilesRejectsMissingDir(t *testing.T) {
	_, err := Files(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260301090100")
	require.NoError(t, err)
	require.EqualValues(t, 20260301090100, v)

	v, err = ParseVersion("0")
	require.NoError(t, err)
	require.Zero(t, v)

	_, err = ParseVersion("2026")
	require.Error(t, err)
	_, err = ParseVersion("20261399000000")
	require.Error(t, err)
}
