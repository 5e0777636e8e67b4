package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPrefersExplicitEnv(t *testing.T) {
	t.Setenv(envInstanceID, "cron-7")
	t.Setenv("DYNO", "worker.1")
	require.Equal(t, "cron-7", ID())
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv(envInstanceID, "")
	t.Setenv("DYNO", "worker.1")
	require.Equal(t, "worker.1", ID())
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv(envInstanceID, "")
	t.Setenv("DYNO", "")
	require.NotEmpty(t, ID())
}
