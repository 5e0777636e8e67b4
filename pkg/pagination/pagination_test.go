package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type row struct {
	at time.Time
	id uuid.UUID
}

func rowKey(r row) (time.Time, uuid.UUID) { return r.at, r.id }

func TestCursorRoundTripKeepsScope(t *testing.T) {
	scope := Scope("PROCESSING", "", "")
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New(), Scope: scope}

	encoded := EncodeCursor(in)
	require.NotContains(t, encoded, "=")
	require.NotContains(t, encoded, "/")

	out, err := ParseCursor(encoded, scope)
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	_, err = ParseCursor(encoded, Scope("CONFIRMED", "", ""))
	require.ErrorIs(t, err, ErrFilterMismatch)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	got, err := ParseCursor("  ", "")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = ParseCursor("%%%", "")
	require.Error(t, err)

	old := base64.StdEncoding.EncodeToString([]byte("2026-03-01T10:00:00Z|" + uuid.NewString()))
	_, err = ParseCursor(old, "")
	require.Error(t, err)
}

func TestScopeIsPositional(t *testing.T) {
	id := uuid.NewString()
	require.NotEqual(t, Scope(id, ""), Scope("", id))
	require.Equal(t, Scope("", ""), Scope("", ""))
}

func TestTrimReturnsCursorOnlyWhenMoreRows(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []row{{base, uuid.New()}, {base.Add(-time.Minute), uuid.New()}, {base.Add(-2 * time.Minute), uuid.New()}}

	page, next := Trim(rows, 2, "s", rowKey)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	require.Equal(t, rows[1].id, next.ID)
	require.Equal(t, "s", next.Scope)

	page, next = Trim(rows[:2], 2, "s", rowKey)
	require.Len(t, page, 2)
	require.Nil(t, next)
}

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 7, NormalizeLimit(7))
	require.Equal(t, 8, LimitWithBuffer(7))
}
