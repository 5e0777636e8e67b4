package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the order list page size when no limit is given.
	DefaultLimit = 25
	// MaxLimit caps any keyset page.
	MaxLimit = 100

	cursorVersion = "v1"
)

// ErrFilterMismatch means a cursor is replayed against different filters than
// the page that produced it.
var ErrFilterMismatch = errors.New("cursor was issued for different filters")

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the keyset position after the last row of a page: rows sort by
// created_at DESC, id DESC. Scope fingerprints the filters of that page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
	Scope     string
}

// Scope fingerprints filter values so a cursor cannot be reused under other
// filters. Parts are positional: pass "" for an unset filter.
func Scope(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NormalizeLimit enforces the default and maximum page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row to detect a following page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Trim cuts a page fetched with LimitWithBuffer down to limit rows and returns
// the cursor for the next page, or nil on the last page.
func Trim[T any](rows []T, limit int, scope string, key func(T) (time.Time, uuid.UUID)) ([]T, *Cursor) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	createdAt, id := key(rows[limit-1])
	return rows, &Cursor{CreatedAt: createdAt, ID: id, Scope: scope}
}

// EncodeCursor renders a URL-safe opaque cursor.
func EncodeCursor(cursor Cursor) string {
	payload := strings.Join([]string{
		cursorVersion,
		cursor.CreatedAt.UTC().Format(time.RFC3339Nano),
		cursor.ID.String(),
		cursor.Scope,
	}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor and checks it against the scope of the current
// request. An empty value means the first page.
func ParseCursor(value, scope string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 4 || parts[0] != cursorVersion {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	if parts[3] != scope {
		return nil, ErrFilterMismatch
	}
	return &Cursor{CreatedAt: t, ID: id, Scope: parts[3]}, nil
}
