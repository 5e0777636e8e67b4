package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Limit bounds the `limit` query parameter of a list endpoint.
type Limit struct {
	Default int
	Max     int
}

// Parse returns the default when `limit` is absent and rejects values outside
// [1, Max].
func (l Limit) Parse(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return l.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError("limit", "must be numeric")
	}
	if value < 1 || value > l.Max {
		return 0, queryError("limit", "must be between 1 and "+strconv.Itoa(l.Max))
	}
	return value, nil
}

// QueryUUID reads an optional id filter such as customer_id.
func QueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, queryError(key, "must be a valid uuid")
	}
	return &id, nil
}

// QueryEnum reads an optional enum filter. Values are matched upper-cased, so
// ?status=processing and ?status=PROCESSING are the same filter.
func QueryEnum[T ~string](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(strings.ToUpper(raw))
	if err != nil {
		return nil, queryError(key, "unknown value "+strconv.Quote(raw))
	}
	return &value, nil
}

// QueryTime reads an RFC3339 timestamp or a bare YYYY-MM-DD date. With
// endOfDay a bare date means the last instant of that day, so date_to=2026-03-01
// still includes orders created that afternoon.
func QueryTime(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, queryError(key, "must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryError(key, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").
		WithDetails(map[string]string{key: message})
}
