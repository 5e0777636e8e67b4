package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, publicMsg: "invalid status transition", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		require.Equal(t, tt.status, meta.HTTPStatus, tt.code)
		require.Equal(t, tt.publicMsg, meta.PublicMessage, tt.code)
		require.Equal(t, tt.retryable, meta.Retryable, tt.code)
		require.Equal(t, tt.detailsOK, meta.DetailsAllowed, tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
}

func TestIsCodeFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("reserve: %w", New(CodeInsufficientStock, "short"))
	require.True(t, IsCode(err, CodeInsufficientStock))
	require.False(t, IsCode(err, CodeNotFound))
	require.False(t, IsCode(nil, CodeNotFound))
}

func TestAsReturnsTypedError(t *testing.T) {
	got := As(New(CodeForbidden, "no entry"))
	require.NotNil(t, got)
	require.Equal(t, CodeForbidden, got.Code())
	require.Nil(t, As(nil))
}

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_inventory_records_scope", TableName: "inventory_records"}
	err := Wrap(CodeConflict, pgErr, "insert inventory record")

	d := Dump(err)
	require.Equal(t, CodeConflict, d.Code)
	require.Equal(t, "23505", d.PGCode)
	require.Equal(t, "uq_inventory_records_scope", d.PGConstraint)
	require.Len(t, d.Chain, 2)
}

func TestSQLStateReadsEitherDriver(t *testing.T) {
	require.Equal(t, "40001", SQLState(fmt.Errorf("cas: %w", &pgconn.PgError{Code: "40001"})))
	require.Equal(t, "23514", SQLState(&pq.Error{Code: "23514", Constraint: "chk_inventory_quantity"}))
	require.Equal(t, "chk_inventory_quantity", Constraint(&pq.Error{Code: "23514", Constraint: "chk_inventory_quantity"}))
	require.Empty(t, SQLState(stdErrors.New("plain")))
	require.Empty(t, SQLState(nil))
}
