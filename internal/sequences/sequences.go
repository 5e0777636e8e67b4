// Package sequences allocates per-organization, human-readable codes such as
// ORD000042. Each (organization, scope) pair owns a counter row that is
// incremented inside the caller's transaction, so codes are monotonic and a
// rolled-back transaction never leaves a gap behind a committed code.
package sequences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
)

// Scope names a code sequence and doubles as the code prefix.
type Scope string

const (
	ScopeOrder      Scope = "ORD"
	ScopeAdjustment Scope = "ADJ"
	ScopeTransfer   Scope = "TRF"
)

const defaultWidth = 6

// seedSources maps each scope to the table and column holding issued codes.
var seedSources = map[Scope]struct{ table, column string }{
	ScopeOrder:      {table: "orders", column: "code"},
	ScopeAdjustment: {table: "stock_adjustments", column: "code"},
	ScopeTransfer:   {table: "transfers", column: "code"},
}

// Allocator hands out the next code for a scope.
type Allocator interface {
	Next(ctx context.Context, tx *gorm.DB, organizationID uuid.UUID, scope Scope) (string, error)
}

type allocator struct {
	width int
}

// NewAllocator builds an allocator padding numbers to width digits.
func NewAllocator(width int) Allocator {
	if width <= 0 {
		width = defaultWidth
	}
	return &allocator{width: width}
}

func (a *allocator) Next(ctx context.Context, tx *gorm.DB, organizationID uuid.UUID, scope Scope) (string, error) {
	if tx == nil {
		return "", errors.New("transaction required")
	}
	if organizationID == uuid.Nil {
		return "", errors.New("organization id required")
	}
	if scope == "" {
		return "", errors.New("sequence scope required")
	}
	db := tx.WithContext(ctx)

	seed, err := a.seedValue(db, organizationID, scope)
	if err != nil {
		return "", err
	}
	row := models.CodeSequence{OrganizationID: organizationID, Scope: string(scope), LastValue: seed}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return "", fmt.Errorf("init %s sequence: %w", scope, err)
	}

	res := db.Model(&models.CodeSequence{}).
		Where("organization_id = ? AND scope = ?", organizationID, string(scope)).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("advance %s sequence: %w", scope, res.Error)
	}

	var current models.CodeSequence
	if err := db.Where("organization_id = ? AND scope = ?", organizationID, string(scope)).
		Take(&current).Error; err != nil {
		return "", fmt.Errorf("read %s sequence: %w", scope, err)
	}
	return Format(scope, current.LastValue, a.width), nil
}

// seedValue returns the numeric part of the lexicographically last code already
// issued for the scope, or zero. It only matters the first time a scope is used
// for an organization; later calls hit the ON CONFLICT path.
func (a *allocator) seedValue(db *gorm.DB, organizationID uuid.UUID, scope Scope) (int64, error) {
	var existing int64
	if err := db.Model(&models.CodeSequence{}).
		Where("organization_id = ? AND scope = ?", organizationID, string(scope)).
		Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("check %s sequence: %w", scope, err)
	}
	if existing > 0 {
		return 0, nil
	}
	src, ok := seedSources[scope]
	if !ok {
		return 0, nil
	}
	var last string
	err := db.Table(src.table).
		Select(src.column).
		Where("organization_id = ? AND "+src.column+" LIKE ?", organizationID, string(scope)+"%").
		Order(src.column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("seed %s sequence: %w", scope, err)
	}
	return Parse(scope, last), nil
}

// Format renders prefix + zero-padded number.
func Format(scope Scope, n int64, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	return fmt.Sprintf("%s%0*d", scope, width, n)
}

// Parse extracts the numeric suffix of a code, returning zero when the code
// does not belong to the scope or is not numeric.
func Parse(scope Scope, code string) int64 {
	digits, ok := strings.CutPrefix(code, string(scope))
	if !ok || digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
