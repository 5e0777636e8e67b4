package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
)

// Tenants enumerates organizations for jobs that sweep every tenant.
type Tenants struct {
	db *gorm.DB
}

func NewTenants(db *gorm.DB) *Tenants {
	return &Tenants{db: db}
}

// ActiveOrganizationIDs returns active organizations in a stable order.
func (t *Tenants) ActiveOrganizationIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := t.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
