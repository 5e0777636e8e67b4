package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:directory_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestLookupsAreTenantScoped(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	org, otherOrg := uuid.New(), uuid.New()

	product := models.Product{OrganizationID: org, SKU: "SKU-1", Name: "Lamp", BasePrice: decimal.NewFromInt(100), IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	got, err := repo.Product(ctx, org, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Lamp", got.Name)

	_, err = repo.Product(ctx, otherOrg, product.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInactiveReferencesAreRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	org := uuid.New()

	customer := models.Customer{OrganizationID: org, Name: "Ana", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	require.NoError(t, db.Model(&customer).Update("is_active", false).Error)

	_, err := repo.Customer(ctx, org, customer.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Contains(t, err.Error(), "inactive")
}

func TestVariantMustBelongToProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	org := uuid.New()

	variant := models.ProductVariant{OrganizationID: org, ProductID: uuid.New(), Name: "XL", Price: decimal.NewFromInt(5), IsActive: true}
	require.NoError(t, db.Create(&variant).Error)

	_, err := repo.Variant(ctx, org, uuid.New(), variant.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := repo.Variant(ctx, org, variant.ProductID, variant.ID)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(decimal.NewFromInt(5)))
}

func TestActiveOrganizationIDsSkipsInactiveTenants(t *testing.T) {
	db := newTestDB(t)
	active := models.Organization{Name: "Mueblería", IsActive: true}
	require.NoError(t, db.Create(&active).Error)
	dormant := models.Organization{Name: "Cerrada", IsActive: true}
	require.NoError(t, db.Create(&dormant).Error)
	require.NoError(t, db.Model(&dormant).Update("is_active", false).Error)

	ids, err := NewTenants(db).ActiveOrganizationIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{active.ID}, ids)
}
