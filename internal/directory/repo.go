// Package directory resolves the customer, branch and catalog references an
// order points at. Every lookup is scoped to one organization.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Repository reads tenant-scoped reference data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Customer(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error)
	Branch(ctx context.Context, organizationID, branchID uuid.UUID) (*models.Branch, error)
	Product(ctx context.Context, organizationID, productID uuid.UUID) (*models.Product, error)
	Variant(ctx context.Context, organizationID, productID, variantID uuid.UUID) (*models.ProductVariant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Customer(ctx context.Context, organizationID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", customerID, organizationID).
		Take(&customer).Error
	if err != nil {
		return nil, lookupError(err, "customer", customerID)
	}
	if !customer.IsActive {
		return nil, inactive("customer", customerID)
	}
	return &customer, nil
}

func (r *repository) Branch(ctx context.Context, organizationID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", branchID, organizationID).
		Take(&branch).Error
	if err != nil {
		return nil, lookupError(err, "branch", branchID)
	}
	if !branch.IsActive {
		return nil, inactive("branch", branchID)
	}
	return &branch, nil
}

func (r *repository) Product(ctx context.Context, organizationID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", productID, organizationID).
		Take(&product).Error
	if err != nil {
		return nil, lookupError(err, "product", productID)
	}
	if !product.IsActive {
		return nil, inactive("product", productID)
	}
	return &product, nil
}

func (r *repository) Variant(ctx context.Context, organizationID, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ? AND product_id = ?", variantID, organizationID, productID).
		Take(&variant).Error
	if err != nil {
		return nil, lookupError(err, "variant", variantID)
	}
	if !variant.IsActive {
		return nil, inactive("variant", variantID)
	}
	return &variant, nil
}

// lookupError reports a missing reference as a validation failure: callers
// submitted an id that does not exist in their organization.
func lookupError(err error, kind string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, kind+" not found").
			WithDetails(map[string]any{"field": kind + "_id", "id": id.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind)
}

func inactive(kind string, id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, kind+" is inactive").
		WithDetails(map[string]any{"field": kind + "_id", "id": id.String()})
}
