package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// ErrNoFreeCopyName is returned when every candidate copy suffix up to
// the search limit is already taken for the tenant.
var ErrNoFreeCopyName = errors.New("no free copy name available")

const maxCopySuffixes = 100

// copySuffix renders the duplicate marker appended to cloned models,
// product names and SKUs: " (Copy)" for the first clone, " (Copy N)"
// after that.
func copySuffix(n int) string {
	if n <= 1 {
		return " (Copy)"
	}
	return fmt.Sprintf(" (Copy %d)", n)
}

// CloneProduct duplicates a product together with its category filing
// and every variant. The clone gets the next free " (Copy N)" suffix on
// its model and name; each variant's SKU carries the same suffix so the
// copied rows stay recognizable as a set.
func (u *Upserter) CloneProduct(tenantID, userID string, productID uuid.UUID) (*models.Product, error) {
	source, err := u.store.GetProductByID(tenantID, productID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrNotFound
	}

	var clone *models.Product
	var suffix string
	for n := 1; n <= maxCopySuffixes; n++ {
		suffix = copySuffix(n)
		taken, err := u.store.GetProductByModel(tenantID, source.Model+suffix)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			continue
		}
		candidate := *source
		candidate.ID = uuid.Nil
		candidate.Model = source.Model + suffix
		candidate.ProductName = source.ProductName + suffix
		candidate.Variants = nil
		created := false
		clone, created, err = u.store.CreateProduct(&candidate)
		if err != nil {
			return nil, err
		}
		if created {
			break
		}
		// Lost a conflict race on this suffix, try the next one.
		clone = nil
	}
	if clone == nil {
		return nil, ErrNoFreeCopyName
	}

	assignment, err := u.store.GetAssignmentByProduct(tenantID, productID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		if _, _, err := u.store.CreateAssignment(&models.CategoryAssignment{
			TenantID:      tenantID,
			ProductID:     clone.ID,
			CategoryID:    assignment.CategoryID,
			CategoryLevel: assignment.CategoryLevel,
		}); err != nil {
			return nil, err
		}
	}

	variants, err := u.store.ListVariantsByProduct(tenantID, productID)
	if err != nil {
		return nil, err
	}
	for _, src := range variants {
		copied := src
		copied.ID = uuid.Nil
		copied.ProductID = clone.ID
		copied.SKU = src.SKU + suffix
		variant, created, err := u.store.CreateVariant(&copied)
		if err != nil {
			return nil, err
		}
		if !created {
			u.logger.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"sku":       copied.SKU,
			}).Warn("Clone SKU already taken, variant skipped")
			continue
		}
		u.audit.Variant(tenantID, userID, variant.ID, models.LogActionCloned, models.JSON{
			"sourceSku": src.SKU,
			"sku":       variant.SKU,
		})
	}

	u.audit.Product(tenantID, userID, clone.ID, models.LogActionCloned, models.JSON{
		"sourceId":    productID.String(),
		"model":       clone.Model,
		"productName": clone.ProductName,
	})
	return clone, nil
}

// CloneVariant duplicates a single variant within its product, giving
// the copy the next free " (Copy N)" SKU suffix.
func (u *Upserter) CloneVariant(tenantID, userID string, variantID uuid.UUID) (*models.ProductVariant, error) {
	source, err := u.store.GetVariantByID(tenantID, variantID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrNotFound
	}

	for n := 1; n <= maxCopySuffixes; n++ {
		sku := source.SKU + copySuffix(n)
		taken, err := u.store.GetVariantBySKU(tenantID, sku)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			continue
		}
		candidate := *source
		candidate.ID = uuid.Nil
		candidate.SKU = sku
		clone, created, err := u.store.CreateVariant(&candidate)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		u.audit.Variant(tenantID, userID, clone.ID, models.LogActionCloned, models.JSON{
			"sourceSku": source.SKU,
			"sku":       clone.SKU,
		})
		return clone, nil
	}
	return nil, ErrNoFreeCopyName
}

// SetProductActive flips a product's active flag and cascades the same
// status onto every variant, so a deactivated product never leaves
// orphaned live variants behind.
func (u *Upserter) SetProductActive(tenantID, userID string, productID uuid.UUID, active bool) error {
	product, err := u.store.GetProductByID(tenantID, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}

	old := product.IsActive
	product.IsActive = active
	if err := u.store.UpdateProduct(product); err != nil {
		return err
	}

	variants, err := u.store.ListVariantsByProduct(tenantID, productID)
	if err != nil {
		return err
	}
	for i := range variants {
		if variants[i].IsActive == active {
			continue
		}
		variants[i].IsActive = active
		if err := u.store.UpdateVariant(&variants[i]); err != nil {
			return err
		}
	}

	u.audit.Product(tenantID, userID, productID, models.LogActionUpdated, models.JSON{
		"isActive": models.JSON{"old": old, "new": active},
	})
	return nil
}

// SetVariantActive flips a single variant's active flag. The parent
// product is left untouched.
func (u *Upserter) SetVariantActive(tenantID, userID string, variantID uuid.UUID, active bool) error {
	variant, err := u.store.GetVariantByID(tenantID, variantID)
	if err != nil {
		return err
	}
	if variant == nil {
		return ErrNotFound
	}

	old := variant.IsActive
	variant.IsActive = active
	if err := u.store.UpdateVariant(variant); err != nil {
		return err
	}

	u.audit.Variant(tenantID, userID, variantID, models.LogActionUpdated, models.JSON{
		"isActive": models.JSON{"old": old, "new": active},
	})
	return nil
}
