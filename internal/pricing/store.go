package pricing

import (
	"errors"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// ErrNothingToRevert is returned when the undo stack for an adjustment
// key is empty.
var ErrNothingToRevert = errors.New("no adjustment to revert for this key")

// VariantContext is a variant joined with the product and category
// facts the engine prices against.
type VariantContext struct {
	Variant     models.ProductVariant
	ProductName string
	CategoryID  uuid.UUID
}

// Store is what the price engine needs from persistence. Rule history
// is never hard-deleted; revert-log entries are the only rows the
// engine removes.
type Store interface {
	// Rules for one (brand, category) key. ActiveRule returns the most
	// recently updated active row across bases, nil when none.
	ActiveRule(tenantID string, brandID, categoryID uuid.UUID) (*models.BrandCategoryPriceRule, error)
	FindRule(tenantID string, brandID, categoryID uuid.UUID, price string, basis models.PriceBasis) (*models.BrandCategoryPriceRule, error)
	DeactivateRules(tenantID string, brandID, categoryID uuid.UUID, basis models.PriceBasis) error
	CreateRule(rule *models.BrandCategoryPriceRule) error
	ReactivateRule(id uuid.UUID) error
	ListRules(tenantID string, brandID *uuid.UUID) ([]models.BrandCategoryPriceRule, error)
	// RulesForKey returns the full rule history for one (brand,
	// category, basis) key, ordered by creation time, oldest first.
	RulesForKey(tenantID string, brandID, categoryID uuid.UUID, basis models.PriceBasis) ([]models.BrandCategoryPriceRule, error)

	// Cascade scans.
	VariantsUnderBrandCategory(tenantID string, brandID, categoryID uuid.UUID) ([]VariantContext, error)
	VariantsForBrandOption(tenantID string, brandID, optionNameID uuid.UUID, optionValueIDs []uuid.UUID) ([]VariantContext, error)
	UpdateVariantPrices(variantID uuid.UUID, finished, unfinished, retail string) error

	// Undo stack, ordered oldest first.
	RevertEntries(tenantID string, brandID, optionNameID uuid.UUID, optionValueIDs []uuid.UUID, basis models.PriceBasis) ([]models.PriceRevertLog, error)
	AppendRevertEntry(entry *models.PriceRevertLog) error
	DeleteRevertEntry(id uuid.UUID) error
}
