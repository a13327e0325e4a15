package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/pricing"
)

// PricingRepository is the gorm-backed store behind the price engine.
type PricingRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

func NewPricingRepository(db *gorm.DB, redisClient *redis.Client) *PricingRepository {
	repo := &PricingRepository{db: db}
	if redisClient != nil {
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 2000,
			L1TTL:      30 * time.Second,
			DefaultTTL: RuleCacheTTL,
			KeyPrefix:  "tesseract:catalog:pricing:",
		})
	}
	return repo
}

func ruleCacheKey(tenantID string, brandID, categoryID uuid.UUID) string {
	return fmt.Sprintf("rule:%s:%s:%s", tenantID, brandID, categoryID)
}

func (r *PricingRepository) invalidateRuleCache(tenantID string, brandID, categoryID uuid.UUID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(context.Background(), ruleCacheKey(tenantID, brandID, categoryID))
}

// ActiveRule returns the most recently updated active rule for a
// (brand, category), nil when none exists.
func (r *PricingRepository) ActiveRule(tenantID string, brandID, categoryID uuid.UUID) (*models.BrandCategoryPriceRule, error) {
	if r.cache != nil {
		var rule models.BrandCategoryPriceRule
		err := r.cache.GetOrSetJSON(context.Background(), ruleCacheKey(tenantID, brandID, categoryID), &rule, RuleCacheTTL, func() (interface{}, error) {
			var loaded models.BrandCategoryPriceRule
			err := r.db.Where("tenant_id = ? AND brand_id = ? AND category_id = ? AND is_active = true", tenantID, brandID, categoryID).
				Order("updated_at DESC").First(&loaded).Error
			if err != nil {
				return nil, err
			}
			return loaded, nil
		})
		if err == nil {
			return &rule, nil
		}
		// Not found or cache trouble, read directly.
	}

	var rule models.BrandCategoryPriceRule
	err := r.db.Where("tenant_id = ? AND brand_id = ? AND category_id = ? AND is_active = true", tenantID, brandID, categoryID).
		Order("updated_at DESC").First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup active price rule: %w", err)
	}
	return &rule, nil
}

func (r *PricingRepository) FindRule(tenantID string, brandID, categoryID uuid.UUID, price string, basis models.PriceBasis) (*models.BrandCategoryPriceRule, error) {
	var rule models.BrandCategoryPriceRule
	err := r.db.Where("tenant_id = ? AND brand_id = ? AND category_id = ? AND price = ? AND price_basis = ?",
		tenantID, brandID, categoryID, price, basis).First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup price rule: %w", err)
	}
	return &rule, nil
}

func (r *PricingRepository) DeactivateRules(tenantID string, brandID, categoryID uuid.UUID, basis models.PriceBasis) error {
	err := r.db.Model(&models.BrandCategoryPriceRule{}).
		Where("tenant_id = ? AND brand_id = ? AND category_id = ? AND price_basis = ? AND is_active = true",
			tenantID, brandID, categoryID, basis).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate price rules: %w", err)
	}
	r.invalidateRuleCache(tenantID, brandID, categoryID)
	return nil
}

func (r *PricingRepository) CreateRule(rule *models.BrandCategoryPriceRule) error {
	if err := r.db.Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create price rule: %w", err)
	}
	r.invalidateRuleCache(rule.TenantID, rule.BrandID, rule.CategoryID)
	return nil
}

func (r *PricingRepository) ReactivateRule(id uuid.UUID) error {
	var rule models.BrandCategoryPriceRule
	if err := r.db.Where("id = ?", id).First(&rule).Error; err != nil {
		return fmt.Errorf("failed to load price rule: %w", err)
	}
	if err := r.db.Model(&rule).Update("is_active", true).Error; err != nil {
		return fmt.Errorf("failed to reactivate price rule: %w", err)
	}
	r.invalidateRuleCache(rule.TenantID, rule.BrandID, rule.CategoryID)
	return nil
}

func (r *PricingRepository) ListRules(tenantID string, brandID *uuid.UUID) ([]models.BrandCategoryPriceRule, error) {
	query := r.db.Where("tenant_id = ?", tenantID)
	if brandID != nil {
		query = query.Where("brand_id = ?", brandID)
	}
	var rules []models.BrandCategoryPriceRule
	if err := query.Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list price rules: %w", err)
	}
	return rules, nil
}

func (r *PricingRepository) RulesForKey(tenantID string, brandID, categoryID uuid.UUID, basis models.PriceBasis) ([]models.BrandCategoryPriceRule, error) {
	var rules []models.BrandCategoryPriceRule
	err := r.db.
		Where("tenant_id = ? AND brand_id = ? AND category_id = ? AND price_basis = ?", tenantID, brandID, categoryID, basis).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price rule history: %w", err)
	}
	return rules, nil
}

// VariantsUnderBrandCategory loads every variant of every product of
// the brand filed under the category. The cascade is a synchronous
// scan bounded by catalog size for that category.
func (r *PricingRepository) VariantsUnderBrandCategory(tenantID string, brandID, categoryID uuid.UUID) ([]pricing.VariantContext, error) {
	var products []models.Product
	subQuery := r.db.Model(&models.CategoryAssignment{}).Select("product_id").
		Where("tenant_id = ? AND category_id = ?", tenantID, categoryID)
	err := r.db.Where("tenant_id = ? AND brand_id = ? AND id IN (?)", tenantID, brandID, subQuery).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load brand products for category: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	productIDs := make([]uuid.UUID, 0, len(products))
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		names[p.ID] = p.ProductName
	}

	var variants []models.ProductVariant
	if err := r.db.Where("tenant_id = ? AND product_id IN ?", tenantID, productIDs).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to load variants for cascade: %w", err)
	}

	out := make([]pricing.VariantContext, 0, len(variants))
	for _, v := range variants {
		out = append(out, pricing.VariantContext{
			Variant:     v,
			ProductName: names[v.ProductID],
			CategoryID:  categoryID,
		})
	}
	return out, nil
}

// VariantsForBrandOption loads every variant of the brand carrying a
// (name, value) pair for one of the listed values, with the category
// each product is filed under.
func (r *PricingRepository) VariantsForBrandOption(tenantID string, brandID, optionNameID uuid.UUID, optionValueIDs []uuid.UUID) ([]pricing.VariantContext, error) {
	var pairs []models.ProductVariantOption
	if err := r.db.Where("option_name_id = ? AND option_value_id IN ?", optionNameID, optionValueIDs).Find(&pairs).Error; err != nil {
		return nil, fmt.Errorf("failed to load option pairs: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	pairIDs := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		pairIDs[p.ID.String()] = true
	}

	var products []models.Product
	if err := r.db.Where("tenant_id = ? AND brand_id = ?", tenantID, brandID).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load brand products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	productIDs := make([]uuid.UUID, 0, len(products))
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		names[p.ID] = p.ProductName
	}

	var assignments []models.CategoryAssignment
	if err := r.db.Where("tenant_id = ? AND product_id IN ?", tenantID, productIDs).Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to load category assignments: %w", err)
	}
	categories := make(map[uuid.UUID]uuid.UUID, len(assignments))
	for _, a := range assignments {
		categories[a.ProductID] = a.CategoryID
	}

	var variants []models.ProductVariant
	if err := r.db.Where("tenant_id = ? AND product_id IN ?", tenantID, productIDs).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to load brand variants: %w", err)
	}

	var out []pricing.VariantContext
	for _, v := range variants {
		carries := false
		for _, pairID := range v.OptionPairIDs {
			if pairIDs[pairID] {
				carries = true
				break
			}
		}
		if !carries {
			continue
		}
		out = append(out, pricing.VariantContext{
			Variant:     v,
			ProductName: names[v.ProductID],
			CategoryID:  categories[v.ProductID],
		})
	}
	return out, nil
}

func (r *PricingRepository) UpdateVariantPrices(variantID uuid.UUID, finished, unfinished, retail string) error {
	err := r.db.Model(&models.ProductVariant{}).Where("id = ?", variantID).Updates(map[string]interface{}{
		"finished_price":    finished,
		"un_finished_price": unfinished,
		"retail_price":      retail,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update variant prices: %w", err)
	}
	return nil
}

// RevertEntries returns the undo stack for an adjustment key, oldest
// first. Value-id lists are compared as JSONB sets.
func (r *PricingRepository) RevertEntries(tenantID string, brandID, optionNameID uuid.UUID, optionValueIDs []uuid.UUID, basis models.PriceBasis) ([]models.PriceRevertLog, error) {
	var entries []models.PriceRevertLog
	err := r.db.Where("tenant_id = ? AND brand_id = ? AND option_name_id = ? AND price_basis = ?",
		tenantID, brandID, optionNameID, basis).
		Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revert entries: %w", err)
	}

	wanted := make(map[string]bool, len(optionValueIDs))
	for _, id := range optionValueIDs {
		wanted[id.String()] = true
	}
	out := make([]models.PriceRevertLog, 0, len(entries))
	for _, e := range entries {
		if len(e.OptionValueIDs) != len(wanted) {
			continue
		}
		match := true
		for _, id := range e.OptionValueIDs {
			if !wanted[id] {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *PricingRepository) AppendRevertEntry(entry *models.PriceRevertLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append revert entry: %w", err)
	}
	return nil
}

func (r *PricingRepository) DeleteRevertEntry(id uuid.UUID) error {
	if err := r.db.Where("id = ?", id).Delete(&models.PriceRevertLog{}).Error; err != nil {
		return fmt.Errorf("failed to delete revert entry: %w", err)
	}
	return nil
}
