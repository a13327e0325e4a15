package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

// Cache TTL constants
const (
	CategoryCacheTTL = 30 * time.Minute // Tree nodes rarely change
	ProductCacheTTL  = 5 * time.Minute  // Single product cache
	RuleCacheTTL     = 10 * time.Minute // Active price rules
)

// errDuplicateKey signals a lost creation race inside a transaction;
// the caller re-fetches the winning row after rollback so the sequence
// counter increment is undone with it.
var errDuplicateKey = errors.New("duplicate natural key")

// CatalogRepository is the gorm-backed store behind the resolver,
// registrar, upserter and ingestion pipeline.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	repo := &CatalogRepository{
		db:    db,
		redis: redisClient,
	}

	// Initialize CacheLayer with the existing Redis client
	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: ProductCacheTTL,
			KeyPrefix:  "tesseract:catalog:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// DB exposes the underlying handle for wiring (audit writer, health).
func (r *CatalogRepository) DB() *gorm.DB {
	return r.db
}

func (r *CatalogRepository) invalidateCategoryCaches(tenantID string, categoryID uuid.UUID) {
	if r.cache == nil {
		return
	}
	ctx := context.Background()
	_ = r.cache.Delete(ctx, fmt.Sprintf("category:%s:%s", tenantID, categoryID))
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("categories:list:%s:*", tenantID))
}

func (r *CatalogRepository) invalidateProductCaches(tenantID string, productID uuid.UUID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(context.Background(), fmt.Sprintf("product:%s:%s", tenantID, productID))
}

// nextSequence bumps a per-(tenant, scope) counter and returns the new
// value, atomically within the surrounding transaction.
func nextSequence(tx *gorm.DB, tenantID, scope string) (int64, error) {
	var value int64
	err := tx.Raw(
		`INSERT INTO sequence_counters (tenant_id, scope, value) VALUES (?, ?, 1)
		 ON CONFLICT (tenant_id, scope) DO UPDATE SET value = sequence_counters.value + 1
		 RETURNING value`,
		tenantID, scope,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", scope, err)
	}
	return value, nil
}

func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate")
}

// --- Categories ---

func (r *CatalogRepository) GetCategoryByName(tenantID string, level int, name string) (*models.CategoryNode, error) {
	var node models.CategoryNode
	err := r.db.Where("tenant_id = ? AND level = ? AND LOWER(name) = LOWER(?)", tenantID, level, name).First(&node).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category: %w", err)
	}
	return &node, nil
}

func (r *CatalogRepository) GetCategoryByID(tenantID string, id uuid.UUID) (*models.CategoryNode, error) {
	if r.cache != nil {
		var node models.CategoryNode
		key := fmt.Sprintf("category:%s:%s", tenantID, id)
		err := r.cache.GetOrSetJSON(context.Background(), key, &node, CategoryCacheTTL, func() (interface{}, error) {
			var n models.CategoryNode
			if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&n).Error; err != nil {
				return nil, err
			}
			return n, nil
		})
		if err == nil {
			return &node, nil
		}
		// Fall through to a direct read on any cache miss path error.
	}

	var node models.CategoryNode
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&node).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category: %w", err)
	}
	return &node, nil
}

// CreateCategory assigns the per-(tenant, level) sequence code and
// inserts the node in one transaction, so a lost race rolls the counter
// back and codes stay gap-free. The winning row is returned with
// created=false.
func (r *CatalogRepository) CreateCategory(node *models.CategoryNode) (*models.CategoryNode, bool, error) {
	var result models.CategoryNode
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ? AND level = ? AND LOWER(name) = LOWER(?)", node.TenantID, node.Level, node.Name).First(&result).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to lookup category: %w", err)
		}

		seq, err := nextSequence(tx, node.TenantID, models.CategorySequenceScope(node.Level))
		if err != nil {
			return err
		}
		result = *node
		result.SequenceCode = models.CategorySequenceCode(node.Level, seq)
		if err := tx.Create(&result).Error; err != nil {
			if isDuplicateErr(err) {
				return errDuplicateKey
			}
			return fmt.Errorf("failed to create category '%s': %w", node.Name, err)
		}
		created = true
		return nil
	})

	if err == errDuplicateKey {
		existing, ferr := r.GetCategoryByName(node.TenantID, node.Level, node.Name)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("category '%s' vanished after duplicate conflict", node.Name)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// SetCategoryParent links an unparented node. Re-parenting is rejected:
// the tree stays a tree.
func (r *CatalogRepository) SetCategoryParent(tenantID string, categoryID, parentID uuid.UUID) error {
	res := r.db.Model(&models.CategoryNode{}).
		Where("tenant_id = ? AND id = ? AND parent_id IS NULL", tenantID, categoryID).
		Update("parent_id", parentID)
	if res.Error != nil {
		return fmt.Errorf("failed to link category parent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var node models.CategoryNode
		if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, categoryID).First(&node).Error; err != nil {
			return fmt.Errorf("failed to verify category parent: %w", err)
		}
		if node.ParentID != nil && *node.ParentID == parentID {
			return nil
		}
		return catalog.ErrParentAlreadySet
	}
	r.invalidateCategoryCaches(tenantID, categoryID)
	return nil
}

// ListCategories returns all nodes for a tenant, used for cache seeding
// and the tree endpoint.
func (r *CatalogRepository) ListCategories(tenantID string) ([]models.CategoryNode, error) {
	var nodes []models.CategoryNode
	if err := r.db.Where("tenant_id = ?", tenantID).Order("level, name").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return nodes, nil
}

// CategoryDeleteGuard checks what blocks deleting a node. Deletes are
// rejected, never cascaded.
func (r *CatalogRepository) CategoryDeleteGuard(tenantID string, categoryID uuid.UUID) (*models.DeleteGuardResult, error) {
	result := &models.DeleteGuardResult{CanDelete: true}

	var childCount int64
	if err := r.db.Model(&models.CategoryNode{}).Where("tenant_id = ? AND parent_id = ?", tenantID, categoryID).Count(&childCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count children: %w", err)
	}
	if childCount > 0 {
		result.CanDelete = false
		result.BlockedEntities = append(result.BlockedEntities, models.BlockedEntity{
			Type:       "children",
			ID:         categoryID.String(),
			Reason:     fmt.Sprintf("%d child categories", childCount),
			OtherCount: int(childCount),
		})
	}

	var assignmentCount int64
	if err := r.db.Model(&models.CategoryAssignment{}).Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).Count(&assignmentCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	if assignmentCount > 0 {
		result.CanDelete = false
		result.BlockedEntities = append(result.BlockedEntities, models.BlockedEntity{
			Type:       "assignments",
			ID:         categoryID.String(),
			Reason:     fmt.Sprintf("%d products assigned", assignmentCount),
			OtherCount: int(assignmentCount),
		})
	}
	return result, nil
}

func (r *CatalogRepository) DeleteCategory(tenantID string, categoryID uuid.UUID) error {
	res := r.db.Where("tenant_id = ? AND id = ?", tenantID, categoryID).Delete(&models.CategoryNode{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	r.invalidateCategoryCaches(tenantID, categoryID)
	return nil
}

// --- Brands ---

func (r *CatalogRepository) GetBrandByName(tenantID, name string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).First(&brand).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup brand: %w", err)
	}
	return &brand, nil
}

func (r *CatalogRepository) CreateBrand(brand *models.Brand) (*models.Brand, bool, error) {
	var result models.Brand
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", brand.TenantID, brand.Name).First(&result).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to lookup brand: %w", err)
		}

		seq, err := nextSequence(tx, brand.TenantID, models.BrandSequenceScope)
		if err != nil {
			return err
		}
		result = *brand
		result.SequenceCode = models.BrandSequenceCode(seq)
		if err := tx.Create(&result).Error; err != nil {
			if isDuplicateErr(err) {
				return errDuplicateKey
			}
			return fmt.Errorf("failed to create brand '%s': %w", brand.Name, err)
		}
		created = true
		return nil
	})

	if err == errDuplicateKey {
		existing, ferr := r.GetBrandByName(brand.TenantID, brand.Name)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("brand '%s' vanished after duplicate conflict", brand.Name)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

func (r *CatalogRepository) ListBrands(tenantID string) ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.Where("tenant_id = ?", tenantID).Order("name").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// BrandDeleteGuard rejects deleting a brand that products still use.
func (r *CatalogRepository) BrandDeleteGuard(tenantID string, brandID uuid.UUID) (*models.DeleteGuardResult, error) {
	result := &models.DeleteGuardResult{CanDelete: true}
	var productCount int64
	if err := r.db.Model(&models.Product{}).Where("tenant_id = ? AND brand_id = ?", tenantID, brandID).Count(&productCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count brand products: %w", err)
	}
	if productCount > 0 {
		result.CanDelete = false
		result.BlockedEntities = append(result.BlockedEntities, models.BlockedEntity{
			Type:       "products",
			ID:         brandID.String(),
			Reason:     fmt.Sprintf("%d products reference this brand", productCount),
			OtherCount: int(productCount),
		})
	}
	return result, nil
}

func (r *CatalogRepository) DeleteBrand(tenantID string, brandID uuid.UUID) error {
	res := r.db.Where("tenant_id = ? AND id = ?", tenantID, brandID).Delete(&models.Brand{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete brand: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// --- Option vocabularies ---

func (r *CatalogRepository) GetTypeNameByName(name string) (*models.TypeName, error) {
	var tn models.TypeName
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&tn).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup type name: %w", err)
	}
	return &tn, nil
}

func (r *CatalogRepository) CreateTypeName(name string) (*models.TypeName, bool, error) {
	tn := models.TypeName{Name: name}
	if err := r.db.Create(&tn).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetTypeNameByName(name)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch type name '%s': %w", name, err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create type name '%s': %w", name, err)
	}
	return &tn, true, nil
}

func (r *CatalogRepository) GetTypeValueByName(name string) (*models.TypeValue, error) {
	var tv models.TypeValue
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&tv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup type value: %w", err)
	}
	return &tv, nil
}

func (r *CatalogRepository) CreateTypeValue(name string) (*models.TypeValue, bool, error) {
	tv := models.TypeValue{Name: name}
	if err := r.db.Create(&tv).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetTypeValueByName(name)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch type value '%s': %w", name, err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create type value '%s': %w", name, err)
	}
	return &tv, true, nil
}

func (r *CatalogRepository) ListTypeNames() ([]models.TypeName, error) {
	var names []models.TypeName
	if err := r.db.Find(&names).Error; err != nil {
		return nil, fmt.Errorf("failed to list type names: %w", err)
	}
	return names, nil
}

func (r *CatalogRepository) ListTypeValues() ([]models.TypeValue, error) {
	var values []models.TypeValue
	if err := r.db.Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to list type values: %w", err)
	}
	return values, nil
}

// --- Taxonomy ---

func (r *CatalogRepository) GetOptionSet(tenantID string, optionNameID, categoryID uuid.UUID) (*models.VariantOptionSet, error) {
	var set models.VariantOptionSet
	err := r.db.Where("tenant_id = ? AND option_name_id = ? AND category_id = ?", tenantID, optionNameID, categoryID).First(&set).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup option set: %w", err)
	}
	return &set, nil
}

func (r *CatalogRepository) CreateOptionSet(set *models.VariantOptionSet) (*models.VariantOptionSet, bool, error) {
	if err := r.db.Create(set).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetOptionSet(set.TenantID, set.OptionNameID, set.CategoryID)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch option set: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create option set: %w", err)
	}
	return set, true, nil
}

// AddOptionSetValue appends a value id to the allowed list only if
// absent; the JSONB containment check makes the append idempotent under
// concurrent writers.
func (r *CatalogRepository) AddOptionSetValue(setID, valueID uuid.UUID) (bool, error) {
	res := r.db.Exec(
		`UPDATE variant_option_sets
		 SET allowed_value_ids = allowed_value_ids || to_jsonb(?::text), updated_at = NOW()
		 WHERE id = ? AND NOT allowed_value_ids @> to_jsonb(?::text)`,
		valueID.String(), setID, valueID.String(),
	)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add option set value: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *CatalogRepository) GetTaxonomyByCategory(tenantID string, categoryID uuid.UUID) (*models.CategoryTaxonomy, error) {
	var taxonomy models.CategoryTaxonomy
	err := r.db.Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).First(&taxonomy).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category taxonomy: %w", err)
	}
	return &taxonomy, nil
}

func (r *CatalogRepository) CreateTaxonomy(taxonomy *models.CategoryTaxonomy) (*models.CategoryTaxonomy, bool, error) {
	if err := r.db.Create(taxonomy).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetTaxonomyByCategory(taxonomy.TenantID, taxonomy.CategoryID)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch category taxonomy: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create category taxonomy: %w", err)
	}
	return taxonomy, true, nil
}

func (r *CatalogRepository) AttachTaxonomySet(taxonomyID, setID uuid.UUID) (bool, error) {
	res := r.db.Exec(
		`UPDATE category_taxonomies
		 SET option_set_ids = option_set_ids || to_jsonb(?::text), updated_at = NOW()
		 WHERE id = ? AND NOT option_set_ids @> to_jsonb(?::text)`,
		setID.String(), taxonomyID, setID.String(),
	)
	if res.Error != nil {
		return false, fmt.Errorf("failed to attach taxonomy set: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// --- Option pairs ---

func (r *CatalogRepository) GetOptionPair(optionNameID, optionValueID uuid.UUID) (*models.ProductVariantOption, error) {
	var pair models.ProductVariantOption
	err := r.db.Where("option_name_id = ? AND option_value_id = ?", optionNameID, optionValueID).First(&pair).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup option pair: %w", err)
	}
	return &pair, nil
}

func (r *CatalogRepository) GetOptionPairByID(id uuid.UUID) (*models.ProductVariantOption, error) {
	var pair models.ProductVariantOption
	err := r.db.Where("id = ?", id).First(&pair).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup option pair: %w", err)
	}
	return &pair, nil
}

func (r *CatalogRepository) CreateOptionPair(pair *models.ProductVariantOption) (*models.ProductVariantOption, bool, error) {
	if err := r.db.Create(pair).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetOptionPair(pair.OptionNameID, pair.OptionValueID)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch option pair: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create option pair: %w", err)
	}
	return pair, true, nil
}

// --- Products ---

func (r *CatalogRepository) GetProductByModel(tenantID, model string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("tenant_id = ? AND LOWER(model) = LOWER(?)", tenantID, model).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup product: %w", err)
	}
	return &product, nil
}

func (r *CatalogRepository) GetProductByID(tenantID string, id uuid.UUID) (*models.Product, error) {
	if r.cache != nil {
		var product models.Product
		key := fmt.Sprintf("product:%s:%s", tenantID, id)
		err := r.cache.GetOrSetJSON(context.Background(), key, &product, ProductCacheTTL, func() (interface{}, error) {
			var p models.Product
			if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error; err != nil {
				return nil, err
			}
			return p, nil
		})
		if err == nil {
			return &product, nil
		}
	}

	var product models.Product
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup product: %w", err)
	}
	return &product, nil
}

func (r *CatalogRepository) CreateProduct(product *models.Product) (*models.Product, bool, error) {
	if err := r.db.Create(product).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetProductByModel(product.TenantID, product.Model)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch product '%s': %w", product.Model, err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create product '%s': %w", product.Model, err)
	}
	return product, true, nil
}

func (r *CatalogRepository) UpdateProduct(product *models.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	r.invalidateProductCaches(product.TenantID, product.ID)
	return nil
}

func (r *CatalogRepository) ListProducts(tenantID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("tenant_id = ?", tenantID).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// --- Variants ---

func (r *CatalogRepository) GetVariantBySKU(tenantID, sku string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.Where("tenant_id = ? AND LOWER(sku) = LOWER(?)", tenantID, sku).First(&variant).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup variant: %w", err)
	}
	return &variant, nil
}

func (r *CatalogRepository) GetVariantByID(tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&variant).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup variant by id: %w", err)
	}
	return &variant, nil
}

func (r *CatalogRepository) CreateVariant(variant *models.ProductVariant) (*models.ProductVariant, bool, error) {
	if err := r.db.Create(variant).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetVariantBySKU(variant.TenantID, variant.SKU)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch variant '%s': %w", variant.SKU, err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create variant '%s': %w", variant.SKU, err)
	}
	return variant, true, nil
}

func (r *CatalogRepository) UpdateVariant(variant *models.ProductVariant) error {
	if err := r.db.Save(variant).Error; err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListVariantsByProduct(tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.Where("tenant_id = ? AND product_id = ?", tenantID, productID).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to list product variants: %w", err)
	}
	return variants, nil
}

func (r *CatalogRepository) ListVariants(tenantID string) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.Where("tenant_id = ?", tenantID).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return variants, nil
}

// --- Assignments ---

func (r *CatalogRepository) GetAssignmentByProduct(tenantID string, productID uuid.UUID) (*models.CategoryAssignment, error) {
	var assignment models.CategoryAssignment
	err := r.db.Where("tenant_id = ? AND product_id = ?", tenantID, productID).First(&assignment).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category assignment: %w", err)
	}
	return &assignment, nil
}

func (r *CatalogRepository) CreateAssignment(assignment *models.CategoryAssignment) (*models.CategoryAssignment, bool, error) {
	if err := r.db.Create(assignment).Error; err != nil {
		if isDuplicateErr(err) {
			existing, ferr := r.GetAssignmentByProduct(assignment.TenantID, assignment.ProductID)
			if ferr != nil || existing == nil {
				return nil, false, fmt.Errorf("failed to re-fetch category assignment: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create category assignment: %w", err)
	}
	return assignment, true, nil
}

func (r *CatalogRepository) UpdateAssignment(assignment *models.CategoryAssignment) error {
	if err := r.db.Save(assignment).Error; err != nil {
		return fmt.Errorf("failed to update category assignment: %w", err)
	}
	return nil
}

// --- Import mappings ---

func (r *CatalogRepository) GetImportMapping(tenantID, userID, vendorID string) (*models.ImportMapping, error) {
	var mapping models.ImportMapping
	err := r.db.Where("tenant_id = ? AND user_id = ? AND vendor_id = ?", tenantID, userID, vendorID).First(&mapping).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup import mapping: %w", err)
	}
	return &mapping, nil
}

func (r *CatalogRepository) SaveImportMapping(mapping *models.ImportMapping) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}, {Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mapping", "updated_at"}),
	}).Create(mapping).Error
	if err != nil {
		return fmt.Errorf("failed to save import mapping: %w", err)
	}
	return nil
}

// --- Logs read models ---

func (r *CatalogRepository) ListPriceChangeLogs(tenantID string, variantID *uuid.UUID, page, limit int) ([]models.PriceChangeLog, int64, error) {
	query := r.db.Model(&models.PriceChangeLog{}).Where("tenant_id = ?", tenantID)
	if variantID != nil {
		query = query.Where("variant_id = ?", variantID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count price change logs: %w", err)
	}

	var logs []models.PriceChangeLog
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list price change logs: %w", err)
	}
	return logs, total, nil
}
