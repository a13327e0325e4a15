package catalog

import (
	"errors"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

var (
	// ErrEmptyBreadcrumb is returned when a breadcrumb has no non-blank
	// segments.
	ErrEmptyBreadcrumb = errors.New("breadcrumb has no usable segments")

	// ErrParentAlreadySet is returned by stores when linking a child
	// that already has a different parent. The tree stays a tree.
	ErrParentAlreadySet = errors.New("category already has a parent")

	// ErrNotFound is returned for lookups by id that match nothing.
	ErrNotFound = errors.New("not found")
)

// Store is what the catalog components need from persistence. Lookups
// return (nil, nil) when nothing matches; creates resolve natural-key
// conflicts by re-fetching the winning row and report created=false.
type Store interface {
	// Category tree. CreateCategory assigns the sequence code
	// atomically with the per-(tenant, level) counter.
	GetCategoryByName(tenantID string, level int, name string) (*models.CategoryNode, error)
	GetCategoryByID(tenantID string, id uuid.UUID) (*models.CategoryNode, error)
	CreateCategory(node *models.CategoryNode) (*models.CategoryNode, bool, error)
	SetCategoryParent(tenantID string, categoryID, parentID uuid.UUID) error

	// Brands. CreateBrand assigns the brand sequence code.
	GetBrandByName(tenantID, name string) (*models.Brand, error)
	CreateBrand(brand *models.Brand) (*models.Brand, bool, error)

	// Global option vocabularies, case-insensitive lookups.
	GetTypeNameByName(name string) (*models.TypeName, error)
	CreateTypeName(name string) (*models.TypeName, bool, error)
	GetTypeValueByName(name string) (*models.TypeValue, error)
	CreateTypeValue(name string) (*models.TypeValue, bool, error)

	// Taxonomy units.
	GetOptionSet(tenantID string, optionNameID, categoryID uuid.UUID) (*models.VariantOptionSet, error)
	CreateOptionSet(set *models.VariantOptionSet) (*models.VariantOptionSet, bool, error)
	AddOptionSetValue(setID, valueID uuid.UUID) (bool, error)
	GetTaxonomyByCategory(tenantID string, categoryID uuid.UUID) (*models.CategoryTaxonomy, error)
	CreateTaxonomy(taxonomy *models.CategoryTaxonomy) (*models.CategoryTaxonomy, bool, error)
	AttachTaxonomySet(taxonomyID, setID uuid.UUID) (bool, error)

	// Concrete (name, value) pairs, deduplicated by the pair.
	GetOptionPair(optionNameID, optionValueID uuid.UUID) (*models.ProductVariantOption, error)
	GetOptionPairByID(id uuid.UUID) (*models.ProductVariantOption, error)
	CreateOptionPair(pair *models.ProductVariantOption) (*models.ProductVariantOption, bool, error)

	// Products and variants, natural-key scoped per tenant.
	GetProductByModel(tenantID, model string) (*models.Product, error)
	GetProductByID(tenantID string, id uuid.UUID) (*models.Product, error)
	CreateProduct(product *models.Product) (*models.Product, bool, error)
	UpdateProduct(product *models.Product) error
	GetVariantBySKU(tenantID, sku string) (*models.ProductVariant, error)
	GetVariantByID(tenantID string, id uuid.UUID) (*models.ProductVariant, error)
	CreateVariant(variant *models.ProductVariant) (*models.ProductVariant, bool, error)
	UpdateVariant(variant *models.ProductVariant) error
	ListVariantsByProduct(tenantID string, productID uuid.UUID) ([]models.ProductVariant, error)

	// Category filing, one row per product.
	GetAssignmentByProduct(tenantID string, productID uuid.UUID) (*models.CategoryAssignment, error)
	CreateAssignment(assignment *models.CategoryAssignment) (*models.CategoryAssignment, bool, error)
	UpdateAssignment(assignment *models.CategoryAssignment) error
}

// PriceCalculator derives a retail price from a variant's basis prices
// and the active brand-category rule, defaulting to finished x 1 when
// no rule is active.
type PriceCalculator interface {
	RetailPrice(tenantID string, brandID, categoryID *uuid.UUID, finishedPrice, unfinishedPrice string) (string, error)
}
