package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCategoryDepth is the fixed depth of the category tree.
const MaxCategoryDepth = 6

// CategoryNode is one node of the six-level category tree. Ancestry is
// carried by ParentID; Children is a derived convenience, never the
// source of truth.
type CategoryNode struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string         `json:"tenantId" gorm:"not null;uniqueIndex:idx_categories_tenant_level_name;index"`
	Level        int            `json:"level" gorm:"not null;uniqueIndex:idx_categories_tenant_level_name"`
	Name         string         `json:"name" gorm:"not null;uniqueIndex:idx_categories_tenant_level_name"`
	SequenceCode string         `json:"sequenceCode" gorm:"not null"`
	ParentID     *uuid.UUID     `json:"parentId,omitempty" gorm:"type:uuid;index"`
	Children     []CategoryNode `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SequenceCounter backs the human-readable sequence codes. One row per
// (tenant, scope), where scope is "category-level-<l>" or "brand".
type SequenceCounter struct {
	TenantID string `json:"tenantId" gorm:"primaryKey"`
	Scope    string `json:"scope" gorm:"primaryKey"`
	Value    int64  `json:"value" gorm:"not null;default:0"`
}

// Brand is a vendor/manufacturer record, scoped per tenant.
type Brand struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string    `json:"tenantId" gorm:"not null;uniqueIndex:idx_brands_tenant_name;index"`
	Name         string    `json:"name" gorm:"not null;uniqueIndex:idx_brands_tenant_name"`
	SequenceCode string    `json:"sequenceCode" gorm:"not null"`
	Email        *string   `json:"email,omitempty"`
	Mobile       *string   `json:"mobile,omitempty"`
	Website      *string   `json:"website,omitempty"`
	LogoURL      *string   `json:"logoUrl,omitempty"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TypeName is a global option-name vocabulary entry (e.g. "Color").
// Deduplicated case-insensitively, not tenant-scoped.
type TypeName struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// TypeValue is a global option-value vocabulary entry (e.g. "Red").
type TypeValue struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// VariantOptionSet says: for this category, this option name may take
// these values. Keyed by (optionNameId, categoryId, tenantId); the
// allowed-value list only ever grows.
type VariantOptionSet struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string      `json:"tenantId" gorm:"not null;uniqueIndex:idx_option_sets_key;index"`
	OptionNameID    uuid.UUID   `json:"optionNameId" gorm:"type:uuid;not null;uniqueIndex:idx_option_sets_key"`
	CategoryID      uuid.UUID   `json:"categoryId" gorm:"type:uuid;not null;uniqueIndex:idx_option_sets_key"`
	AllowedValueIDs StringArray `json:"allowedValueIds" gorm:"type:jsonb;default:'[]'"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// CategoryTaxonomy collects the VariantOptionSets applicable to one
// category.
type CategoryTaxonomy struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string      `json:"tenantId" gorm:"not null;uniqueIndex:idx_taxonomies_tenant_category;index"`
	CategoryID    uuid.UUID   `json:"categoryId" gorm:"type:uuid;not null;uniqueIndex:idx_taxonomies_tenant_category"`
	CategoryLevel int         `json:"categoryLevel" gorm:"not null"`
	OptionSetIDs  StringArray `json:"variantOptionSetIds" gorm:"type:jsonb;default:'[]'"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Product is upserted by natural key (model, tenantId). Descriptive
// fields are replaced wholesale on update.
type Product struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         string           `json:"tenantId" gorm:"not null;uniqueIndex:idx_products_tenant_model;index"`
	Model            string           `json:"model" gorm:"not null;uniqueIndex:idx_products_tenant_model"`
	ProductName      string           `json:"productName" gorm:"not null"`
	BrandID          *uuid.UUID       `json:"brandId,omitempty" gorm:"type:uuid;index"`
	MPN              *string          `json:"mpn,omitempty"`
	UpcEan           *string          `json:"upcEan,omitempty"`
	Breadcrumb       *string          `json:"breadcrumb,omitempty"`
	LongDescription  *string          `json:"longDescription,omitempty" gorm:"type:text"`
	ShortDescription *string          `json:"shortDescription,omitempty" gorm:"type:text"`
	KeyFeatures      *string          `json:"keyFeatures,omitempty" gorm:"type:text"`
	Tags             *string          `json:"tags,omitempty"`
	OptionStr        *string          `json:"optionStr,omitempty"`
	Dimensions       *string          `json:"dimensions,omitempty"`
	Units            *string          `json:"units,omitempty"`
	IsActive         bool             `json:"isActive" gorm:"default:true"`
	Variants         []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ProductVariant is upserted by natural key (sku, tenantId). Prices are
// decimal strings; that shape is the contract downstream reporting
// depends on.
type ProductVariant struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string      `json:"tenantId" gorm:"not null;uniqueIndex:idx_variants_tenant_sku;index"`
	ProductID       uuid.UUID   `json:"productId" gorm:"type:uuid;not null;index"`
	SKU             string      `json:"sku" gorm:"not null;uniqueIndex:idx_variants_tenant_sku"`
	FinishedPrice   string      `json:"finishedPrice" gorm:"not null;default:'0'"`
	UnfinishedPrice string      `json:"unfinishedPrice" gorm:"not null;default:'0'"`
	Quantity        string      `json:"quantity" gorm:"not null;default:'0'"`
	RetailPrice     string      `json:"retailPrice" gorm:"not null;default:'0'"`
	IsActive        bool        `json:"isActive" gorm:"default:true"`
	OptionPairIDs   StringArray `json:"optionPairIds" gorm:"type:jsonb;default:'[]'"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ProductVariantOption is one concrete (name, value) pair, deduplicated
// by the pair.
type ProductVariantOption struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OptionNameID  uuid.UUID `json:"optionNameId" gorm:"type:uuid;not null;uniqueIndex:idx_variant_options_pair"`
	OptionValueID uuid.UUID `json:"optionValueId" gorm:"type:uuid;not null;uniqueIndex:idx_variant_options_pair"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CategoryAssignment files a product under exactly one category.
type CategoryAssignment struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string    `json:"tenantId" gorm:"not null;index"`
	ProductID     uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex"`
	CategoryID    uuid.UUID `json:"categoryId" gorm:"type:uuid;not null;index"`
	CategoryLevel int       `json:"categoryLevel" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OptionPair is one parsed (name, value) option from a feed row.
type OptionPair struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// ResolveCategoryPathRequest carries one breadcrumb, root to leaf.
type ResolveCategoryPathRequest struct {
	Breadcrumb []string `json:"breadcrumb" binding:"required,min=1"`
}

// ResolvedPath is the outcome of a breadcrumb resolution.
type ResolvedPath struct {
	IDs    []string `json:"ids"`
	LeafID string   `json:"leafId"`
	Level  int      `json:"level"`
}

// ProductFields are the descriptive fields replaced wholesale on a
// product upsert.
type ProductFields struct {
	ProductName      string  `json:"productName" binding:"required"`
	BrandName        string  `json:"brandName"`
	MPN              *string `json:"mpn,omitempty"`
	UpcEan           *string `json:"upcEan,omitempty"`
	Breadcrumb       *string `json:"breadcrumb,omitempty"`
	LongDescription  *string `json:"longDescription,omitempty"`
	ShortDescription *string `json:"shortDescription,omitempty"`
	KeyFeatures      *string `json:"keyFeatures,omitempty"`
	Tags             *string `json:"tags,omitempty"`
	OptionStr        *string `json:"optionStr,omitempty"`
	Dimensions       *string `json:"dimensions,omitempty"`
	Units            *string `json:"units,omitempty"`
}

// VariantFields are the mutable fields of a variant upsert.
type VariantFields struct {
	FinishedPrice   string `json:"finishedPrice"`
	UnfinishedPrice string `json:"unfinishedPrice"`
	Quantity        string `json:"quantity"`
}

// UpsertProductRequest is the standalone product upsert payload.
type UpsertProductRequest struct {
	Model      string        `json:"model" binding:"required"`
	Breadcrumb []string      `json:"breadcrumb" binding:"required,min=1"`
	Fields     ProductFields `json:"fields" binding:"required"`
}

// UpsertVariantRequest is the standalone variant upsert payload.
type UpsertVariantRequest struct {
	SKU         string        `json:"sku" binding:"required"`
	ProductID   uuid.UUID     `json:"productId" binding:"required"`
	Fields      VariantFields `json:"fields"`
	OptionPairs []OptionPair  `json:"optionPairs,omitempty"`
}

// CreateBrandRequest creates a brand outside the import path.
type CreateBrandRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email,omitempty"`
	Mobile  *string `json:"mobile,omitempty"`
	Website *string `json:"website,omitempty"`
	LogoURL *string `json:"logoUrl,omitempty"`
}

// ReassignCategoryRequest re-files a product under another category.
type ReassignCategoryRequest struct {
	CategoryID    uuid.UUID `json:"categoryId" binding:"required"`
	CategoryLevel int       `json:"categoryLevel" binding:"required,min=1,max=6"`
}

// SetActiveRequest flips an entity's active flag. A pointer so that
// binding can tell an explicit false from an absent field.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UpsertResult reports what an upsert did.
type UpsertResult struct {
	ID      uuid.UUID `json:"id"`
	Created bool      `json:"created"`
	Diff    JSON      `json:"diff,omitempty"`
}

type CategoryNodeResponse struct {
	Success bool          `json:"success"`
	Data    *CategoryNode `json:"data"`
	Message *string       `json:"message,omitempty"`
}

type CategoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []CategoryNode  `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

type BrandListResponse struct {
	Success    bool            `json:"success"`
	Data       []Brand         `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

type BrandResponse struct {
	Success bool    `json:"success"`
	Data    *Brand  `json:"data"`
	Message *string `json:"message,omitempty"`
}

type ResolvedPathResponse struct {
	Success bool          `json:"success"`
	Data    *ResolvedPath `json:"data"`
}

type UpsertResponse struct {
	Success bool          `json:"success"`
	Data    *UpsertResult `json:"data"`
	Message *string       `json:"message,omitempty"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type VariantResponse struct {
	Success bool            `json:"success"`
	Data    *ProductVariant `json:"data"`
	Message *string         `json:"message,omitempty"`
}

func (CategoryNode) TableName() string {
	return "categories"
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

func (Brand) TableName() string {
	return "brands"
}

func (TypeName) TableName() string {
	return "type_names"
}

func (TypeValue) TableName() string {
	return "type_values"
}

func (VariantOptionSet) TableName() string {
	return "variant_option_sets"
}

func (CategoryTaxonomy) TableName() string {
	return "category_taxonomies"
}

func (Product) TableName() string {
	return "products"
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (ProductVariantOption) TableName() string {
	return "product_variant_options"
}

func (CategoryAssignment) TableName() string {
	return "category_assignments"
}
