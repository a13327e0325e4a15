package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceBasis selects which variant price a rule multiplies.
type PriceBasis string

const (
	PriceBasisFinished   PriceBasis = "finished"
	PriceBasisUnfinished PriceBasis = "unfinished"
)

// AdjustmentSymbol selects how a global adjustment delta is applied.
type AdjustmentSymbol string

const (
	AdjustmentPercent AdjustmentSymbol = "percent"
	AdjustmentFixed   AdjustmentSymbol = "fixed"
)

// BrandCategoryPriceRule is a retail-price multiplier for one
// (brand, category, basis). At most one row is active per key; history
// is kept for audit and reactivation.
type BrandCategoryPriceRule struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string     `json:"tenantId" gorm:"not null;index"`
	BrandID    uuid.UUID  `json:"brandId" gorm:"type:uuid;not null;index:idx_price_rules_key"`
	CategoryID uuid.UUID  `json:"categoryId" gorm:"type:uuid;not null;index:idx_price_rules_key"`
	Price      string     `json:"price" gorm:"not null"`
	PriceBasis PriceBasis `json:"priceBasis" gorm:"not null;index:idx_price_rules_key"`
	IsActive   bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PriceRevertLog is the append-only undo stack for global option-based
// adjustments. The last two entries for a key form an undo pair.
type PriceRevertLog struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         string           `json:"tenantId" gorm:"not null;index"`
	BrandID          uuid.UUID        `json:"brandId" gorm:"type:uuid;not null;index:idx_revert_logs_key"`
	OptionNameID     uuid.UUID        `json:"optionNameId" gorm:"type:uuid;not null;index:idx_revert_logs_key"`
	OptionValueIDs   StringArray      `json:"optionValueIds" gorm:"type:jsonb;default:'[]'"`
	CurrentPrice     string           `json:"currentPrice" gorm:"not null"`
	PriceBasis       PriceBasis       `json:"priceBasis" gorm:"not null;index:idx_revert_logs_key"`
	AdjustmentSymbol AdjustmentSymbol `json:"adjustmentSymbol" gorm:"not null"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// PriceChangeLog records one retail-price mutation. Never updated or
// deleted.
type PriceChangeLog struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string    `json:"tenantId" gorm:"not null;index"`
	VariantID      uuid.UUID `json:"variantId" gorm:"type:uuid;not null;index"`
	OldRetailPrice string    `json:"oldRetailPrice" gorm:"not null"`
	NewRetailPrice string    `json:"newRetailPrice" gorm:"not null"`
	UserID         string    `json:"userId" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SetPriceRuleRequest activates one rule per listed category.
type SetPriceRuleRequest struct {
	BrandID     uuid.UUID   `json:"brandId" binding:"required"`
	CategoryIDs []uuid.UUID `json:"categoryIds" binding:"required,min=1"`
	Price       string      `json:"price" binding:"required"`
	PriceBasis  PriceBasis  `json:"priceBasis" binding:"required,oneof=finished unfinished"`
}

// SetPriceRuleResult reports how wide a rule change cascaded.
type SetPriceRuleResult struct {
	AffectedVariants int `json:"affectedVariants"`
}

// GlobalAdjustmentRequest targets every variant of a brand carrying one
// of the listed option values.
type GlobalAdjustmentRequest struct {
	BrandID        uuid.UUID        `json:"brandId" binding:"required"`
	OptionNameID   uuid.UUID        `json:"optionNameId" binding:"required"`
	OptionValueIDs []uuid.UUID      `json:"optionValueIds" binding:"required,min=1"`
	Delta          string           `json:"delta" binding:"required"`
	Symbol         AdjustmentSymbol `json:"symbol" binding:"required,oneof=percent fixed"`
	PriceBasis     PriceBasis       `json:"priceBasis" binding:"required,oneof=finished unfinished"`
}

// StagedVariantPrice is one previewed, not-yet-persisted price change.
type StagedVariantPrice struct {
	VariantID       uuid.UUID `json:"variantId"`
	SKU             string    `json:"sku"`
	ProductName     string    `json:"productName"`
	OldBasisPrice   string    `json:"oldBasisPrice"`
	NewBasisPrice   string    `json:"newBasisPrice"`
	OldRetailPrice  string    `json:"oldRetailPrice"`
	NewRetailPrice  string    `json:"newRetailPrice"`
	FinishedPrice   string    `json:"finishedPrice"`
	UnfinishedPrice string    `json:"unfinishedPrice"`
}

// AdjustmentPreview is returned by the preview call and echoed back on
// confirm. No staging state is held server-side between the two.
type AdjustmentPreview struct {
	Request      GlobalAdjustmentRequest `json:"request"`
	Staged       []StagedVariantPrice    `json:"staged"`
	ProductCount int                     `json:"productCount"`
}

// RevertAdjustmentRequest undoes the latest adjustment for a key.
type RevertAdjustmentRequest struct {
	BrandID        uuid.UUID   `json:"brandId" binding:"required"`
	OptionNameID   uuid.UUID   `json:"optionNameId" binding:"required"`
	OptionValueIDs []uuid.UUID `json:"optionValueIds" binding:"required,min=1"`
	PriceBasis     PriceBasis  `json:"priceBasis" binding:"required,oneof=finished unfinished"`
}

// RevertRuleRequest rolls the rule for each (brand, category, basis)
// key back to its previous price.
type RevertRuleRequest struct {
	BrandID     uuid.UUID   `json:"brandId" binding:"required"`
	CategoryIDs []uuid.UUID `json:"categoryIds" binding:"required,min=1"`
	PriceBasis  PriceBasis  `json:"priceBasis" binding:"required,oneof=finished unfinished"`
}

// RulePriceWindow is one category's current rule price next to the
// price a revert would restore.
type RulePriceWindow struct {
	CategoryID    uuid.UUID `json:"categoryId"`
	PreviousPrice string    `json:"previousPrice"`
	CurrentPrice  string    `json:"currentPrice"`
}

type RulePriceWindowListResponse struct {
	Success bool              `json:"success"`
	Data    []RulePriceWindow `json:"data"`
}

type PriceRuleListResponse struct {
	Success bool                     `json:"success"`
	Data    []BrandCategoryPriceRule `json:"data"`
}

type PriceChangeLogListResponse struct {
	Success    bool             `json:"success"`
	Data       []PriceChangeLog `json:"data"`
	Pagination *PaginationInfo  `json:"pagination,omitempty"`
}

func (BrandCategoryPriceRule) TableName() string {
	return "brand_category_price_rules"
}

func (PriceRevertLog) TableName() string {
	return "price_revert_logs"
}

func (PriceChangeLog) TableName() string {
	return "price_change_logs"
}
