package models

import (
	"time"

	"github.com/google/uuid"
)

// LogAction tags what happened to the logged entity.
type LogAction string

const (
	LogActionCreated LogAction = "created"
	LogActionUpdated LogAction = "updated"
	LogActionCloned  LogAction = "cloned"
)

// CategoryLog records a category tree mutation.
type CategoryLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;index"`
	EntityID  uuid.UUID `json:"entityId" gorm:"type:uuid;not null;index"`
	Action    LogAction `json:"action" gorm:"not null"`
	UserID    string    `json:"userId" gorm:"not null"`
	Data      JSON      `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductLog records a product mutation with a field-level diff payload.
type ProductLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;index"`
	EntityID  uuid.UUID `json:"entityId" gorm:"type:uuid;not null;index"`
	Action    LogAction `json:"action" gorm:"not null"`
	UserID    string    `json:"userId" gorm:"not null"`
	Data      JSON      `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
}

// VariantLog records a variant mutation.
type VariantLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;index"`
	EntityID  uuid.UUID `json:"entityId" gorm:"type:uuid;not null;index"`
	Action    LogAction `json:"action" gorm:"not null"`
	UserID    string    `json:"userId" gorm:"not null"`
	Data      JSON      `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaxonomyLog records an option-set creation or value attachment.
type TaxonomyLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;index"`
	EntityID  uuid.UUID `json:"entityId" gorm:"type:uuid;not null;index"`
	Action    LogAction `json:"action" gorm:"not null"`
	UserID    string    `json:"userId" gorm:"not null"`
	Data      JSON      `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
}

func (CategoryLog) TableName() string {
	return "category_logs"
}

func (ProductLog) TableName() string {
	return "product_logs"
}

func (VariantLog) TableName() string {
	return "variant_logs"
}

func (TaxonomyLog) TableName() string {
	return "taxonomy_logs"
}
