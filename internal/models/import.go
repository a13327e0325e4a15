package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// Feed field names the ingestion pipeline understands. Spreadsheet
// columns are translated to these by the column mapping before any row
// reaches the pipeline.
const (
	FieldModel            = "model"
	FieldMPN              = "mpn"
	FieldUpcEan           = "upcEan"
	FieldBreadcrumb       = "breadcrumb"
	FieldBrandName        = "brandName"
	FieldProductName      = "productName"
	FieldLongDescription  = "longDescription"
	FieldShortDescription = "shortDescription"
	FieldKeyFeatures      = "keyFeatures"
	FieldTags             = "tags"
	FieldDimensions       = "dimensions"
	FieldUnits            = "units"
	FieldSKU              = "sku"
	FieldFinishedPrice    = "finishedPrice"
	FieldUnfinishedPrice  = "unfinishedPrice"
	FieldQuantity         = "quantity"
)

// ImportMapping persists one user-defined column→field mapping per
// (tenant, user, vendor) so it need not be re-specified per upload.
type ImportMapping struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;uniqueIndex:idx_import_mappings_key"`
	UserID    string    `json:"userId" gorm:"not null;uniqueIndex:idx_import_mappings_key"`
	VendorID  string    `json:"vendorId" gorm:"not null;uniqueIndex:idx_import_mappings_key"`
	Mapping   JSON      `json:"mapping" gorm:"type:jsonb;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ImportMapping) TableName() string {
	return "import_mappings"
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the outcome of one ingestion run
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	AddedCount   int              `json:"addedCount"`
	FailedCount  int              `json:"failedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	ProcessingMs int64            `json:"processingMs"`
}

// FeedImportColumns returns the column definitions for a product feed
func FeedImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "Model", Description: "Product model number (natural key)", Required: true, Type: "string", Example: "WM-2041"},
		{Name: "Category Level", Description: "Breadcrumb, root > leaf, up to 6 levels", Required: true, Type: "string", Example: "Furniture > Seating > Chairs"},
		{Name: "Vendor Name", Description: "Brand/vendor name - auto-creates if not exists", Required: true, Type: "string", Example: "Acme Woodworks"},
		{Name: "Product Name", Description: "Display name", Required: true, Type: "string", Example: "Walnut Dining Chair"},
		{Name: "Variant SKU", Description: "Unique variant SKU (natural key)", Required: true, Type: "string", Example: "WM-2041-WAL"},
		{Name: "Finished Price", Description: "Finished basis price", Required: true, Type: "number", Example: "249.00"},
		{Name: "Long Description", Description: "Full product description", Required: true, Type: "string", Example: "Solid walnut frame..."},
		{Name: "Unfinished Price", Description: "Unfinished basis price", Required: false, Type: "number", Example: "199.00"},
		{Name: "Quantity", Description: "Stock on hand", Required: false, Type: "number", Example: "12"},
		{Name: "MPN", Description: "Manufacturer part number", Required: false, Type: "string", Example: ""},
		{Name: "UPC/EAN", Description: "Barcode", Required: false, Type: "string", Example: ""},
		{Name: "Short Description", Description: "One-line summary", Required: false, Type: "string", Example: ""},
		{Name: "Key Features", Description: "Newline-separated feature list", Required: false, Type: "string", Example: ""},
		{Name: "Tags", Description: "Comma-separated tags", Required: false, Type: "string", Example: ""},
		{Name: "Dimensions", Description: "LxWxH with unit", Required: false, Type: "string", Example: "20x22x38 in"},
		{Name: "Units", Description: "Unit of sale", Required: false, Type: "string", Example: "each"},
		{Name: "Option1 Name", Description: "First option name (Option2..N continue the series)", Required: false, Type: "string", Example: "Finish"},
		{Name: "Option1 Value", Description: "First option value", Required: false, Type: "string", Example: "Natural Walnut"},
	}
}

// FeedImportTemplate returns the template definition for product feeds
func FeedImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "catalog-feed",
		Version: "1.0",
		Columns: FeedImportColumns(),
	}
}

// DefaultColumnMapping maps the template's column headers to feed
// fields; used when a vendor has no stored mapping.
func DefaultColumnMapping() map[string]string {
	return map[string]string{
		"model":             FieldModel,
		"category level":    FieldBreadcrumb,
		"vendor name":       FieldBrandName,
		"product name":      FieldProductName,
		"variant sku":       FieldSKU,
		"finished price":    FieldFinishedPrice,
		"unfinished price":  FieldUnfinishedPrice,
		"quantity":          FieldQuantity,
		"long description":  FieldLongDescription,
		"short description": FieldShortDescription,
		"key features":      FieldKeyFeatures,
		"mpn":               FieldMPN,
		"upc/ean":           FieldUpcEan,
		"tags":              FieldTags,
		"dimensions":        FieldDimensions,
		"units":             FieldUnits,
	}
}
