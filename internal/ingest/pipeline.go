package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

// Row is one feed row after column mapping: field names from the
// import vocabulary plus option<N>Name/option<N>Value series. Number is
// the spreadsheet row for error reporting.
type Row struct {
	Number int
	Fields map[string]string
}

// Store is what the pipeline needs for cache seeding and mapping
// persistence.
type Store interface {
	ListCategories(tenantID string) ([]models.CategoryNode, error)
	ListBrands(tenantID string) ([]models.Brand, error)
	ListTypeNames() ([]models.TypeName, error)
	ListTypeValues() ([]models.TypeValue, error)
	ListProducts(tenantID string) ([]models.Product, error)
	ListVariants(tenantID string) ([]models.ProductVariant, error)

	GetImportMapping(tenantID, userID, vendorID string) (*models.ImportMapping, error)
	SaveImportMapping(mapping *models.ImportMapping) error
}

// mandatoryFields are checked per row; a missing one flags the row but
// never aborts the batch.
var mandatoryFields = []struct {
	field  string
	column string
}{
	{models.FieldModel, "Model"},
	{models.FieldBreadcrumb, "Category Level"},
	{models.FieldBrandName, "Vendor Name"},
	{models.FieldProductName, "Product Name"},
	{models.FieldSKU, "Variant SKU"},
	{models.FieldFinishedPrice, "Finished Price"},
	{models.FieldLongDescription, "Long Description"},
}

var numericFields = []string{
	models.FieldFinishedPrice,
	models.FieldUnfinishedPrice,
	models.FieldQuantity,
}

// Pipeline runs one bulk ingestion: strictly row by row, with lookup
// caches seeded once per run so later rows can see entities created by
// earlier rows without extra store reads.
type Pipeline struct {
	store    Store
	resolver *catalog.Resolver
	upserter *catalog.Upserter
	logger   *logrus.Entry
}

func NewPipeline(store Store, resolver *catalog.Resolver, upserter *catalog.Upserter) *Pipeline {
	return &Pipeline{
		store:    store,
		resolver: resolver,
		upserter: upserter,
		logger:   logrus.WithField("component", "ingest-pipeline"),
	}
}

// Run processes rows best-effort: validation failures are collected per
// row and processing continues; only a store failure aborts the run.
func (p *Pipeline) Run(tenantID, userID, vendorID string, rows []Row) (*models.ImportResult, error) {
	start := time.Now()
	cache, err := p.seedCache(tenantID)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{TotalRows: len(rows)}
	failedRows := make(map[int]bool)

	for i := range rows {
		row := &rows[i]
		p.coerceNumerics(row)

		rowErrs := p.validateMandatory(row)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			failedRows[row.Number] = true
			// Still attempted best-effort; its outcome is not reported
			// on top of the validation errors.
			if err := p.processRow(tenantID, userID, row, cache); err != nil {
				p.logger.WithError(err).WithField("row", row.Number).Debug("Best-effort processing of flagged row failed")
			}
			continue
		}

		if err := p.processRow(tenantID, userID, row, cache); err != nil {
			if isFatal(err) {
				return result, err
			}
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     row.Number,
				Code:    "ROW_PROCESSING_FAILED",
				Message: err.Error(),
			})
			failedRows[row.Number] = true
			continue
		}
		result.AddedCount++
	}

	result.FailedCount = len(failedRows)
	result.Success = result.FailedCount == 0
	result.ProcessingMs = time.Since(start).Milliseconds()

	p.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"vendor_id": vendorID,
		"total":     result.TotalRows,
		"added":     result.AddedCount,
		"failed":    result.FailedCount,
	}).Info("Ingestion run completed")
	return result, nil
}

func (p *Pipeline) processRow(tenantID, userID string, row *Row, cache *catalog.BatchCache) error {
	breadcrumb := catalog.SplitBreadcrumb(row.Fields[models.FieldBreadcrumb])
	var path *models.ResolvedPath
	if len(breadcrumb) > 0 {
		var err error
		path, err = p.resolver.Resolve(tenantID, userID, breadcrumb, cache)
		if err != nil {
			return fmt.Errorf("category resolution failed: %w", err)
		}
	}

	model := strings.TrimSpace(row.Fields[models.FieldModel])
	if model == "" {
		return fmt.Errorf("cannot upsert product without a model")
	}

	fields := models.ProductFields{
		ProductName: row.Fields[models.FieldProductName],
		BrandName:   row.Fields[models.FieldBrandName],
	}
	setOptional(&fields.MPN, row.Fields[models.FieldMPN])
	setOptional(&fields.UpcEan, row.Fields[models.FieldUpcEan])
	setOptional(&fields.LongDescription, row.Fields[models.FieldLongDescription])
	setOptional(&fields.ShortDescription, row.Fields[models.FieldShortDescription])
	setOptional(&fields.KeyFeatures, row.Fields[models.FieldKeyFeatures])
	setOptional(&fields.Tags, row.Fields[models.FieldTags])
	setOptional(&fields.Dimensions, row.Fields[models.FieldDimensions])
	setOptional(&fields.Units, row.Fields[models.FieldUnits])
	if raw := strings.TrimSpace(row.Fields[models.FieldBreadcrumb]); raw != "" {
		fields.Breadcrumb = &raw
	}
	pairs := scanOptionPairs(row.Fields)
	if len(pairs) > 0 {
		optionStr := optionSummary(pairs)
		fields.OptionStr = &optionStr
	}

	product, _, err := p.upserter.UpsertProduct(tenantID, userID, model, fields, path, cache)
	if err != nil {
		return fmt.Errorf("product upsert failed: %w", err)
	}

	sku := strings.TrimSpace(row.Fields[models.FieldSKU])
	if sku == "" {
		return fmt.Errorf("cannot upsert variant without a SKU")
	}
	variantFields := models.VariantFields{
		FinishedPrice:   row.Fields[models.FieldFinishedPrice],
		UnfinishedPrice: row.Fields[models.FieldUnfinishedPrice],
		Quantity:        row.Fields[models.FieldQuantity],
	}
	if _, err := p.upserter.UpsertVariant(tenantID, userID, product, sku, variantFields, pairs, cache); err != nil {
		return fmt.Errorf("variant upsert failed: %w", err)
	}
	return nil
}

func (p *Pipeline) seedCache(tenantID string) (*catalog.BatchCache, error) {
	cache := catalog.NewBatchCache()

	categories, err := p.store.ListCategories(tenantID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		cache.SetCategory(c.Level, c.Name, c.ID)
	}

	brands, err := p.store.ListBrands(tenantID)
	if err != nil {
		return nil, err
	}
	for _, b := range brands {
		cache.SetBrand(b.Name, b.ID)
	}

	typeNames, err := p.store.ListTypeNames()
	if err != nil {
		return nil, err
	}
	for _, tn := range typeNames {
		cache.SetTypeName(tn.Name, tn.ID)
	}

	typeValues, err := p.store.ListTypeValues()
	if err != nil {
		return nil, err
	}
	for _, tv := range typeValues {
		cache.SetTypeValue(tv.Name, tv.ID)
	}

	products, err := p.store.ListProducts(tenantID)
	if err != nil {
		return nil, err
	}
	for _, pr := range products {
		cache.SetProduct(pr.Model, pr.ID)
	}

	variants, err := p.store.ListVariants(tenantID)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		cache.SetVariant(v.SKU, v.ID)
	}

	cache.MarkSeeded()
	return cache, nil
}

func (p *Pipeline) validateMandatory(row *Row) []models.ImportRowError {
	var errs []models.ImportRowError
	for _, mf := range mandatoryFields {
		if strings.TrimSpace(row.Fields[mf.field]) == "" {
			errs = append(errs, models.ImportRowError{
				Row:     row.Number,
				Column:  mf.column,
				Code:    "MISSING_REQUIRED_FIELD",
				Message: fmt.Sprintf("%s is required", mf.column),
			})
		}
	}
	return errs
}

// coerceNumerics replaces unparsable numeric fields with "0" so a
// malformed price never aborts the row.
func (p *Pipeline) coerceNumerics(row *Row) {
	for _, field := range numericFields {
		raw, ok := row.Fields[field]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := decimal.NewFromString(raw); err != nil {
			row.Fields[field] = "0"
		} else {
			row.Fields[field] = raw
		}
	}
}

// Mapping returns the stored column mapping for a vendor, nil when the
// vendor has none yet.
func (p *Pipeline) Mapping(tenantID, userID, vendorID string) (*models.ImportMapping, error) {
	return p.store.GetImportMapping(tenantID, userID, vendorID)
}

// SaveMapping persists a column mapping for reuse on later uploads.
func (p *Pipeline) SaveMapping(tenantID, userID, vendorID string, mapping models.JSON) error {
	return p.store.SaveImportMapping(&models.ImportMapping{
		TenantID: tenantID,
		UserID:   userID,
		VendorID: vendorID,
		Mapping:  mapping,
	})
}

// OptionNameField returns the mapped field key for the Nth option name
// column.
func OptionNameField(n int) string {
	return fmt.Sprintf("option%dName", n)
}

// OptionValueField returns the mapped field key for the Nth option
// value column.
func OptionValueField(n int) string {
	return fmt.Sprintf("option%dValue", n)
}

// scanOptionPairs walks Option1..OptionN, stopping at the first index
// where either column is missing.
func scanOptionPairs(fields map[string]string) []models.OptionPair {
	var pairs []models.OptionPair
	for n := 1; ; n++ {
		name, nameOK := fields[OptionNameField(n)]
		value, valueOK := fields[OptionValueField(n)]
		if !nameOK || !valueOK {
			break
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		pairs = append(pairs, models.OptionPair{Name: name, Value: value})
	}
	return pairs
}

func optionSummary(pairs []models.OptionPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s: %s", catalog.TitleCase(p.Name), catalog.TitleCase(p.Value)))
	}
	return strings.Join(parts, ", ")
}

func setOptional(dst **string, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	*dst = &raw
}

// isFatal separates store-level failures, which abort the run, from
// per-row conditions. Natural-key conflicts never reach here; they are
// resolved by re-fetch inside the store.
func isFatal(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "context deadline exceeded")
}
