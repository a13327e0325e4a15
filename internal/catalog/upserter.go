package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/audit"
	"catalog-service/internal/models"
)

// Upserter resolves-or-creates products and variants by their natural
// keys, with field-level change tracking. Every retail-price mutation
// it causes is logged before the operation counts as complete.
type Upserter struct {
	store     Store
	registrar *Registrar
	pricing   PriceCalculator
	audit     audit.Writer
	logger    *logrus.Entry
}

func NewUpserter(store Store, registrar *Registrar, pricing PriceCalculator, auditor audit.Writer) *Upserter {
	return &Upserter{
		store:     store,
		registrar: registrar,
		pricing:   pricing,
		audit:     auditor,
		logger:    logrus.WithField("component", "catalog-upserter"),
	}
}

// UpsertProduct looks a product up by (model, tenant) and either
// creates it, filing it under the resolved path's leaf, or replaces its
// descriptive fields wholesale. The brand is resolved or created from
// its name.
func (u *Upserter) UpsertProduct(tenantID, userID, model string, fields models.ProductFields, path *models.ResolvedPath, cache *BatchCache) (*models.Product, *models.UpsertResult, error) {
	model = strings.TrimSpace(model)

	existing, err := u.lookupProduct(tenantID, model, cache)
	if err != nil {
		return nil, nil, err
	}

	var brandID *uuid.UUID
	if strings.TrimSpace(fields.BrandName) != "" {
		id, err := u.ResolveBrand(tenantID, fields.BrandName, cache)
		if err != nil {
			return nil, nil, err
		}
		brandID = &id
	}

	if existing == nil {
		candidate := &models.Product{
			TenantID:    tenantID,
			Model:       model,
			ProductName: TitleCase(fields.ProductName),
			BrandID:     brandID,
		}
		applyProductFields(candidate, fields)

		product, created, err := u.store.CreateProduct(candidate)
		if err != nil {
			return nil, nil, err
		}
		if created {
			if path != nil {
				if err := u.ensureAssignment(tenantID, product.ID, path); err != nil {
					return nil, nil, err
				}
			}
			u.audit.Product(tenantID, userID, product.ID, models.LogActionCreated, models.JSON{
				"model":       product.Model,
				"productName": product.ProductName,
				"brandId":     uuidString(product.BrandID),
			})
			cache.SetProduct(model, product.ID)
			return product, &models.UpsertResult{ID: product.ID, Created: true}, nil
		}
		existing = product
	}

	diff := productDiff(existing, fields, brandID)
	existing.ProductName = TitleCase(fields.ProductName)
	existing.BrandID = brandID
	applyProductFields(existing, fields)
	if err := u.store.UpdateProduct(existing); err != nil {
		return nil, nil, err
	}
	if path != nil {
		if err := u.ensureAssignment(tenantID, existing.ID, path); err != nil {
			return nil, nil, err
		}
	}
	u.audit.Product(tenantID, userID, existing.ID, models.LogActionUpdated, diff)
	cache.SetProduct(model, existing.ID)
	return existing, &models.UpsertResult{ID: existing.ID, Created: false, Diff: diff}, nil
}

// UpsertVariant looks a variant up by (sku, tenant) and either creates
// it with its initial retail price, or updates its price and quantity
// fields in place. Option pairs not yet linked are appended through the
// registrar; pairs already linked are left alone.
func (u *Upserter) UpsertVariant(tenantID, userID string, product *models.Product, sku string, fields models.VariantFields, pairs []models.OptionPair, cache *BatchCache) (*models.UpsertResult, error) {
	sku = strings.TrimSpace(sku)

	existing, err := u.lookupVariant(tenantID, sku, cache)
	if err != nil {
		return nil, err
	}

	assignment, err := u.store.GetAssignmentByProduct(tenantID, product.ID)
	if err != nil {
		return nil, err
	}
	var categoryID *uuid.UUID
	pairIDs := []uuid.UUID{}
	if assignment != nil {
		categoryID = &assignment.CategoryID
		pairIDs, err = u.registrar.Register(tenantID, userID, assignment.CategoryID, assignment.CategoryLevel, pairs, cache)
		if err != nil {
			return nil, err
		}
	} else if len(pairs) > 0 {
		u.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": product.ID,
			"sku":        sku,
		}).Warn("Product has no category assignment, skipping option registration")
	}

	if existing == nil {
		retail, err := u.pricing.RetailPrice(tenantID, product.BrandID, categoryID, fields.FinishedPrice, fields.UnfinishedPrice)
		if err != nil {
			return nil, err
		}
		candidate := &models.ProductVariant{
			TenantID:        tenantID,
			ProductID:       product.ID,
			SKU:             sku,
			FinishedPrice:   orZero(fields.FinishedPrice),
			UnfinishedPrice: orZero(fields.UnfinishedPrice),
			Quantity:        orZero(fields.Quantity),
			RetailPrice:     retail,
			IsActive:        true,
			OptionPairIDs:   pairIDStrings(pairIDs),
		}
		variant, created, err := u.store.CreateVariant(candidate)
		if err != nil {
			return nil, err
		}
		if created {
			u.audit.Variant(tenantID, userID, variant.ID, models.LogActionCreated, models.JSON{
				"sku":           variant.SKU,
				"productId":     product.ID.String(),
				"finishedPrice": variant.FinishedPrice,
				"retailPrice":   variant.RetailPrice,
			})
			if err := u.logPriceChange(tenantID, userID, variant.ID, "0", variant.RetailPrice); err != nil {
				return nil, err
			}
			cache.SetVariant(sku, variant.ID)
			return &models.UpsertResult{ID: variant.ID, Created: true}, nil
		}
		existing = variant
	}

	diff := variantDiff(existing, fields)
	oldRetail := existing.RetailPrice
	existing.FinishedPrice = orZero(fields.FinishedPrice)
	existing.UnfinishedPrice = orZero(fields.UnfinishedPrice)
	existing.Quantity = orZero(fields.Quantity)

	retail, err := u.pricing.RetailPrice(tenantID, product.BrandID, categoryID, existing.FinishedPrice, existing.UnfinishedPrice)
	if err != nil {
		return nil, err
	}
	if retail != oldRetail {
		diff["retailPrice"] = models.JSON{"old": oldRetail, "new": retail}
	}
	existing.RetailPrice = retail

	for _, pairID := range pairIDs {
		if !existing.OptionPairIDs.Contains(pairID.String()) {
			existing.OptionPairIDs = append(existing.OptionPairIDs, pairID.String())
		}
	}

	if err := u.store.UpdateVariant(existing); err != nil {
		return nil, err
	}
	u.audit.Variant(tenantID, userID, existing.ID, models.LogActionUpdated, diff)
	if retail != oldRetail {
		if err := u.logPriceChange(tenantID, userID, existing.ID, oldRetail, retail); err != nil {
			return nil, err
		}
	}
	cache.SetVariant(sku, existing.ID)
	return &models.UpsertResult{ID: existing.ID, Created: false, Diff: diff}, nil
}

// ResolveBrand returns the id for a brand name, creating the brand
// (with its sequence code) on first use.
func (u *Upserter) ResolveBrand(tenantID, name string, cache *BatchCache) (uuid.UUID, error) {
	name = TitleCase(name)
	if id, ok := cache.Brand(name); ok {
		return id, nil
	}
	var brand *models.Brand
	var err error
	if !cache.Seeded() {
		brand, err = u.store.GetBrandByName(tenantID, name)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if brand == nil {
		brand, _, err = u.store.CreateBrand(&models.Brand{
			TenantID: tenantID,
			Name:     name,
			IsActive: true,
		})
		if err != nil {
			return uuid.Nil, err
		}
	}
	cache.SetBrand(name, brand.ID)
	return brand.ID, nil
}

// ReassignCategory re-files a product under a different category. The
// product's taxonomy contribution is duplicated under the new category;
// the old category's taxonomy is never shrunk, since other products may
// still rely on it.
func (u *Upserter) ReassignCategory(tenantID, userID string, productID, newCategoryID uuid.UUID, newLevel int) error {
	assignment, err := u.store.GetAssignmentByProduct(tenantID, productID)
	if err != nil {
		return err
	}
	if assignment == nil {
		_, _, err := u.store.CreateAssignment(&models.CategoryAssignment{
			TenantID:      tenantID,
			ProductID:     productID,
			CategoryID:    newCategoryID,
			CategoryLevel: newLevel,
		})
		return err
	}
	if assignment.CategoryID == newCategoryID {
		return nil
	}

	oldCategoryID := assignment.CategoryID
	assignment.CategoryID = newCategoryID
	assignment.CategoryLevel = newLevel
	if err := u.store.UpdateAssignment(assignment); err != nil {
		return err
	}

	variants, err := u.store.ListVariantsByProduct(tenantID, productID)
	if err != nil {
		return err
	}
	for _, variant := range variants {
		for _, pairIDStr := range variant.OptionPairIDs {
			pairID, err := uuid.Parse(pairIDStr)
			if err != nil {
				continue
			}
			pair, err := u.store.GetOptionPairByID(pairID)
			if err != nil {
				return err
			}
			if pair == nil {
				continue
			}
			if err := u.registrar.RegisterResolved(tenantID, userID, newCategoryID, newLevel, pair.OptionNameID, pair.OptionValueID); err != nil {
				return err
			}
		}
	}

	u.audit.Product(tenantID, userID, productID, models.LogActionUpdated, models.JSON{
		"categoryId": models.JSON{"old": oldCategoryID.String(), "new": newCategoryID.String()},
	})
	return nil
}

func (u *Upserter) lookupProduct(tenantID, model string, cache *BatchCache) (*models.Product, error) {
	if id, ok := cache.Product(model); ok {
		return u.store.GetProductByID(tenantID, id)
	}
	if cache.Seeded() {
		return nil, nil
	}
	return u.store.GetProductByModel(tenantID, model)
}

func (u *Upserter) lookupVariant(tenantID, sku string, cache *BatchCache) (*models.ProductVariant, error) {
	// A seeded cache is authoritative for existence; a miss means the SKU
	// is new and the store read can be skipped.
	if _, ok := cache.Variant(sku); !ok && cache.Seeded() {
		return nil, nil
	}
	return u.store.GetVariantBySKU(tenantID, sku)
}

func (u *Upserter) ensureAssignment(tenantID string, productID uuid.UUID, path *models.ResolvedPath) error {
	assignment, err := u.store.GetAssignmentByProduct(tenantID, productID)
	if err != nil {
		return err
	}
	if assignment != nil {
		return nil
	}
	leafID, err := uuid.Parse(path.LeafID)
	if err != nil {
		return err
	}
	_, _, err = u.store.CreateAssignment(&models.CategoryAssignment{
		TenantID:      tenantID,
		ProductID:     productID,
		CategoryID:    leafID,
		CategoryLevel: path.Level,
	})
	return err
}

// Price-log failures after a successful price write are a data-loss
// risk, so they get one retry before surfacing.
func (u *Upserter) logPriceChange(tenantID, userID string, variantID uuid.UUID, oldRetail, newRetail string) error {
	if err := u.audit.PriceChange(tenantID, userID, variantID, oldRetail, newRetail); err != nil {
		return u.audit.PriceChange(tenantID, userID, variantID, oldRetail, newRetail)
	}
	return nil
}

func applyProductFields(product *models.Product, fields models.ProductFields) {
	product.MPN = fields.MPN
	product.UpcEan = fields.UpcEan
	product.Breadcrumb = fields.Breadcrumb
	product.LongDescription = fields.LongDescription
	product.ShortDescription = fields.ShortDescription
	product.KeyFeatures = fields.KeyFeatures
	product.Tags = fields.Tags
	product.OptionStr = fields.OptionStr
	product.Dimensions = fields.Dimensions
	product.Units = fields.Units
}

func productDiff(old *models.Product, fields models.ProductFields, brandID *uuid.UUID) models.JSON {
	diff := models.JSON{}
	diffString(diff, "productName", old.ProductName, TitleCase(fields.ProductName))
	diffStringPtr(diff, "mpn", old.MPN, fields.MPN)
	diffStringPtr(diff, "upcEan", old.UpcEan, fields.UpcEan)
	diffStringPtr(diff, "breadcrumb", old.Breadcrumb, fields.Breadcrumb)
	diffStringPtr(diff, "longDescription", old.LongDescription, fields.LongDescription)
	diffStringPtr(diff, "shortDescription", old.ShortDescription, fields.ShortDescription)
	diffStringPtr(diff, "keyFeatures", old.KeyFeatures, fields.KeyFeatures)
	diffStringPtr(diff, "tags", old.Tags, fields.Tags)
	diffStringPtr(diff, "optionStr", old.OptionStr, fields.OptionStr)
	diffStringPtr(diff, "dimensions", old.Dimensions, fields.Dimensions)
	diffStringPtr(diff, "units", old.Units, fields.Units)
	// Reference fields are diffed by presence only.
	if (old.BrandID == nil) != (brandID == nil) {
		diff["brandId"] = models.JSON{"old": uuidString(old.BrandID), "new": uuidString(brandID)}
	}
	return diff
}

func variantDiff(old *models.ProductVariant, fields models.VariantFields) models.JSON {
	diff := models.JSON{}
	diffString(diff, "finishedPrice", old.FinishedPrice, orZero(fields.FinishedPrice))
	diffString(diff, "unfinishedPrice", old.UnfinishedPrice, orZero(fields.UnfinishedPrice))
	diffString(diff, "quantity", old.Quantity, orZero(fields.Quantity))
	return diff
}

func diffString(diff models.JSON, field, oldVal, newVal string) {
	if oldVal != newVal {
		diff[field] = models.JSON{"old": oldVal, "new": newVal}
	}
}

func diffStringPtr(diff models.JSON, field string, oldVal, newVal *string) {
	o := ""
	if oldVal != nil {
		o = *oldVal
	}
	n := ""
	if newVal != nil {
		n = *newVal
	}
	diffString(diff, field, o, n)
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return strings.TrimSpace(s)
}

func uuidString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func pairIDStrings(ids []uuid.UUID) models.StringArray {
	out := make(models.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
