package catalog

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/audit"
	"catalog-service/internal/models"
)

// Registrar keeps a category's taxonomy in step with the option pairs
// seen on its products: the allowed-value sets grow monotonically and
// every pair resolves to exactly one ProductVariantOption row.
type Registrar struct {
	store  Store
	audit  audit.Writer
	logger *logrus.Entry
}

func NewRegistrar(store Store, auditor audit.Writer) *Registrar {
	return &Registrar{
		store:  store,
		audit:  auditor,
		logger: logrus.WithField("component", "taxonomy-registrar"),
	}
}

// Register resolves each (name, value) pair against the global
// vocabularies, folds it into the category's taxonomy, and returns the
// ids of the concrete pair rows for variant linkage. Re-registering a
// pair already present is a no-op and emits no audit entries.
func (g *Registrar) Register(tenantID, userID string, categoryID uuid.UUID, categoryLevel int, pairs []models.OptionPair, cache *BatchCache) ([]uuid.UUID, error) {
	pairIDs := make([]uuid.UUID, 0, len(pairs))
	for _, pair := range pairs {
		name := TitleCase(pair.Name)
		value := TitleCase(pair.Value)
		if name == "" || value == "" {
			continue
		}

		nameID, err := g.resolveTypeName(name, cache)
		if err != nil {
			return nil, err
		}
		valueID, err := g.resolveTypeValue(value, cache)
		if err != nil {
			return nil, err
		}

		if err := g.registerResolved(tenantID, userID, categoryID, categoryLevel, nameID, valueID, name, value); err != nil {
			return nil, err
		}

		pairID, err := g.resolvePair(nameID, valueID)
		if err != nil {
			return nil, err
		}
		pairIDs = append(pairIDs, pairID)
	}
	return pairIDs, nil
}

// RegisterResolved folds one already-resolved pair into a category's
// taxonomy. Used when re-filing duplicates a product's taxonomy
// contribution under its new category.
func (g *Registrar) RegisterResolved(tenantID, userID string, categoryID uuid.UUID, categoryLevel int, nameID, valueID uuid.UUID) error {
	return g.registerResolved(tenantID, userID, categoryID, categoryLevel, nameID, valueID, "", "")
}

func (g *Registrar) resolveTypeName(name string, cache *BatchCache) (uuid.UUID, error) {
	if id, ok := cache.TypeName(name); ok {
		return id, nil
	}
	var tn *models.TypeName
	var err error
	if !cache.Seeded() {
		tn, err = g.store.GetTypeNameByName(name)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if tn == nil {
		tn, _, err = g.store.CreateTypeName(name)
		if err != nil {
			return uuid.Nil, err
		}
	}
	cache.SetTypeName(name, tn.ID)
	return tn.ID, nil
}

func (g *Registrar) resolveTypeValue(value string, cache *BatchCache) (uuid.UUID, error) {
	if id, ok := cache.TypeValue(value); ok {
		return id, nil
	}
	var tv *models.TypeValue
	var err error
	if !cache.Seeded() {
		tv, err = g.store.GetTypeValueByName(value)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if tv == nil {
		tv, _, err = g.store.CreateTypeValue(value)
		if err != nil {
			return uuid.Nil, err
		}
	}
	cache.SetTypeValue(value, tv.ID)
	return tv.ID, nil
}

func (g *Registrar) registerResolved(tenantID, userID string, categoryID uuid.UUID, categoryLevel int, nameID, valueID uuid.UUID, name, value string) error {
	set, err := g.store.GetOptionSet(tenantID, nameID, categoryID)
	if err != nil {
		return err
	}
	if set == nil {
		candidate := &models.VariantOptionSet{
			TenantID:        tenantID,
			OptionNameID:    nameID,
			CategoryID:      categoryID,
			AllowedValueIDs: models.StringArray{valueID.String()},
		}
		var created bool
		set, created, err = g.store.CreateOptionSet(candidate)
		if err != nil {
			return err
		}
		if created {
			g.audit.Taxonomy(tenantID, userID, set.ID, models.LogActionCreated, models.JSON{
				"categoryId":   categoryID.String(),
				"optionNameId": nameID.String(),
				"optionName":   name,
				"valueIds":     []string{valueID.String()},
			})
		}
	}

	if !set.AllowedValueIDs.Contains(valueID.String()) {
		added, err := g.store.AddOptionSetValue(set.ID, valueID)
		if err != nil {
			return err
		}
		if added {
			set.AllowedValueIDs = append(set.AllowedValueIDs, valueID.String())
			g.audit.Taxonomy(tenantID, userID, set.ID, models.LogActionUpdated, models.JSON{
				"categoryId":   categoryID.String(),
				"optionNameId": nameID.String(),
				"addedValueId": valueID.String(),
				"addedValue":   value,
			})
		}
	}

	taxonomy, err := g.store.GetTaxonomyByCategory(tenantID, categoryID)
	if err != nil {
		return err
	}
	if taxonomy == nil {
		candidate := &models.CategoryTaxonomy{
			TenantID:      tenantID,
			CategoryID:    categoryID,
			CategoryLevel: categoryLevel,
			OptionSetIDs:  models.StringArray{set.ID.String()},
		}
		var created bool
		taxonomy, created, err = g.store.CreateTaxonomy(candidate)
		if err != nil {
			return err
		}
		if created {
			g.audit.Taxonomy(tenantID, userID, taxonomy.ID, models.LogActionCreated, models.JSON{
				"categoryId":  categoryID.String(),
				"optionSetId": set.ID.String(),
			})
			return nil
		}
	}

	if !taxonomy.OptionSetIDs.Contains(set.ID.String()) {
		attached, err := g.store.AttachTaxonomySet(taxonomy.ID, set.ID)
		if err != nil {
			return err
		}
		if attached {
			g.audit.Taxonomy(tenantID, userID, taxonomy.ID, models.LogActionUpdated, models.JSON{
				"categoryId":  categoryID.String(),
				"optionSetId": set.ID.String(),
			})
		}
	}
	return nil
}

func (g *Registrar) resolvePair(nameID, valueID uuid.UUID) (uuid.UUID, error) {
	pair, err := g.store.GetOptionPair(nameID, valueID)
	if err != nil {
		return uuid.Nil, err
	}
	if pair == nil {
		pair, _, err = g.store.CreateOptionPair(&models.ProductVariantOption{
			OptionNameID:  nameID,
			OptionValueID: valueID,
		})
		if err != nil {
			return uuid.Nil, err
		}
	}
	return pair.ID, nil
}
