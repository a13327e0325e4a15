package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalog-service/internal/audit"
	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

// memStore backs the pipeline tests with one in-memory store that
// serves both the catalog components and the pipeline's seeding and
// mapping needs. Lookups return (nil, nil) on a miss; creates resolve
// natural-key conflicts by returning the existing row.
type memStore struct {
	categories     map[string]*models.CategoryNode
	categoriesByID map[uuid.UUID]*models.CategoryNode
	brands         map[string]*models.Brand
	typeNames      map[string]*models.TypeName
	typeValues     map[string]*models.TypeValue
	optionSets     map[string]*models.VariantOptionSet
	taxonomies     map[string]*models.CategoryTaxonomy
	taxonomiesByID map[uuid.UUID]*models.CategoryTaxonomy
	pairs          map[string]*models.ProductVariantOption
	pairsByID      map[uuid.UUID]*models.ProductVariantOption
	products       map[string]*models.Product
	productsByID   map[uuid.UUID]*models.Product
	variants       map[string]*models.ProductVariant
	assignments    map[uuid.UUID]*models.CategoryAssignment
	mappings       map[string]*models.ImportMapping
	counters       map[string]int64

	// When set, CreateProduct fails with this error.
	productErr error

	lookupCount int
}

var (
	_ catalog.Store = (*memStore)(nil)
	_ Store         = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		categories:     map[string]*models.CategoryNode{},
		categoriesByID: map[uuid.UUID]*models.CategoryNode{},
		brands:         map[string]*models.Brand{},
		typeNames:      map[string]*models.TypeName{},
		typeValues:     map[string]*models.TypeValue{},
		optionSets:     map[string]*models.VariantOptionSet{},
		taxonomies:     map[string]*models.CategoryTaxonomy{},
		taxonomiesByID: map[uuid.UUID]*models.CategoryTaxonomy{},
		pairs:          map[string]*models.ProductVariantOption{},
		pairsByID:      map[uuid.UUID]*models.ProductVariantOption{},
		products:       map[string]*models.Product{},
		productsByID:   map[uuid.UUID]*models.Product{},
		variants:       map[string]*models.ProductVariant{},
		assignments:    map[uuid.UUID]*models.CategoryAssignment{},
		mappings:       map[string]*models.ImportMapping{},
		counters:       map[string]int64{},
	}
}

func (s *memStore) nextSeq(tenantID, scope string) int64 {
	key := tenantID + "|" + scope
	s.counters[key]++
	return s.counters[key]
}

func catKey(tenantID string, level int, name string) string {
	return fmt.Sprintf("%s|%d|%s", tenantID, level, strings.ToLower(name))
}

func (s *memStore) GetCategoryByName(tenantID string, level int, name string) (*models.CategoryNode, error) {
	s.lookupCount++
	return s.categories[catKey(tenantID, level, name)], nil
}

func (s *memStore) GetCategoryByID(tenantID string, id uuid.UUID) (*models.CategoryNode, error) {
	node := s.categoriesByID[id]
	if node == nil || node.TenantID != tenantID {
		return nil, nil
	}
	return node, nil
}

func (s *memStore) CreateCategory(node *models.CategoryNode) (*models.CategoryNode, bool, error) {
	key := catKey(node.TenantID, node.Level, node.Name)
	if existing, ok := s.categories[key]; ok {
		return existing, false, nil
	}
	n := *node
	n.ID = uuid.New()
	n.SequenceCode = models.CategorySequenceCode(n.Level, s.nextSeq(n.TenantID, models.CategorySequenceScope(n.Level)))
	s.categories[key] = &n
	s.categoriesByID[n.ID] = &n
	return &n, true, nil
}

func (s *memStore) SetCategoryParent(tenantID string, categoryID, parentID uuid.UUID) error {
	node := s.categoriesByID[categoryID]
	if node == nil {
		return catalog.ErrNotFound
	}
	if node.ParentID != nil {
		if *node.ParentID == parentID {
			return nil
		}
		return catalog.ErrParentAlreadySet
	}
	id := parentID
	node.ParentID = &id
	return nil
}

func (s *memStore) GetBrandByName(tenantID, name string) (*models.Brand, error) {
	s.lookupCount++
	return s.brands[tenantID+"|"+strings.ToLower(name)], nil
}

func (s *memStore) CreateBrand(brand *models.Brand) (*models.Brand, bool, error) {
	key := brand.TenantID + "|" + strings.ToLower(brand.Name)
	if existing, ok := s.brands[key]; ok {
		return existing, false, nil
	}
	b := *brand
	b.ID = uuid.New()
	b.SequenceCode = models.BrandSequenceCode(s.nextSeq(b.TenantID, models.BrandSequenceScope))
	s.brands[key] = &b
	return &b, true, nil
}

func (s *memStore) GetTypeNameByName(name string) (*models.TypeName, error) {
	s.lookupCount++
	return s.typeNames[strings.ToLower(name)], nil
}

func (s *memStore) CreateTypeName(name string) (*models.TypeName, bool, error) {
	key := strings.ToLower(name)
	if existing, ok := s.typeNames[key]; ok {
		return existing, false, nil
	}
	tn := &models.TypeName{ID: uuid.New(), Name: name}
	s.typeNames[key] = tn
	return tn, true, nil
}

func (s *memStore) GetTypeValueByName(name string) (*models.TypeValue, error) {
	s.lookupCount++
	return s.typeValues[strings.ToLower(name)], nil
}

func (s *memStore) CreateTypeValue(name string) (*models.TypeValue, bool, error) {
	key := strings.ToLower(name)
	if existing, ok := s.typeValues[key]; ok {
		return existing, false, nil
	}
	tv := &models.TypeValue{ID: uuid.New(), Name: name}
	s.typeValues[key] = tv
	return tv, true, nil
}

func setKey(tenantID string, nameID, categoryID uuid.UUID) string {
	return tenantID + "|" + nameID.String() + "|" + categoryID.String()
}

func (s *memStore) GetOptionSet(tenantID string, optionNameID, categoryID uuid.UUID) (*models.VariantOptionSet, error) {
	return s.optionSets[setKey(tenantID, optionNameID, categoryID)], nil
}

func (s *memStore) CreateOptionSet(set *models.VariantOptionSet) (*models.VariantOptionSet, bool, error) {
	key := setKey(set.TenantID, set.OptionNameID, set.CategoryID)
	if existing, ok := s.optionSets[key]; ok {
		return existing, false, nil
	}
	v := *set
	v.ID = uuid.New()
	s.optionSets[key] = &v
	return &v, true, nil
}

func (s *memStore) AddOptionSetValue(setID, valueID uuid.UUID) (bool, error) {
	for _, set := range s.optionSets {
		if set.ID == setID {
			if set.AllowedValueIDs.Contains(valueID.String()) {
				return false, nil
			}
			set.AllowedValueIDs = append(set.AllowedValueIDs, valueID.String())
			return true, nil
		}
	}
	return false, catalog.ErrNotFound
}

func (s *memStore) GetTaxonomyByCategory(tenantID string, categoryID uuid.UUID) (*models.CategoryTaxonomy, error) {
	return s.taxonomies[tenantID+"|"+categoryID.String()], nil
}

func (s *memStore) CreateTaxonomy(taxonomy *models.CategoryTaxonomy) (*models.CategoryTaxonomy, bool, error) {
	key := taxonomy.TenantID + "|" + taxonomy.CategoryID.String()
	if existing, ok := s.taxonomies[key]; ok {
		return existing, false, nil
	}
	t := *taxonomy
	t.ID = uuid.New()
	s.taxonomies[key] = &t
	s.taxonomiesByID[t.ID] = &t
	return &t, true, nil
}

func (s *memStore) AttachTaxonomySet(taxonomyID, setID uuid.UUID) (bool, error) {
	taxonomy := s.taxonomiesByID[taxonomyID]
	if taxonomy == nil {
		return false, catalog.ErrNotFound
	}
	if taxonomy.OptionSetIDs.Contains(setID.String()) {
		return false, nil
	}
	taxonomy.OptionSetIDs = append(taxonomy.OptionSetIDs, setID.String())
	return true, nil
}

func (s *memStore) GetOptionPair(optionNameID, optionValueID uuid.UUID) (*models.ProductVariantOption, error) {
	return s.pairs[optionNameID.String()+"|"+optionValueID.String()], nil
}

func (s *memStore) GetOptionPairByID(id uuid.UUID) (*models.ProductVariantOption, error) {
	return s.pairsByID[id], nil
}

func (s *memStore) CreateOptionPair(pair *models.ProductVariantOption) (*models.ProductVariantOption, bool, error) {
	key := pair.OptionNameID.String() + "|" + pair.OptionValueID.String()
	if existing, ok := s.pairs[key]; ok {
		return existing, false, nil
	}
	p := *pair
	p.ID = uuid.New()
	s.pairs[key] = &p
	s.pairsByID[p.ID] = &p
	return &p, true, nil
}

func (s *memStore) GetProductByModel(tenantID, model string) (*models.Product, error) {
	s.lookupCount++
	return s.products[tenantID+"|"+strings.ToLower(model)], nil
}

func (s *memStore) GetProductByID(tenantID string, id uuid.UUID) (*models.Product, error) {
	product := s.productsByID[id]
	if product == nil || product.TenantID != tenantID {
		return nil, nil
	}
	return product, nil
}

func (s *memStore) CreateProduct(product *models.Product) (*models.Product, bool, error) {
	if s.productErr != nil {
		return nil, false, s.productErr
	}
	key := product.TenantID + "|" + strings.ToLower(product.Model)
	if existing, ok := s.products[key]; ok {
		return existing, false, nil
	}
	p := *product
	p.ID = uuid.New()
	s.products[key] = &p
	s.productsByID[p.ID] = &p
	return &p, true, nil
}

func (s *memStore) UpdateProduct(product *models.Product) error {
	s.products[product.TenantID+"|"+strings.ToLower(product.Model)] = product
	s.productsByID[product.ID] = product
	return nil
}

func (s *memStore) GetVariantBySKU(tenantID, sku string) (*models.ProductVariant, error) {
	s.lookupCount++
	return s.variants[tenantID+"|"+strings.ToLower(sku)], nil
}

func (s *memStore) GetVariantByID(tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	for _, v := range s.variants {
		if v.TenantID == tenantID && v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateVariant(variant *models.ProductVariant) (*models.ProductVariant, bool, error) {
	key := variant.TenantID + "|" + strings.ToLower(variant.SKU)
	if existing, ok := s.variants[key]; ok {
		return existing, false, nil
	}
	v := *variant
	v.ID = uuid.New()
	s.variants[key] = &v
	return &v, true, nil
}

func (s *memStore) UpdateVariant(variant *models.ProductVariant) error {
	s.variants[variant.TenantID+"|"+strings.ToLower(variant.SKU)] = variant
	return nil
}

func (s *memStore) ListVariantsByProduct(tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	for _, v := range s.variants {
		if v.TenantID == tenantID && v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *memStore) GetAssignmentByProduct(tenantID string, productID uuid.UUID) (*models.CategoryAssignment, error) {
	assignment := s.assignments[productID]
	if assignment == nil || assignment.TenantID != tenantID {
		return nil, nil
	}
	return assignment, nil
}

func (s *memStore) CreateAssignment(assignment *models.CategoryAssignment) (*models.CategoryAssignment, bool, error) {
	if existing, ok := s.assignments[assignment.ProductID]; ok {
		return existing, false, nil
	}
	a := *assignment
	a.ID = uuid.New()
	s.assignments[a.ProductID] = &a
	return &a, true, nil
}

func (s *memStore) UpdateAssignment(assignment *models.CategoryAssignment) error {
	s.assignments[assignment.ProductID] = assignment
	return nil
}

func (s *memStore) ListCategories(tenantID string) ([]models.CategoryNode, error) {
	var out []models.CategoryNode
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) ListBrands(tenantID string) ([]models.Brand, error) {
	var out []models.Brand
	for _, b := range s.brands {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) ListTypeNames() ([]models.TypeName, error) {
	var out []models.TypeName
	for _, tn := range s.typeNames {
		out = append(out, *tn)
	}
	return out, nil
}

func (s *memStore) ListTypeValues() ([]models.TypeValue, error) {
	var out []models.TypeValue
	for _, tv := range s.typeValues {
		out = append(out, *tv)
	}
	return out, nil
}

func (s *memStore) ListProducts(tenantID string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memStore) ListVariants(tenantID string) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	for _, v := range s.variants {
		if v.TenantID == tenantID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *memStore) GetImportMapping(tenantID, userID, vendorID string) (*models.ImportMapping, error) {
	return s.mappings[tenantID+"|"+userID+"|"+vendorID], nil
}

func (s *memStore) SaveImportMapping(mapping *models.ImportMapping) error {
	s.mappings[mapping.TenantID+"|"+mapping.UserID+"|"+mapping.VendorID] = mapping
	return nil
}

// nopAudit satisfies the writer interface; the pipeline tests assert on
// store state, not log contents.
type nopAudit struct{}

var _ audit.Writer = nopAudit{}

func (nopAudit) Category(string, string, uuid.UUID, models.LogAction, models.JSON) error {
	return nil
}

func (nopAudit) Product(string, string, uuid.UUID, models.LogAction, models.JSON) error {
	return nil
}

func (nopAudit) Variant(string, string, uuid.UUID, models.LogAction, models.JSON) error {
	return nil
}

func (nopAudit) Taxonomy(string, string, uuid.UUID, models.LogAction, models.JSON) error {
	return nil
}

func (nopAudit) PriceChange(string, string, uuid.UUID, string, string) error {
	return nil
}

// flatPricer prices retail at finished x 1.
type flatPricer struct{}

func (flatPricer) RetailPrice(tenantID string, brandID, categoryID *uuid.UUID, finishedPrice, unfinishedPrice string) (string, error) {
	trimmed := strings.TrimSpace(finishedPrice)
	if trimmed == "" {
		return "0", nil
	}
	return trimmed, nil
}
