package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalog-service/internal/audit"
	"catalog-service/internal/models"
)

const (
	testTenant = "tenant-a"
	testUser   = "user-1"
)

// memStore is an in-memory Store for the package tests. It mirrors the
// repository contract: lookups return (nil, nil) on a miss, creates
// resolve natural-key conflicts by returning the existing row with
// created=false, and sequence codes come from per-(tenant, scope)
// counters.
type memStore struct {
	categories     map[string]*models.CategoryNode
	categoriesByID map[uuid.UUID]*models.CategoryNode
	brands         map[string]*models.Brand
	typeNames      map[string]*models.TypeName
	typeValues     map[string]*models.TypeValue
	optionSets     map[string]*models.VariantOptionSet
	optionSetsByID map[uuid.UUID]*models.VariantOptionSet
	taxonomies     map[string]*models.CategoryTaxonomy
	taxonomiesByID map[uuid.UUID]*models.CategoryTaxonomy
	pairs          map[string]*models.ProductVariantOption
	pairsByID      map[uuid.UUID]*models.ProductVariantOption
	products       map[string]*models.Product
	productsByID   map[uuid.UUID]*models.Product
	variants       map[string]*models.ProductVariant
	assignments    map[uuid.UUID]*models.CategoryAssignment
	counters       map[string]int64

	categoryLookups int
	brandLookups    int
	variantLookups  int
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		categories:     map[string]*models.CategoryNode{},
		categoriesByID: map[uuid.UUID]*models.CategoryNode{},
		brands:         map[string]*models.Brand{},
		typeNames:      map[string]*models.TypeName{},
		typeValues:     map[string]*models.TypeValue{},
		optionSets:     map[string]*models.VariantOptionSet{},
		optionSetsByID: map[uuid.UUID]*models.VariantOptionSet{},
		taxonomies:     map[string]*models.CategoryTaxonomy{},
		taxonomiesByID: map[uuid.UUID]*models.CategoryTaxonomy{},
		pairs:          map[string]*models.ProductVariantOption{},
		pairsByID:      map[uuid.UUID]*models.ProductVariantOption{},
		products:       map[string]*models.Product{},
		productsByID:   map[uuid.UUID]*models.Product{},
		variants:       map[string]*models.ProductVariant{},
		assignments:    map[uuid.UUID]*models.CategoryAssignment{},
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
	s.categoryLookups++
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
	if node == nil || node.TenantID != tenantID {
		return ErrNotFound
	}
	if node.ParentID != nil {
		if *node.ParentID == parentID {
			return nil
		}
		return ErrParentAlreadySet
	}
	id := parentID
	node.ParentID = &id
	return nil
}

func (s *memStore) GetBrandByName(tenantID, name string) (*models.Brand, error) {
	s.brandLookups++
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
	s.optionSetsByID[v.ID] = &v
	return &v, true, nil
}

func (s *memStore) AddOptionSetValue(setID, valueID uuid.UUID) (bool, error) {
	set := s.optionSetsByID[setID]
	if set == nil {
		return false, ErrNotFound
	}
	if set.AllowedValueIDs.Contains(valueID.String()) {
		return false, nil
	}
	set.AllowedValueIDs = append(set.AllowedValueIDs, valueID.String())
	return true, nil
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
		return false, ErrNotFound
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
	if s.productsByID[product.ID] == nil {
		return ErrNotFound
	}
	s.products[product.TenantID+"|"+strings.ToLower(product.Model)] = product
	s.productsByID[product.ID] = product
	return nil
}

func (s *memStore) GetVariantBySKU(tenantID, sku string) (*models.ProductVariant, error) {
	s.variantLookups++
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
	key := variant.TenantID + "|" + strings.ToLower(variant.SKU)
	if s.variants[key] == nil {
		return ErrNotFound
	}
	s.variants[key] = variant
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
	if s.assignments[assignment.ProductID] == nil {
		return ErrNotFound
	}
	s.assignments[assignment.ProductID] = assignment
	return nil
}

// recordingAudit captures audit writes so tests can assert on exactly
// which entries an operation produced.
type auditEntry struct {
	family   string
	entityID uuid.UUID
	action   models.LogAction
	data     models.JSON
}

type priceLogEntry struct {
	variantID uuid.UUID
	oldRetail string
	newRetail string
}

type recordingAudit struct {
	entries   []auditEntry
	priceLogs []priceLogEntry
}

var _ audit.Writer = (*recordingAudit)(nil)

func (a *recordingAudit) record(family string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	a.entries = append(a.entries, auditEntry{family: family, entityID: entityID, action: action, data: data})
	return nil
}

func (a *recordingAudit) Category(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	return a.record("category", entityID, action, data)
}

func (a *recordingAudit) Product(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	return a.record("product", entityID, action, data)
}

func (a *recordingAudit) Variant(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	return a.record("variant", entityID, action, data)
}

func (a *recordingAudit) Taxonomy(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	return a.record("taxonomy", entityID, action, data)
}

func (a *recordingAudit) PriceChange(tenantID, userID string, variantID uuid.UUID, oldRetail, newRetail string) error {
	a.priceLogs = append(a.priceLogs, priceLogEntry{variantID: variantID, oldRetail: oldRetail, newRetail: newRetail})
	return nil
}

func (a *recordingAudit) byFamily(family string) []auditEntry {
	var out []auditEntry
	for _, e := range a.entries {
		if e.family == family {
			out = append(out, e)
		}
	}
	return out
}
