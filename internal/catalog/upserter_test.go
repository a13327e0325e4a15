package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

// stubPricer multiplies the finished price by a settable factor, enough
// to exercise retail derivation without the rule engine.
type stubPricer struct {
	multiplier decimal.Decimal
}

func (p *stubPricer) RetailPrice(tenantID string, brandID, categoryID *uuid.UUID, finishedPrice, unfinishedPrice string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(finishedPrice))
	if err != nil {
		d = decimal.Zero
	}
	return d.Mul(p.multiplier).String(), nil
}

func newTestUpserter() (*Upserter, *memStore, *recordingAudit, *stubPricer) {
	store := newMemStore()
	auditor := &recordingAudit{}
	pricer := &stubPricer{multiplier: decimal.NewFromInt(1)}
	upserter := NewUpserter(store, NewRegistrar(store, auditor), pricer, auditor)
	return upserter, store, auditor, pricer
}

func resolveTestPath(t *testing.T, store *memStore, breadcrumb ...string) *models.ResolvedPath {
	t.Helper()
	path, err := NewResolver(store, &recordingAudit{}).Resolve(testTenant, testUser, breadcrumb, nil)
	require.NoError(t, err)
	return path
}

func testProductFields(name, brand string) models.ProductFields {
	long := "Solid walnut frame with hand-rubbed finish"
	return models.ProductFields{
		ProductName:     name,
		BrandName:       brand,
		LongDescription: &long,
	}
}

func TestUpsertProduct_CreatesAndFiles(t *testing.T) {
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture", "Seating")

	product, result, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("walnut dining chair", "acme woodworks"), path, nil)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, product.ID, result.ID)
	assert.Equal(t, "Walnut Dining Chair", product.ProductName)
	require.NotNil(t, product.BrandID)

	brand, err := store.GetBrandByName(testTenant, "Acme Woodworks")
	require.NoError(t, err)
	require.NotNil(t, brand)
	assert.Equal(t, *product.BrandID, brand.ID)
	assert.Equal(t, "BR-1", brand.SequenceCode)

	assignment, err := store.GetAssignmentByProduct(testTenant, product.ID)
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, path.LeafID, assignment.CategoryID.String())
	assert.Equal(t, 2, assignment.CategoryLevel)

	entries := auditor.byFamily("product")
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogActionCreated, entries[0].action)
}

func TestUpsertProduct_SecondIdenticalUpsertIsStable(t *testing.T) {
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture", "Seating")
	fields := testProductFields("Walnut Dining Chair", "Acme Woodworks")

	first, _, err1 := upserter.UpsertProduct(testTenant, testUser, "WM-2041", fields, path, nil)
	require.NoError(t, err1)
	second, result, err2 := upserter.UpsertProduct(testTenant, testUser, "WM-2041", fields, path, nil)
	require.NoError(t, err2)

	assert.False(t, result.Created)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, result.Diff)
	assert.Len(t, store.products, 1)

	// The second pass still leaves an "updated" trace even though
	// nothing changed.
	entries := auditor.byFamily("product")
	require.Len(t, entries, 2)
	assert.Equal(t, models.LogActionCreated, entries[0].action)
	assert.Equal(t, models.LogActionUpdated, entries[1].action)
	assert.Empty(t, entries[1].data)
}

func TestUpsertProduct_DiffTracksChangedFields(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture")

	_, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)

	updated := testProductFields("Walnut Armchair", "Acme")
	tags := "chair,walnut"
	updated.Tags = &tags
	product, result, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", updated, path, nil)
	require.NoError(t, err)

	assert.False(t, result.Created)
	require.Contains(t, result.Diff, "productName")
	require.Contains(t, result.Diff, "tags")
	assert.NotContains(t, result.Diff, "longDescription")
	assert.Equal(t, "Walnut Armchair", product.ProductName)
	require.NotNil(t, product.Tags)
	assert.Equal(t, tags, *product.Tags)
}

func TestUpsertVariant_CreateDerivesRetailAndLogs(t *testing.T) {
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture", "Seating")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)

	result, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{
		FinishedPrice: "249.5",
		Quantity:      "12",
	}, []models.OptionPair{{Name: "Finish", Value: "Walnut"}}, nil)
	require.NoError(t, err)
	assert.True(t, result.Created)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	require.NotNil(t, variant)
	assert.Equal(t, "249.5", variant.FinishedPrice)
	assert.Equal(t, "0", variant.UnfinishedPrice)
	assert.Equal(t, "12", variant.Quantity)
	assert.Equal(t, "249.5", variant.RetailPrice)
	assert.Len(t, variant.OptionPairIDs, 1)

	require.Len(t, auditor.priceLogs, 1)
	assert.Equal(t, "0", auditor.priceLogs[0].oldRetail)
	assert.Equal(t, "249.5", auditor.priceLogs[0].newRetail)

	entries := auditor.byFamily("variant")
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogActionCreated, entries[0].action)
}

func TestUpsertVariant_UpdateRecomputesRetail(t *testing.T) {
	upserter, store, auditor, pricer := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)

	fields := models.VariantFields{FinishedPrice: "100"}
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", fields, nil, nil)
	require.NoError(t, err)

	pricer.multiplier = decimal.RequireFromString("1.1")
	result, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", fields, nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Created)
	require.Contains(t, result.Diff, "retailPrice")
	assert.NotContains(t, result.Diff, "finishedPrice")

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	assert.Equal(t, "110", variant.RetailPrice)

	require.Len(t, auditor.priceLogs, 2)
	assert.Equal(t, "100", auditor.priceLogs[1].oldRetail)
	assert.Equal(t, "110", auditor.priceLogs[1].newRetail)
}

func TestUpsertVariant_BlankPricesDefaultToZero(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)

	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-RAW", models.VariantFields{}, nil, nil)
	require.NoError(t, err)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-RAW")
	require.NoError(t, err)
	assert.Equal(t, "0", variant.FinishedPrice)
	assert.Equal(t, "0", variant.UnfinishedPrice)
	assert.Equal(t, "0", variant.Quantity)
	assert.Equal(t, "0", variant.RetailPrice)
}

func TestUpsertVariant_WithoutAssignmentSkipsOptions(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), nil, nil)
	require.NoError(t, err)

	result, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{
		FinishedPrice: "100",
	}, []models.OptionPair{{Name: "Finish", Value: "Walnut"}}, nil)
	require.NoError(t, err)
	assert.True(t, result.Created)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	assert.Empty(t, variant.OptionPairIDs)
	assert.Empty(t, store.optionSets)
}

func TestUpsertVariant_AppendsNewPairsOnce(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)

	fields := models.VariantFields{FinishedPrice: "100"}
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", fields, []models.OptionPair{{Name: "Color", Value: "Red"}}, nil)
	require.NoError(t, err)
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", fields, []models.OptionPair{
		{Name: "Color", Value: "Red"},
		{Name: "Size", Value: "Large"},
	}, nil)
	require.NoError(t, err)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	assert.Len(t, variant.OptionPairIDs, 2)
}

func TestResolveBrand_TitleCasesAndDedupes(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()

	first, err := upserter.ResolveBrand(testTenant, "acme woodworks", nil)
	require.NoError(t, err)
	second, err := upserter.ResolveBrand(testTenant, "ACME WOODWORKS", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.brands, 1)
	brand, err := store.GetBrandByName(testTenant, "Acme Woodworks")
	require.NoError(t, err)
	require.NotNil(t, brand)
	assert.True(t, brand.IsActive)
}

func TestReassignCategory_MovesFilingAndDuplicatesOptions(t *testing.T) {
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture", "Seating")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{
		FinishedPrice: "100",
	}, []models.OptionPair{{Name: "Finish", Value: "Walnut"}}, nil)
	require.NoError(t, err)

	newPath := resolveTestPath(t, store, "Outdoor", "Patio", "Chairs")
	newCategoryID := uuid.MustParse(newPath.LeafID)
	require.NoError(t, upserter.ReassignCategory(testTenant, testUser, product.ID, newCategoryID, newPath.Level))

	assignment, err := store.GetAssignmentByProduct(testTenant, product.ID)
	require.NoError(t, err)
	assert.Equal(t, newCategoryID, assignment.CategoryID)
	assert.Equal(t, 3, assignment.CategoryLevel)

	name, err := store.GetTypeNameByName("Finish")
	require.NoError(t, err)
	oldSet, err := store.GetOptionSet(testTenant, name.ID, uuid.MustParse(path.LeafID))
	require.NoError(t, err)
	assert.NotNil(t, oldSet)
	newSet, err := store.GetOptionSet(testTenant, name.ID, newCategoryID)
	require.NoError(t, err)
	require.NotNil(t, newSet)
	assert.Equal(t, oldSet.AllowedValueIDs, newSet.AllowedValueIDs)

	entries := auditor.byFamily("product")
	last := entries[len(entries)-1]
	assert.Equal(t, models.LogActionUpdated, last.action)
	assert.Contains(t, last.data, "categoryId")
}

func TestReassignCategory_SameCategoryIsNoOp(t *testing.T) {
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)
	before := len(auditor.entries)

	require.NoError(t, upserter.ReassignCategory(testTenant, testUser, product.ID, uuid.MustParse(path.LeafID), path.Level))
	assert.Len(t, auditor.entries, before)
}

func TestReassignCategory_FilesUnfiledProduct(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), nil, nil)
	require.NoError(t, err)

	categoryID := uuid.New()
	require.NoError(t, upserter.ReassignCategory(testTenant, testUser, product.ID, categoryID, 2))

	assignment, err := store.GetAssignmentByProduct(testTenant, product.ID)
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, categoryID, assignment.CategoryID)
}

func TestUpsertVariant_SeededCacheHitUpdatesExisting(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), nil, nil)
	require.NoError(t, err)

	first, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{FinishedPrice: "100"}, nil, nil)
	require.NoError(t, err)

	cache := NewBatchCache()
	cache.SetVariant("WM-2041-WAL", first.ID)
	cache.MarkSeeded()
	store.variantLookups = 0

	result, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{FinishedPrice: "120"}, nil, cache)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, first.ID, result.ID)
	// A cache hit costs exactly one store read, same as the uncached path.
	assert.Equal(t, 1, store.variantLookups)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	assert.Equal(t, "120", variant.FinishedPrice)
}

func TestUpsertVariant_SeededCacheMissSkipsLookup(t *testing.T) {
	upserter, store, _, _ := newTestUpserter()
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), nil, nil)
	require.NoError(t, err)

	cache := NewBatchCache()
	cache.MarkSeeded()
	store.variantLookups = 0

	result, err := upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-NEW", models.VariantFields{FinishedPrice: "80"}, nil, cache)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Zero(t, store.variantLookups)
}
