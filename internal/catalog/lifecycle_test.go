package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

func cloneFixture(t *testing.T) (*Upserter, *memStore, *recordingAudit, *models.Product) {
	t.Helper()
	upserter, store, auditor, _ := newTestUpserter()
	path := resolveTestPath(t, store, "Furniture", "Seating")
	product, _, err := upserter.UpsertProduct(testTenant, testUser, "WM-2041", testProductFields("Walnut Chair", "Acme"), path, nil)
	require.NoError(t, err)
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-WAL", models.VariantFields{FinishedPrice: "100"}, nil, nil)
	require.NoError(t, err)
	_, err = upserter.UpsertVariant(testTenant, testUser, product, "WM-2041-OAK", models.VariantFields{FinishedPrice: "120"}, nil, nil)
	require.NoError(t, err)
	return upserter, store, auditor, product
}

func TestCloneProduct_CopiesFilingAndVariants(t *testing.T) {
	upserter, store, auditor, product := cloneFixture(t)

	clone, err := upserter.CloneProduct(testTenant, testUser, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "WM-2041 (Copy)", clone.Model)
	assert.Equal(t, "Walnut Chair (Copy)", clone.ProductName)
	assert.Equal(t, product.BrandID, clone.BrandID)
	assert.NotEqual(t, product.ID, clone.ID)

	sourceAssignment, err := store.GetAssignmentByProduct(testTenant, product.ID)
	require.NoError(t, err)
	cloneAssignment, err := store.GetAssignmentByProduct(testTenant, clone.ID)
	require.NoError(t, err)
	require.NotNil(t, cloneAssignment)
	assert.Equal(t, sourceAssignment.CategoryID, cloneAssignment.CategoryID)
	assert.Equal(t, sourceAssignment.CategoryLevel, cloneAssignment.CategoryLevel)

	variants, err := store.ListVariantsByProduct(testTenant, clone.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	skus := []string{variants[0].SKU, variants[1].SKU}
	assert.ElementsMatch(t, []string{"WM-2041-WAL (Copy)", "WM-2041-OAK (Copy)"}, skus)
	for _, v := range variants {
		assert.Equal(t, clone.ID, v.ProductID)
	}

	productEntries := auditor.byFamily("product")
	last := productEntries[len(productEntries)-1]
	assert.Equal(t, models.LogActionCloned, last.action)
	assert.Equal(t, product.ID.String(), last.data["sourceId"])

	cloned := 0
	for _, e := range auditor.byFamily("variant") {
		if e.action == models.LogActionCloned {
			cloned++
		}
	}
	assert.Equal(t, 2, cloned)
}

func TestCloneProduct_PreservesVariantPrices(t *testing.T) {
	upserter, store, _, product := cloneFixture(t)

	clone, err := upserter.CloneProduct(testTenant, testUser, product.ID)
	require.NoError(t, err)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL (Copy)")
	require.NoError(t, err)
	require.NotNil(t, variant)
	assert.Equal(t, clone.ID, variant.ProductID)
	assert.Equal(t, "100", variant.FinishedPrice)
	assert.Equal(t, "100", variant.RetailPrice)
	assert.True(t, variant.IsActive)
}

func TestCloneProduct_SecondCloneGetsNumberedSuffix(t *testing.T) {
	upserter, store, _, product := cloneFixture(t)

	first, err := upserter.CloneProduct(testTenant, testUser, product.ID)
	require.NoError(t, err)
	second, err := upserter.CloneProduct(testTenant, testUser, product.ID)
	require.NoError(t, err)

	assert.Equal(t, "WM-2041 (Copy)", first.Model)
	assert.Equal(t, "WM-2041 (Copy 2)", second.Model)
	assert.Equal(t, "Walnut Chair (Copy 2)", second.ProductName)

	variant, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL (Copy 2)")
	require.NoError(t, err)
	require.NotNil(t, variant)
	assert.Equal(t, second.ID, variant.ProductID)
}

func TestCloneProduct_UnknownIDFails(t *testing.T) {
	upserter, _, _, _ := newTestUpserter()

	_, err := upserter.CloneProduct(testTenant, testUser, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloneVariant_DuplicatesOneSKU(t *testing.T) {
	upserter, store, auditor, product := cloneFixture(t)
	source, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)

	clone, err := upserter.CloneVariant(testTenant, testUser, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "WM-2041-WAL (Copy)", clone.SKU)
	assert.Equal(t, product.ID, clone.ProductID)
	assert.Equal(t, source.FinishedPrice, clone.FinishedPrice)
	assert.Equal(t, source.RetailPrice, clone.RetailPrice)

	second, err := upserter.CloneVariant(testTenant, testUser, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "WM-2041-WAL (Copy 2)", second.SKU)

	entries := auditor.byFamily("variant")
	last := entries[len(entries)-1]
	assert.Equal(t, models.LogActionCloned, last.action)
	assert.Equal(t, "WM-2041-WAL", last.data["sourceSku"])
}

func TestCloneVariant_UnknownIDFails(t *testing.T) {
	upserter, _, _, _ := newTestUpserter()

	_, err := upserter.CloneVariant(testTenant, testUser, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetProductActive_CascadesToVariants(t *testing.T) {
	upserter, store, auditor, product := cloneFixture(t)

	require.NoError(t, upserter.SetProductActive(testTenant, testUser, product.ID, false))

	updated, err := store.GetProductByID(testTenant, product.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	variants, err := store.ListVariantsByProduct(testTenant, product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	for _, v := range variants {
		assert.False(t, v.IsActive)
	}

	entries := auditor.byFamily("product")
	last := entries[len(entries)-1]
	assert.Equal(t, models.LogActionUpdated, last.action)
	require.Contains(t, last.data, "isActive")
}

func TestSetProductActive_ReactivationCascadesBack(t *testing.T) {
	upserter, store, _, product := cloneFixture(t)
	require.NoError(t, upserter.SetProductActive(testTenant, testUser, product.ID, false))

	require.NoError(t, upserter.SetProductActive(testTenant, testUser, product.ID, true))

	variants, err := store.ListVariantsByProduct(testTenant, product.ID)
	require.NoError(t, err)
	for _, v := range variants {
		assert.True(t, v.IsActive)
	}
}

func TestSetVariantActive_LeavesProductAlone(t *testing.T) {
	upserter, store, auditor, product := cloneFixture(t)
	target, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)

	require.NoError(t, upserter.SetVariantActive(testTenant, testUser, target.ID, false))

	updated, err := store.GetVariantBySKU(testTenant, "WM-2041-WAL")
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	sibling, err := store.GetVariantBySKU(testTenant, "WM-2041-OAK")
	require.NoError(t, err)
	assert.True(t, sibling.IsActive)

	parent, err := store.GetProductByID(testTenant, product.ID)
	require.NoError(t, err)
	assert.True(t, parent.IsActive)

	entries := auditor.byFamily("variant")
	last := entries[len(entries)-1]
	assert.Equal(t, models.LogActionUpdated, last.action)
	require.Contains(t, last.data, "isActive")
}

func TestSetProductActive_UnknownIDFails(t *testing.T) {
	upserter, _, _, _ := newTestUpserter()

	err := upserter.SetProductActive(testTenant, testUser, uuid.New(), false)
	assert.ErrorIs(t, err, ErrNotFound)
}
