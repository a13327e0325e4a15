package catalog

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// BatchCache memoizes natural-key lookups for the duration of one
// ingestion run, so store round-trips stay O(1) amortized per new
// entity instead of O(rows). Safe for concurrent use although runs are
// single-threaded today.
type BatchCache struct {
	mu         sync.RWMutex
	seeded     bool
	categories map[int]map[string]uuid.UUID
	brands     map[string]uuid.UUID
	typeNames  map[string]uuid.UUID
	typeValues map[string]uuid.UUID
	products   map[string]uuid.UUID
	variants   map[string]uuid.UUID
}

func NewBatchCache() *BatchCache {
	c := &BatchCache{
		categories: make(map[int]map[string]uuid.UUID),
		brands:     make(map[string]uuid.UUID),
		typeNames:  make(map[string]uuid.UUID),
		typeValues: make(map[string]uuid.UUID),
		products:   make(map[string]uuid.UUID),
		variants:   make(map[string]uuid.UUID),
	}
	for level := 1; level <= models.MaxCategoryDepth; level++ {
		c.categories[level] = make(map[string]uuid.UUID)
	}
	return c
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MarkSeeded flags the cache as fully loaded from the store, making a
// miss authoritative: readers may treat it as "absent" without a store
// round-trip.
func (c *BatchCache) MarkSeeded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeded = true
}

func (c *BatchCache) Seeded() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seeded
}

func (c *BatchCache) Category(level int, name string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.categories[level][cacheKey(name)]
	return id, ok
}

func (c *BatchCache) SetCategory(level int, name string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[level][cacheKey(name)] = id
}

func (c *BatchCache) Brand(name string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.brands[cacheKey(name)]
	return id, ok
}

func (c *BatchCache) SetBrand(name string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brands[cacheKey(name)] = id
}

func (c *BatchCache) TypeName(name string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.typeNames[cacheKey(name)]
	return id, ok
}

func (c *BatchCache) SetTypeName(name string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typeNames[cacheKey(name)] = id
}

func (c *BatchCache) TypeValue(name string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.typeValues[cacheKey(name)]
	return id, ok
}

func (c *BatchCache) SetTypeValue(name string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typeValues[cacheKey(name)] = id
}

func (c *BatchCache) Product(model string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.products[cacheKey(model)]
	return id, ok
}

func (c *BatchCache) SetProduct(model string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[cacheKey(model)] = id
}

func (c *BatchCache) Variant(sku string) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.variants[cacheKey(sku)]
	return id, ok
}

func (c *BatchCache) SetVariant(sku string, id uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[cacheKey(sku)] = id
}
