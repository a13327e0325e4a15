package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-service/internal/catalog"
	"catalog-service/internal/events"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type CatalogHandler struct {
	repo            *repository.CatalogRepository
	resolver        *catalog.Resolver
	upserter        *catalog.Upserter
	eventsPublisher *events.Publisher
}

func NewCatalogHandler(repo *repository.CatalogRepository, resolver *catalog.Resolver, upserter *catalog.Upserter, eventsPublisher *events.Publisher) *CatalogHandler {
	return &CatalogHandler{
		repo:            repo,
		resolver:        resolver,
		upserter:        upserter,
		eventsPublisher: eventsPublisher,
	}
}

// ResolveCategoryPath resolves a breadcrumb into category IDs
// @Summary Resolve category breadcrumb
// @Description Resolve a root-to-leaf breadcrumb into category IDs, creating missing nodes
// @Tags Catalog
// @Accept json
// @Produce json
// @Param breadcrumb body models.ResolveCategoryPathRequest true "Breadcrumb segments"
// @Success 200 {object} models.ResolvedPathResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/categories/resolve [post]
func (h *CatalogHandler) ResolveCategoryPath(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.ResolveCategoryPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	path, err := h.resolver.Resolve(tenantID, userID, req.Breadcrumb, nil)
	if err != nil {
		if err == catalog.ErrEmptyBreadcrumb {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "Breadcrumb has no non-blank segments",
					Field:   "breadcrumb",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "RESOLUTION_FAILED",
				Message: "Failed to resolve category path",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ResolvedPathResponse{Success: true, Data: path})
}

// GetCategories lists categories for the tenant
// @Summary Get categories
// @Description Get all categories for the tenant, optionally as a tree
// @Tags Catalog
// @Produce json
// @Param tree query bool false "Return nested tree instead of a flat list"
// @Success 200 {object} models.CategoryListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/categories [get]
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	categories, err := h.repo.ListCategories(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve categories",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	if c.DefaultQuery("tree", "false") == "true" {
		categories = buildCategoryTree(categories)
	}

	c.JSON(http.StatusOK, models.CategoryListResponse{Success: true, Data: categories})
}

// DeleteCategory deletes a category unless children or products reference it
// @Summary Delete category
// @Description Delete a category; rejected while child categories or product assignments reference it
// @Tags Catalog
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /catalog/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid category ID",
				Field:   "id",
			},
		})
		return
	}

	guard, err := h.repo.CategoryDeleteGuard(tenantID, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to check category references",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}
	if !guard.CanDelete {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": models.Error{
				Code:    "CATEGORY_IN_USE",
				Message: "Category still has children or assigned products",
			},
			"blockedBy": guard.BlockedEntities,
		})
		return
	}

	if err := h.repo.DeleteCategory(tenantID, categoryID); err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETION_FAILED",
				Message: "Failed to delete category",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Category deleted successfully"),
	})
}

// GetBrands lists brands for the tenant
// @Summary Get brands
// @Tags Catalog
// @Produce json
// @Success 200 {object} models.BrandListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/brands [get]
func (h *CatalogHandler) GetBrands(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	brands, err := h.repo.ListBrands(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve brands",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.BrandListResponse{Success: true, Data: brands})
}

// CreateBrand creates a brand, deduplicated case-insensitively by name
// @Summary Create brand
// @Tags Catalog
// @Accept json
// @Produce json
// @Param brand body models.CreateBrandRequest true "Brand data"
// @Success 201 {object} models.BrandResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/brands [post]
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	brand := &models.Brand{
		TenantID: tenantID,
		Name:     catalog.TitleCase(req.Name),
		Email:    req.Email,
		Mobile:   req.Mobile,
		Website:  req.Website,
		LogoURL:  req.LogoURL,
		IsActive: true,
	}

	brand, created, err := h.repo.CreateBrand(brand)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create brand",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	status := http.StatusCreated
	message := "Brand created successfully"
	if !created {
		status = http.StatusOK
		message = "Brand already exists"
	}

	c.JSON(status, models.BrandResponse{
		Success: true,
		Data:    brand,
		Message: stringPtr(message),
	})
}

// DeleteBrand deletes a brand unless products reference it
// @Summary Delete brand
// @Tags Catalog
// @Produce json
// @Param id path string true "Brand ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /catalog/brands/{id} [delete]
func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid brand ID",
				Field:   "id",
			},
		})
		return
	}

	guard, err := h.repo.BrandDeleteGuard(tenantID, brandID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to check brand references",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}
	if !guard.CanDelete {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": models.Error{
				Code:    "BRAND_IN_USE",
				Message: "Brand still has products",
			},
			"blockedBy": guard.BlockedEntities,
		})
		return
	}

	if err := h.repo.DeleteBrand(tenantID, brandID); err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Brand not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETION_FAILED",
				Message: "Failed to delete brand",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Brand deleted successfully"),
	})
}

// UpsertProduct creates or updates a product by its model number
// @Summary Upsert product
// @Description Create or update a product keyed by (model, tenant); descriptive fields are replaced wholesale
// @Tags Catalog
// @Accept json
// @Produce json
// @Param product body models.UpsertProductRequest true "Product data"
// @Success 200 {object} models.UpsertResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/products/upsert [post]
func (h *CatalogHandler) UpsertProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	path, err := h.resolver.Resolve(tenantID, userID, req.Breadcrumb, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "RESOLUTION_FAILED",
				Message: "Failed to resolve category path",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	product, result, err := h.upserter.UpsertProduct(tenantID, userID, req.Model, req.Fields, path, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPSERT_FAILED",
				Message: "Failed to upsert product",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		if result.Created {
			_ = h.eventsPublisher.PublishProductCreated(c.Request.Context(), product, userID)
		} else {
			_ = h.eventsPublisher.PublishProductUpdated(c.Request.Context(), product, result.Diff, userID)
		}
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, models.UpsertResponse{Success: true, Data: result})
}

// UpsertVariant creates or updates a variant by SKU
// @Summary Upsert variant
// @Description Create or update a variant keyed by (sku, tenant); registers option pairs into the category taxonomy
// @Tags Catalog
// @Accept json
// @Produce json
// @Param variant body models.UpsertVariantRequest true "Variant data"
// @Success 200 {object} models.UpsertResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/variants/upsert [post]
func (h *CatalogHandler) UpsertVariant(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.UpsertVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(tenantID, req.ProductID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load product",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
				Field:   "productId",
			},
		})
		return
	}

	result, err := h.upserter.UpsertVariant(tenantID, userID, product, req.SKU, req.Fields, req.OptionPairs, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPSERT_FAILED",
				Message: "Failed to upsert variant",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, models.UpsertResponse{Success: true, Data: result})
}

// ReassignCategory re-files a product under another category
// @Summary Reassign product category
// @Description Move a product's single category assignment; taxonomy references are duplicated under the new category, never moved
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param assignment body models.ReassignCategoryRequest true "Target category"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/products/{id}/category [put]
func (h *CatalogHandler) ReassignCategory(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid product ID",
				Field:   "id",
			},
		})
		return
	}

	var req models.ReassignCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.upserter.ReassignCategory(tenantID, userID, productID, req.CategoryID, req.CategoryLevel); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to reassign category",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Product reassigned successfully"),
	})
}

// CloneProduct duplicates a product with its filing and variants
// @Summary Clone product
// @Description Duplicate a product, its category assignment and every variant; the copies carry a " (Copy N)" suffix on model, name and SKUs
// @Tags Catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 201 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/products/{id}/clone [post]
func (h *CatalogHandler) CloneProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid product ID",
				Field:   "id",
			},
		})
		return
	}

	clone, err := h.upserter.CloneProduct(tenantID, userID, productID)
	if err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CLONE_FAILED",
				Message: "Failed to clone product",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: clone})
}

// CloneVariant duplicates a single variant within its product
// @Summary Clone variant
// @Description Duplicate one variant; the copy's SKU carries a " (Copy N)" suffix
// @Tags Catalog
// @Produce json
// @Param id path string true "Variant ID"
// @Success 201 {object} models.VariantResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/variants/{id}/clone [post]
func (h *CatalogHandler) CloneVariant(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid variant ID",
				Field:   "id",
			},
		})
		return
	}

	clone, err := h.upserter.CloneVariant(tenantID, userID, variantID)
	if err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Variant not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CLONE_FAILED",
				Message: "Failed to clone variant",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.VariantResponse{Success: true, Data: clone})
}

// SetProductActive toggles a product and cascades to its variants
// @Summary Activate or deactivate product
// @Description Flip a product's active flag; the same status is cascaded onto every variant of the product
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param status body models.SetActiveRequest true "Target status"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/products/{id}/active [put]
func (h *CatalogHandler) SetProductActive(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid product ID",
				Field:   "id",
			},
		})
		return
	}

	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.upserter.SetProductActive(tenantID, userID, productID, *req.IsActive); err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update product status",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Product status updated successfully"),
	})
}

// SetVariantActive toggles a single variant
// @Summary Activate or deactivate variant
// @Description Flip one variant's active flag; the parent product is untouched
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Variant ID"
// @Param status body models.SetActiveRequest true "Target status"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/variants/{id}/active [put]
func (h *CatalogHandler) SetVariantActive(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid variant ID",
				Field:   "id",
			},
		})
		return
	}

	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.upserter.SetVariantActive(tenantID, userID, variantID, *req.IsActive); err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Variant not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update variant status",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Variant status updated successfully"),
	})
}

// GetProducts lists products for the tenant with pagination
// @Summary Get products
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /catalog/products [get]
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	products, err := h.repo.ListProducts(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	total := int64(len(products))
	start := (page - 1) * limit
	if start > len(products) {
		start = len(products)
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products[start:end],
		"pagination": models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProductVariants lists a product's variants
// @Summary Get product variants
// @Tags Catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/products/{id}/variants [get]
func (h *CatalogHandler) GetProductVariants(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid product ID",
				Field:   "id",
			},
		})
		return
	}

	variants, err := h.repo.ListVariantsByProduct(tenantID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve variants",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": variants})
}

// buildCategoryTree nests a flat category list by ParentID. Levels are
// attached deepest-first so subtrees are complete before they are
// copied into their parent. Roots are nodes whose parent is unset or
// absent from the list.
func buildCategoryTree(flat []models.CategoryNode) []models.CategoryNode {
	byID := make(map[uuid.UUID]*models.CategoryNode, len(flat))
	for i := range flat {
		flat[i].Children = nil
		byID[flat[i].ID] = &flat[i]
	}

	var roots []models.CategoryNode
	for level := models.MaxCategoryDepth; level >= 1; level-- {
		for i := range flat {
			node := &flat[i]
			if node.Level != level {
				continue
			}
			if node.ParentID != nil {
				if parent, ok := byID[*node.ParentID]; ok {
					parent.Children = append(parent.Children, *node)
					continue
				}
			}
			roots = append(roots, *node)
		}
	}
	return roots
}

func stringPtr(s string) *string {
	return &s
}
