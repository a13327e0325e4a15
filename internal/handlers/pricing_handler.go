package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-service/internal/clients"
	"catalog-service/internal/events"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/pricing"
	"catalog-service/internal/repository"
)

type PricingHandler struct {
	engine           *pricing.Engine
	repo             *repository.CatalogRepository
	accountingClient *clients.AccountingClient
	eventsPublisher  *events.Publisher
}

func NewPricingHandler(engine *pricing.Engine, repo *repository.CatalogRepository, eventsPublisher *events.Publisher) *PricingHandler {
	return &PricingHandler{
		engine:           engine,
		repo:             repo,
		accountingClient: clients.NewAccountingClient(),
		eventsPublisher:  eventsPublisher,
	}
}

// SetPriceRule activates one pricing rule per listed category
// @Summary Set price rule
// @Description Activate a brand/category retail multiplier; the previous active rule for each key is deactivated and every variant under the key is recomputed
// @Tags Pricing
// @Accept json
// @Produce json
// @Param rule body models.SetPriceRuleRequest true "Rule data"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /pricing/rules [put]
func (h *PricingHandler) SetPriceRule(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.SetPriceRuleRequest
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

	result, err := h.engine.SetRule(tenantID, userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "RULE_UPDATE_FAILED",
				Message: "Failed to set price rule",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	// Accounting is informed out of band; a failure there never fails the rule change
	go func() {
		for _, categoryID := range req.CategoryIDs {
			_ = h.accountingClient.NotifyPriceRuleChange(tenantID, userID, &clients.PriceRuleNotification{
				TenantID:         tenantID,
				BrandID:          req.BrandID.String(),
				CategoryID:       categoryID.String(),
				Price:            req.Price,
				PriceBasis:       string(req.PriceBasis),
				AffectedVariants: result.AffectedVariants,
				ChangedBy:        userID,
			})
		}
	}()

	if h.eventsPublisher != nil {
		for _, categoryID := range req.CategoryIDs {
			rule := &models.BrandCategoryPriceRule{
				TenantID:   tenantID,
				BrandID:    req.BrandID,
				CategoryID: categoryID,
				Price:      req.Price,
				PriceBasis: req.PriceBasis,
				IsActive:   true,
			}
			_ = h.eventsPublisher.PublishPriceRuleSet(c.Request.Context(), rule, result.AffectedVariants, userID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetPriceRules lists rules, active and historical
// @Summary Get price rules
// @Tags Pricing
// @Produce json
// @Param brandId query string false "Filter by brand"
// @Success 200 {object} models.PriceRuleListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /pricing/rules [get]
func (h *PricingHandler) GetPriceRules(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var brandID *uuid.UUID
	if raw := c.Query("brandId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "Invalid brand ID",
					Field:   "brandId",
				},
			})
			return
		}
		brandID = &parsed
	}

	rules, err := h.engine.ListRules(tenantID, brandID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve price rules",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.PriceRuleListResponse{Success: true, Data: rules})
}

// PreviewAdjustment stages a global option-based adjustment
// @Summary Preview global price adjustment
// @Description Compute the per-variant price changes an adjustment would make without persisting anything
// @Tags Pricing
// @Accept json
// @Produce json
// @Param adjustment body models.GlobalAdjustmentRequest true "Adjustment data"
// @Success 200 {object} models.AdjustmentPreview
// @Failure 400 {object} models.ErrorResponse
// @Router /pricing/adjustments/preview [post]
func (h *PricingHandler) PreviewAdjustment(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.GlobalAdjustmentRequest
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

	preview, err := h.engine.PreviewAdjustment(tenantID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PREVIEW_FAILED",
				Message: "Failed to preview adjustment",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": preview})
}

// ConfirmAdjustment applies a previewed adjustment
// @Summary Confirm global price adjustment
// @Description Persist a previously previewed adjustment and push an entry onto the revert stack
// @Tags Pricing
// @Accept json
// @Produce json
// @Param preview body models.AdjustmentPreview true "Preview to apply"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /pricing/adjustments/confirm [post]
func (h *PricingHandler) ConfirmAdjustment(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var preview models.AdjustmentPreview
	if err := c.ShouldBindJSON(&preview); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.engine.ConfirmAdjustment(tenantID, userID, &preview); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "ADJUSTMENT_FAILED",
				Message: "Failed to apply adjustment",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Adjustment applied successfully"),
	})
}

// RevertAdjustment undoes the latest adjustment for a key
// @Summary Revert global price adjustment
// @Description Pop the latest revert-stack entry for the key and restore the prices it changed
// @Tags Pricing
// @Accept json
// @Produce json
// @Param revert body models.RevertAdjustmentRequest true "Adjustment key"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /pricing/adjustments/revert [post]
func (h *PricingHandler) RevertAdjustment(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.RevertAdjustmentRequest
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

	reverted, err := h.engine.RevertAdjustment(tenantID, userID, req)
	if err != nil {
		if err == pricing.ErrNothingToRevert {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOTHING_TO_REVERT",
					Message: "No adjustment recorded for this key",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "REVERT_FAILED",
				Message: "Failed to revert adjustment",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"revertedVariants": reverted,
	})
}

// GetRuleRevertPreview reports the prices a rule revert would move between
// @Summary Preview rule revert
// @Description For each category of the key, report the active rule's price and the price a revert would restore ("0" when none)
// @Tags Pricing
// @Accept json
// @Produce json
// @Param key body models.RevertRuleRequest true "Rule key"
// @Success 200 {object} models.RulePriceWindowListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /pricing/rules/revert/preview [post]
func (h *PricingHandler) GetRuleRevertPreview(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.RevertRuleRequest
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

	windows, err := h.engine.RuleRevertPreview(tenantID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load rule history",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.RulePriceWindowListResponse{Success: true, Data: windows})
}

// RevertPriceRule rolls categories back to their previous rule
// @Summary Revert price rule
// @Description Deactivate the active rule for each (brand, category, basis) key and reactivate its predecessor, recomputing affected retail prices
// @Tags Pricing
// @Accept json
// @Produce json
// @Param revert body models.RevertRuleRequest true "Rule key"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /pricing/rules/revert [post]
func (h *PricingHandler) RevertPriceRule(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.RevertRuleRequest
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

	result, err := h.engine.RevertRule(tenantID, userID, req)
	if err != nil {
		if err == pricing.ErrNothingToRevert {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOTHING_TO_REVERT",
					Message: "No active rule recorded for this key",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "REVERT_FAILED",
				Message: "Failed to revert price rule",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetPriceChangeLogs lists retail-price mutations
// @Summary Get price change logs
// @Tags Pricing
// @Produce json
// @Param variantId query string false "Filter by variant"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {object} models.PriceChangeLogListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /pricing/price-logs [get]
func (h *PricingHandler) GetPriceChangeLogs(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var variantID *uuid.UUID
	if raw := c.Query("variantId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "Invalid variant ID",
					Field:   "variantId",
				},
			})
			return
		}
		variantID = &parsed
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	logs, total, err := h.repo.ListPriceChangeLogs(tenantID, variantID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve price change logs",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.PriceChangeLogListResponse{
		Success: true,
		Data:    logs,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}
