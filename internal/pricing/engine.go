package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/audit"
	"catalog-service/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Engine owns brand-category pricing rules and the retail-price
// cascade. At most one rule is active per (brand, category, basis);
// global option-based adjustments are staged on preview, persisted on
// confirm, and undone through a two-entry revert stack.
type Engine struct {
	store  Store
	audit  audit.Writer
	logger *logrus.Entry
}

func NewEngine(store Store, auditor audit.Writer) *Engine {
	return &Engine{
		store:  store,
		audit:  auditor,
		logger: logrus.WithField("component", "price-engine"),
	}
}

// RetailPrice derives a retail price from the active rule for the
// variant's (brand, category). With no rule, or no brand/category, the
// multiplier is 1 against the finished price.
func (e *Engine) RetailPrice(tenantID string, brandID, categoryID *uuid.UUID, finishedPrice, unfinishedPrice string) (string, error) {
	if brandID == nil || categoryID == nil {
		return parsePrice(finishedPrice).String(), nil
	}
	rule, err := e.store.ActiveRule(tenantID, *brandID, *categoryID)
	if err != nil {
		return "", err
	}
	return retailFor(rule, finishedPrice, unfinishedPrice), nil
}

// SetRule activates one rule per listed category, deactivating the
// previous active row for the key first. A row matching the exact
// incoming values is reactivated instead of duplicated. Every variant
// under (brand, category) whose retail price changes is persisted and
// logged; the changed count is returned.
func (e *Engine) SetRule(tenantID, userID string, req models.SetPriceRuleRequest) (*models.SetPriceRuleResult, error) {
	affected := 0
	for _, categoryID := range req.CategoryIDs {
		if err := e.store.DeactivateRules(tenantID, req.BrandID, categoryID, req.PriceBasis); err != nil {
			return nil, err
		}
		existing, err := e.store.FindRule(tenantID, req.BrandID, categoryID, req.Price, req.PriceBasis)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := e.store.ReactivateRule(existing.ID); err != nil {
				return nil, err
			}
		} else {
			rule := &models.BrandCategoryPriceRule{
				TenantID:   tenantID,
				BrandID:    req.BrandID,
				CategoryID: categoryID,
				Price:      req.Price,
				PriceBasis: req.PriceBasis,
				IsActive:   true,
			}
			if err := e.store.CreateRule(rule); err != nil {
				return nil, err
			}
		}

		n, err := e.cascade(tenantID, userID, req.BrandID, categoryID)
		if err != nil {
			return nil, err
		}
		affected += n
	}

	e.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"brand_id":   req.BrandID,
		"categories": len(req.CategoryIDs),
		"affected":   affected,
	}).Info("Applied brand-category price rule")
	return &models.SetPriceRuleResult{AffectedVariants: affected}, nil
}

func (e *Engine) cascade(tenantID, userID string, brandID, categoryID uuid.UUID) (int, error) {
	rule, err := e.store.ActiveRule(tenantID, brandID, categoryID)
	if err != nil {
		return 0, err
	}
	variants, err := e.store.VariantsUnderBrandCategory(tenantID, brandID, categoryID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, vc := range variants {
		newRetail := retailFor(rule, vc.Variant.FinishedPrice, vc.Variant.UnfinishedPrice)
		if newRetail == vc.Variant.RetailPrice {
			continue
		}
		if err := e.store.UpdateVariantPrices(vc.Variant.ID, vc.Variant.FinishedPrice, vc.Variant.UnfinishedPrice, newRetail); err != nil {
			return changed, err
		}
		if err := e.logPriceChange(tenantID, userID, vc.Variant.ID, vc.Variant.RetailPrice, newRetail); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// RuleRevertPreview reports, per category, the price the active rule
// carries and the price a revert would restore. Either side is "0"
// when the history has no row for it.
func (e *Engine) RuleRevertPreview(tenantID string, req models.RevertRuleRequest) ([]models.RulePriceWindow, error) {
	windows := make([]models.RulePriceWindow, 0, len(req.CategoryIDs))
	for _, categoryID := range req.CategoryIDs {
		rules, err := e.store.RulesForKey(tenantID, req.BrandID, categoryID, req.PriceBasis)
		if err != nil {
			return nil, err
		}
		window := models.RulePriceWindow{
			CategoryID:    categoryID,
			PreviousPrice: "0",
			CurrentPrice:  "0",
		}
		if i := activeRuleIndex(rules); i >= 0 {
			window.CurrentPrice = rules[i].Price
			if i > 0 {
				window.PreviousPrice = rules[i-1].Price
			}
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// RevertRule rolls each listed category back to the rule that was
// active before the current one: the active row is deactivated and its
// predecessor in the history reactivated. With no predecessor the key
// is left without a rule, so retail falls back to finished x 1. Rows
// are never deleted; the history keeps both prices. Categories with no
// active rule are skipped; if none had one, ErrNothingToRevert.
func (e *Engine) RevertRule(tenantID, userID string, req models.RevertRuleRequest) (*models.SetPriceRuleResult, error) {
	affected := 0
	reverted := 0
	for _, categoryID := range req.CategoryIDs {
		rules, err := e.store.RulesForKey(tenantID, req.BrandID, categoryID, req.PriceBasis)
		if err != nil {
			return nil, err
		}
		i := activeRuleIndex(rules)
		if i < 0 {
			continue
		}
		if err := e.store.DeactivateRules(tenantID, req.BrandID, categoryID, req.PriceBasis); err != nil {
			return nil, err
		}
		if i > 0 {
			if err := e.store.ReactivateRule(rules[i-1].ID); err != nil {
				return nil, err
			}
		}
		n, err := e.cascade(tenantID, userID, req.BrandID, categoryID)
		if err != nil {
			return nil, err
		}
		affected += n
		reverted++
	}
	if reverted == 0 {
		return nil, ErrNothingToRevert
	}

	e.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"brand_id":   req.BrandID,
		"categories": reverted,
		"affected":   affected,
	}).Info("Reverted brand-category price rule")
	return &models.SetPriceRuleResult{AffectedVariants: affected}, nil
}

// activeRuleIndex finds the active row in a creation-ordered history,
// preferring the latest when more than one is flagged.
func activeRuleIndex(rules []models.BrandCategoryPriceRule) int {
	for i := len(rules) - 1; i >= 0; i-- {
		if rules[i].IsActive {
			return i
		}
	}
	return -1
}

// PreviewAdjustment computes, without persisting, the effect of a
// percent or fixed delta on the basis price of every variant of the
// brand carrying one of the option values. Retail prices are re-derived
// through the currently active rules.
func (e *Engine) PreviewAdjustment(tenantID string, req models.GlobalAdjustmentRequest) (*models.AdjustmentPreview, error) {
	variants, err := e.store.VariantsForBrandOption(tenantID, req.BrandID, req.OptionNameID, req.OptionValueIDs)
	if err != nil {
		return nil, err
	}

	delta := parsePrice(req.Delta)
	staged := make([]models.StagedVariantPrice, 0, len(variants))
	products := make(map[uuid.UUID]struct{})

	for _, vc := range variants {
		finished := parsePrice(vc.Variant.FinishedPrice)
		unfinished := parsePrice(vc.Variant.UnfinishedPrice)

		oldBasis := finished
		if req.PriceBasis == models.PriceBasisUnfinished {
			oldBasis = unfinished
		}
		newBasis := applyDelta(oldBasis, delta, req.Symbol)

		newFinished, newUnfinished := finished, unfinished
		if req.PriceBasis == models.PriceBasisUnfinished {
			newUnfinished = newBasis
		} else {
			newFinished = newBasis
		}

		rule, err := e.store.ActiveRule(tenantID, req.BrandID, vc.CategoryID)
		if err != nil {
			return nil, err
		}
		newRetail := retailFor(rule, newFinished.String(), newUnfinished.String())

		staged = append(staged, models.StagedVariantPrice{
			VariantID:       vc.Variant.ID,
			SKU:             vc.Variant.SKU,
			ProductName:     vc.ProductName,
			OldBasisPrice:   oldBasis.String(),
			NewBasisPrice:   newBasis.String(),
			OldRetailPrice:  vc.Variant.RetailPrice,
			NewRetailPrice:  newRetail,
			FinishedPrice:   newFinished.String(),
			UnfinishedPrice: newUnfinished.String(),
		})
		products[vc.Variant.ProductID] = struct{}{}
	}

	return &models.AdjustmentPreview{
		Request:      req,
		Staged:       staged,
		ProductCount: len(products),
	}, nil
}

// ConfirmAdjustment persists a previewed adjustment: one revert-log
// entry for the key, then every staged variant's prices.
func (e *Engine) ConfirmAdjustment(tenantID, userID string, preview *models.AdjustmentPreview) error {
	req := preview.Request
	entry := &models.PriceRevertLog{
		TenantID:         tenantID,
		BrandID:          req.BrandID,
		OptionNameID:     req.OptionNameID,
		OptionValueIDs:   uuidStrings(req.OptionValueIDs),
		CurrentPrice:     req.Delta,
		PriceBasis:       req.PriceBasis,
		AdjustmentSymbol: req.Symbol,
	}
	if err := e.store.AppendRevertEntry(entry); err != nil {
		return err
	}

	for _, s := range preview.Staged {
		if err := e.store.UpdateVariantPrices(s.VariantID, s.FinishedPrice, s.UnfinishedPrice, s.NewRetailPrice); err != nil {
			return err
		}
		if s.OldRetailPrice != s.NewRetailPrice {
			if err := e.logPriceChange(tenantID, userID, s.VariantID, s.OldRetailPrice, s.NewRetailPrice); err != nil {
				return err
			}
		}
	}

	e.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"brand_id":  req.BrandID,
		"variants":  len(preview.Staged),
		"delta":     req.Delta,
		"symbol":    req.Symbol,
	}).Info("Confirmed global price adjustment")
	return nil
}

// RevertAdjustment undoes the most recent adjustment for a key by
// inverting its delta against every affected variant's basis price and
// re-deriving retail prices through the active rules. Returns the
// number of variants touched.
func (e *Engine) RevertAdjustment(tenantID, userID string, req models.RevertAdjustmentRequest) (int, error) {
	entries, err := e.store.RevertEntries(tenantID, req.BrandID, req.OptionNameID, req.OptionValueIDs, req.PriceBasis)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, ErrNothingToRevert
	}

	target := entries[len(entries)-1]
	delta := parsePrice(target.CurrentPrice)
	if err := e.store.DeleteRevertEntry(target.ID); err != nil {
		return 0, err
	}

	variants, err := e.store.VariantsForBrandOption(tenantID, req.BrandID, req.OptionNameID, req.OptionValueIDs)
	if err != nil {
		return 0, err
	}

	reverted := 0
	for _, vc := range variants {
		finished := parsePrice(vc.Variant.FinishedPrice)
		unfinished := parsePrice(vc.Variant.UnfinishedPrice)

		basis := finished
		if req.PriceBasis == models.PriceBasisUnfinished {
			basis = unfinished
		}
		restored := invertDelta(basis, delta, target.AdjustmentSymbol)

		newFinished, newUnfinished := finished, unfinished
		if req.PriceBasis == models.PriceBasisUnfinished {
			newUnfinished = restored
		} else {
			newFinished = restored
		}

		rule, err := e.store.ActiveRule(tenantID, req.BrandID, vc.CategoryID)
		if err != nil {
			return reverted, err
		}
		newRetail := retailFor(rule, newFinished.String(), newUnfinished.String())

		if err := e.store.UpdateVariantPrices(vc.Variant.ID, newFinished.String(), newUnfinished.String(), newRetail); err != nil {
			return reverted, err
		}
		if newRetail != vc.Variant.RetailPrice {
			if err := e.logPriceChange(tenantID, userID, vc.Variant.ID, vc.Variant.RetailPrice, newRetail); err != nil {
				return reverted, err
			}
		}
		reverted++
	}

	e.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"brand_id":  req.BrandID,
		"variants":  reverted,
	}).Info("Reverted global price adjustment")
	return reverted, nil
}

// ListRules exposes the rule table for the admin surface.
func (e *Engine) ListRules(tenantID string, brandID *uuid.UUID) ([]models.BrandCategoryPriceRule, error) {
	return e.store.ListRules(tenantID, brandID)
}

// Price-log failures after a successful price write are a data-loss
// risk, so they get one retry before surfacing.
func (e *Engine) logPriceChange(tenantID, userID string, variantID uuid.UUID, oldRetail, newRetail string) error {
	if err := e.audit.PriceChange(tenantID, userID, variantID, oldRetail, newRetail); err != nil {
		return e.audit.PriceChange(tenantID, userID, variantID, oldRetail, newRetail)
	}
	return nil
}

func retailFor(rule *models.BrandCategoryPriceRule, finishedPrice, unfinishedPrice string) string {
	if rule == nil {
		return parsePrice(finishedPrice).String()
	}
	basis := parsePrice(finishedPrice)
	if rule.PriceBasis == models.PriceBasisUnfinished {
		basis = parsePrice(unfinishedPrice)
	}
	return basis.Mul(parsePrice(rule.Price)).String()
}

func applyDelta(basis, delta decimal.Decimal, symbol models.AdjustmentSymbol) decimal.Decimal {
	if symbol == models.AdjustmentPercent {
		return basis.Add(basis.Mul(delta).Div(oneHundred))
	}
	return basis.Add(delta)
}

func invertDelta(basis, delta decimal.Decimal, symbol models.AdjustmentSymbol) decimal.Decimal {
	if symbol == models.AdjustmentPercent {
		return basis.Div(decimal.NewFromInt(1).Add(delta.Div(oneHundred)))
	}
	return basis.Sub(delta)
}

func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func uuidStrings(ids []uuid.UUID) models.StringArray {
	out := make(models.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
