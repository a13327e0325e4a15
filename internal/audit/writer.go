package audit

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/models"
)

// Writer appends change records to the five log families. Logs are
// write-only from this service's perspective; report assembly happens
// elsewhere.
type Writer interface {
	Category(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error
	Product(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error
	Variant(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error
	Taxonomy(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error
	PriceChange(tenantID, userID string, variantID uuid.UUID, oldRetail, newRetail string) error
}

// LogWriter persists audit entries with gorm.
type LogWriter struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewLogWriter(db *gorm.DB) *LogWriter {
	return &LogWriter{
		db:     db,
		logger: logrus.WithField("component", "audit"),
	}
}

func (w *LogWriter) Category(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	entry := models.CategoryLog{
		TenantID: tenantID,
		EntityID: entityID,
		Action:   action,
		UserID:   userID,
		Data:     data,
	}
	if err := w.db.Create(&entry).Error; err != nil {
		w.logger.WithError(err).WithField("entity_id", entityID).Error("Failed to write category log")
		return err
	}
	return nil
}

func (w *LogWriter) Product(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	entry := models.ProductLog{
		TenantID: tenantID,
		EntityID: entityID,
		Action:   action,
		UserID:   userID,
		Data:     data,
	}
	if err := w.db.Create(&entry).Error; err != nil {
		w.logger.WithError(err).WithField("entity_id", entityID).Error("Failed to write product log")
		return err
	}
	return nil
}

func (w *LogWriter) Variant(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	entry := models.VariantLog{
		TenantID: tenantID,
		EntityID: entityID,
		Action:   action,
		UserID:   userID,
		Data:     data,
	}
	if err := w.db.Create(&entry).Error; err != nil {
		w.logger.WithError(err).WithField("entity_id", entityID).Error("Failed to write variant log")
		return err
	}
	return nil
}

func (w *LogWriter) Taxonomy(tenantID, userID string, entityID uuid.UUID, action models.LogAction, data models.JSON) error {
	entry := models.TaxonomyLog{
		TenantID: tenantID,
		EntityID: entityID,
		Action:   action,
		UserID:   userID,
		Data:     data,
	}
	if err := w.db.Create(&entry).Error; err != nil {
		w.logger.WithError(err).WithField("entity_id", entityID).Error("Failed to write taxonomy log")
		return err
	}
	return nil
}

func (w *LogWriter) PriceChange(tenantID, userID string, variantID uuid.UUID, oldRetail, newRetail string) error {
	entry := models.PriceChangeLog{
		TenantID:       tenantID,
		VariantID:      variantID,
		OldRetailPrice: oldRetail,
		NewRetailPrice: newRetail,
		UserID:         userID,
	}
	if err := w.db.Create(&entry).Error; err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"variant_id": variantID,
			"old_retail": oldRetail,
			"new_retail": newRetail,
		}).Error("Failed to write price change log")
		return err
	}
	return nil
}
