package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// Publisher wraps the go-shared events publisher for catalog-specific events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new catalog events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		// Default to GKE internal NATS service URL
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "catalog-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the products stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "catalog-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.Product, actorID string) error {
	event := p.buildProductEvent(events.ProductCreated, product)
	event.ActorID = actorID
	event.ChangeType = "created"
	return p.publish(ctx, event)
}

// PublishProductUpdated publishes a product.updated event with the changed fields
func (p *Publisher) PublishProductUpdated(ctx context.Context, product *models.Product, diff map[string]interface{}, actorID string) error {
	event := p.buildProductEvent(events.ProductUpdated, product)
	event.ActorID = actorID
	event.ChangeType = "updated"
	for field := range diff {
		event.ChangedFields = append(event.ChangedFields, field)
	}
	event.NewValue = diff
	return p.publish(ctx, event)
}

// PublishVariantPriceChanged publishes a product.price_changed event for a variant
func (p *Publisher) PublishVariantPriceChanged(ctx context.Context, product *models.Product, variant *models.ProductVariant, oldRetail, newRetail, actorID string) error {
	event := p.buildProductEvent("product.price_changed", product)
	event.ActorID = actorID
	event.ChangeType = "price_changed"
	event.SKU = variant.SKU
	if price, err := parsePrice(newRetail); err == nil {
		event.Price = price
	}
	event.OldValue = map[string]interface{}{"retailPrice": oldRetail}
	event.NewValue = map[string]interface{}{"retailPrice": newRetail}
	event.ChangedFields = []string{"retailPrice"}
	return p.publish(ctx, event)
}

// PublishPriceRuleSet publishes a product.price_rule_set event for a brand/category rule
func (p *Publisher) PublishPriceRuleSet(ctx context.Context, rule *models.BrandCategoryPriceRule, affectedVariants int, actorID string) error {
	event := events.NewProductEvent("product.price_rule_set", rule.TenantID)
	event.SourceID = uuid.New().String()
	event.ActorID = actorID
	event.ChangeType = "price_rule_set"
	event.CategoryID = rule.CategoryID.String()
	event.NewValue = map[string]interface{}{
		"brandId":          rule.BrandID.String(),
		"categoryId":       rule.CategoryID.String(),
		"price":            rule.Price,
		"priceBasis":       string(rule.PriceBasis),
		"affectedVariants": affectedVariants,
	}
	return p.publish(ctx, event)
}

// buildProductEvent creates a ProductEvent from a product model
func (p *Publisher) buildProductEvent(eventType string, product *models.Product) *events.ProductEvent {
	event := events.NewProductEvent(eventType, product.TenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.ProductName
	return event
}

// parsePrice converts a price string to float64
func parsePrice(priceStr string) (float64, error) {
	var price float64
	_, err := fmt.Sscanf(priceStr, "%f", &price)
	return price, err
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *events.ProductEvent) error {
	// Publish asynchronously to not block the main flow
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish catalog event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).Info("Catalog event published successfully")
		}
	}()

	return nil
}
