package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// AccountingClient handles communication with the accounting-service
type AccountingClient struct {
	baseURL    string
	httpClient *http.Client
}

// PriceRuleNotification is the payload sent to accounting when a pricing rule changes
type PriceRuleNotification struct {
	TenantID         string `json:"tenantId"`
	BrandID          string `json:"brandId"`
	CategoryID       string `json:"categoryId"`
	Price            string `json:"price"`
	PriceBasis       string `json:"priceBasis"`
	AffectedVariants int    `json:"affectedVariants"`
	ChangedBy        string `json:"changedBy"`
}

// AccountingResponse from accounting-service
type AccountingResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}

// NewAccountingClient creates a new accounting client
func NewAccountingClient() *AccountingClient {
	baseURL := os.Getenv("ACCOUNTING_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://accounting-service:8094"
	}

	return &AccountingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyPriceRuleChange informs accounting about a new or reactivated pricing rule.
// Failures are logged and returned but callers treat them as non-fatal.
func (c *AccountingClient) NotifyPriceRuleChange(tenantID, userID string, notification *PriceRuleNotification) error {
	url := fmt.Sprintf("%s/api/v1/accounting/price-rules", c.baseURL)

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	// Use Istio JWT claim headers for authentication
	req.Header.Set("x-jwt-claim-tenant-id", tenantID)
	req.Header.Set("x-jwt-claim-sub", userID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[AccountingClient] Error calling accounting API: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[AccountingClient] Accounting API returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("failed to notify accounting: %d - %s", resp.StatusCode, string(body))
	}

	var result AccountingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[AccountingClient] Error decoding accounting response: %v", err)
		return err
	}

	if !result.Success {
		msg := "unknown error"
		if result.Message != nil {
			msg = *result.Message
		}
		return fmt.Errorf("accounting rejected price rule notification: %s", msg)
	}

	return nil
}
