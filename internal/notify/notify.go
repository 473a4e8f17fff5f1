package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cerjey13/rifa/internal/models"
)

// PurchasePayload is the JSON body posted for each new purchase so an
// operator channel (chat hook, internal tool) hears about it.
type PurchasePayload struct {
	PurchaseID    string `json:"purchase_id"`
	UserEmail     string `json:"user_email"`
	Quantity      int    `json:"quantity"`
	MontoBs       string `json:"monto_bs"`
	MontoUSD      string `json:"monto_usd"`
	PaymentMethod string `json:"payment_method"`
	Timestamp     string `json:"timestamp"`
}

// Client posts purchase notifications to a configured webhook URL.
// A disabled client (empty URL) swallows everything silently.
type Client struct {
	webhookURL string
	httpClient *http.Client
	maxRetries int
	verbose    bool
}

// NewClient creates a new notification client. An empty webhookURL
// disables notifications.
func NewClient(
	webhookURL string,
	timeout time.Duration,
	maxRetries int,
	verbose bool,
) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		verbose:    verbose,
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.webhookURL != ""
}

// NotifyPurchase sends a notification about a new purchase. Failures
// never propagate to the purchase flow; callers run this in a goroutine
// and log the returned error.
func (c *Client) NotifyPurchase(
	purchase *models.Purchase,
	userEmail string,
) error {
	if !c.Enabled() {
		return nil
	}

	payload := PurchasePayload{
		PurchaseID:    purchase.ID,
		UserEmail:     userEmail,
		Quantity:      purchase.Quantity,
		MontoBs:       purchase.MontoBs,
		MontoUSD:      purchase.MontoUSD,
		PaymentMethod: purchase.PaymentMethod,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	return c.send(payload)
}

// send posts the payload with retry logic and linear backoff.
func (c *Client) send(payload PurchasePayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %v", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
			if c.verbose {
				log.Printf(
					"[NOTIFY] Retry %d/%d for purchase %s",
					attempt, c.maxRetries, payload.PurchaseID,
				)
			}
		}

		resp, err := c.httpClient.Post(
			c.webhookURL,
			"application/json",
			bytes.NewBuffer(payloadBytes),
		)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if c.verbose {
				log.Printf(
					"[NOTIFY] Purchase %s notified", payload.PurchaseID,
				)
			}
			return nil
		}
		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return fmt.Errorf(
		"failed to notify purchase %s after %d attempts: %v",
		payload.PurchaseID, c.maxRetries+1, lastErr,
	)
}
