package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Gateway is the payment gateway surface the booking service depends on.
// One client is built at startup and injected everywhere.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, receipt string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
	IsConfigured() bool
}

// Order is a gateway order opened ahead of checkout. Amount is in the
// currency's smallest unit (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment is the gateway's authoritative record of a payment attempt. Only
// status "captured" means the money is settled.
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// PaymentStatusCaptured is the only settled payment state.
const PaymentStatusCaptured = "captured"

// APIError is a structured error response from the gateway. Transport
// failures are returned as plain wrapped errors instead, so callers can
// tell a gateway verdict from an unreachable gateway.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay api error %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// RazorpayClient talks to the Razorpay REST API with basic auth.
type RazorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	currency   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewRazorpayClient creates the gateway client.
func NewRazorpayClient(keyID, keySecret, baseURL, currency string, logger *logrus.Logger) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		currency:  currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// KeyID returns the public key id handed to checkout clients.
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

// IsConfigured reports whether credentials are present.
func (c *RazorpayClient) IsConfigured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// CreateOrder opens an auto-capture order for the given amount in the
// configured currency. Amount is in major units and converted to the
// smallest unit on the wire.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount float64, receipt string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":          int64(amount * 100),
		"currency":        c.currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &order); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"amount":   order.Amount,
	}).Info("Razorpay order created")
	return &order, nil
}

// FetchPayment retrieves the authoritative payment record.
func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifySignature checks the checkout callback signature:
// HMAC-SHA256(order_id + "|" + payment_id) keyed with the API secret.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error.Code == "" {
			errResp.Error = APIError{Code: "BAD_RESPONSE", Description: string(data)}
		}
		errResp.Error.StatusCode = resp.StatusCode
		return &errResp.Error
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode razorpay response: %w", err)
	}
	return nil
}
