package sale

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pos-catalog-browser/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failure response is read looking for a message.
const maxErrorBody = 64 << 10

// SubmissionError is a failed POST /api/products/{id}/sales, either a transport failure
// (Err set, Status 0) or a non-success response (Status set, Message when the body carried one).
type SubmissionError struct {
	ProductID int64
	Status    int
	Message   string
	Err       error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("sale: submit for product %d: %v", e.ProductID, e.Err)
	case e.Message != "":
		return fmt.Sprintf("sale: submit for product %d: status %d: %s", e.ProductID, e.Status, e.Message)
	default:
		return fmt.Sprintf("sale: submit for product %d: status %d", e.ProductID, e.Status)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Submitter issues the mutating sale request.
type Submitter interface {
	SubmitSale(ctx context.Context, productID int64, payment domain.PaymentType) error
}

type saleRequest struct {
	PaymentType domain.PaymentType `json:"paymentType"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client submits sales to {baseURL}/api/products/{id}/sales.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a Client. A nil client uses http.DefaultClient.
func NewClient(baseURL string, client *http.Client, logger *zap.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

// SubmitSale posts one sale. Any 2xx status is success and the body is ignored.
func (c *Client) SubmitSale(ctx context.Context, productID int64, payment domain.PaymentType) error {
	payload, err := json.Marshal(saleRequest{PaymentType: payment})
	if err != nil {
		return &SubmissionError{ProductID: productID, Err: err}
	}
	url := fmt.Sprintf("%s/api/products/%d/sales", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &SubmissionError{ProductID: productID, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	res, err := c.client.Do(req)
	if err != nil {
		return &SubmissionError{ProductID: productID, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		io.Copy(io.Discard, res.Body)
		c.logger.Info("sale submitted",
			zap.Int64("product_id", productID),
			zap.String("payment_type", string(payment)),
			zap.String("request_id", requestID),
		)
		return nil
	}

	subErr := &SubmissionError{ProductID: productID, Status: res.StatusCode}
	var body errorBody
	if raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody)); err == nil && json.Unmarshal(raw, &body) == nil {
		subErr.Message = strings.TrimSpace(body.Message)
	}
	c.logger.Warn("sale rejected",
		zap.Int64("product_id", productID),
		zap.Int("status", res.StatusCode),
		zap.String("message", subErr.Message),
		zap.String("request_id", requestID),
	)
	return subErr
}
