package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/ports/adapter"
)

// receiptMaxLen is enforced by the gateway on the receipt field.
const receiptMaxLen = 40

var _ adapter.OrderGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements OrderGateway against the Razorpay orders API
// using direct HTTP calls with basic auth.
type RazorpayGateway struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewRazorpayGateway(keyID, secret, baseURL string, timeout time.Duration, logger *zerolog.Logger) (*RazorpayGateway, error) {
	if keyID == "" || secret == "" {
		return nil, domain.ErrMissingGatewaySecret
	}
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RazorpayGateway{
		keyID:   keyID,
		secret:  secret,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

type orderCreateRequest struct {
	Amount         int64  `json:"amount"` // paise
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderCreateResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Error    struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers a payment order with the gateway. Every failure
// mode (transport error, timeout, non-2xx, malformed body) is wrapped in
// domain.ErrGatewayUnavailable so the orchestrator can roll back cleanly.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*adapter.PaymentOrder, error) {
	if amountPaise <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if len(receipt) > receiptMaxLen {
		return nil, fmt.Errorf("%w: receipt exceeds %d characters", domain.ErrInvalidArgument, receiptMaxLen)
	}
	if currency == "" {
		currency = "INR"
	}

	body, err := json.Marshal(orderCreateRequest{
		Amount:         amountPaise,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal order request: %v", domain.ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build order request: %v", domain.ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error().Err(err).Str("receipt", receipt).Msg("gateway order request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read order response: %v", domain.ErrGatewayUnavailable, err)
	}

	var out orderCreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: unmarshal order response: %v", domain.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK || out.ID == "" {
		g.log.Error().
			Int("status", resp.StatusCode).
			Str("code", out.Error.Code).
			Str("description", out.Error.Description).
			Msg("gateway rejected order")
		return nil, fmt.Errorf("%w: status %d code %s", domain.ErrGatewayUnavailable, resp.StatusCode, out.Error.Code)
	}

	g.log.Info().
		Str("order_id", out.ID).
		Int64("amount_paise", out.Amount).
		Str("receipt", out.Receipt).
		Msg("gateway order created")

	return &adapter.PaymentOrder{
		ID:          out.ID,
		AmountPaise: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
	}, nil
}

// NewReceipt builds a short opaque receipt string. A ULID already encodes
// timestamp + randomness and stays well under the gateway's 40-character
// cap, so identifiers never need to be embedded.
func NewReceipt() string {
	return "rcpt_" + ulid.Make().String()
}
