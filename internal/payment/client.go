package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/config"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Intent is a created Pix charge. The customer pays by scanning QRCode or
// copying QRCodeText.
type Intent struct {
	ID         string
	Status     string
	QRCodeText string
	QRCode     string
	TicketURL  string
}

// Resolution is the provider's verdict on a previously created charge,
// fetched when a webhook arrives.
type Resolution struct {
	PaymentID string
	Status    enums.PaymentStatus
	OrderRef  string
}

// PixRequest describes the charge to create. Reference travels as the
// external reference and comes back on the webhook, carrying the order id.
type PixRequest struct {
	Amount      decimal.Decimal
	Description string
	PayerEmail  string
	Reference   string
}

// Client talks to the Mercado Pago payments REST API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient wires the payment client from configuration.
func NewClient(cfg config.PaymentConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment base url required")
	}
	if cfg.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment access token required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
	}, nil
}

type createPaymentPayload struct {
	TransactionAmount float64      `json:"transaction_amount"`
	Description       string       `json:"description"`
	PaymentMethodID   string       `json:"payment_method_id"`
	ExternalReference string       `json:"external_reference"`
	Payer             paymentPayer `json:"payer"`
}

type paymentPayer struct {
	Email string `json:"email"`
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePix creates a Pix charge for the given amount.
func (c *Client) CreatePix(ctx context.Context, req PixRequest) (*Intent, error) {
	if req.Amount.IsZero() || req.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	amount, _ := req.Amount.Round(2).Float64()
	payload := createPaymentPayload{
		TransactionAmount: amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.Reference,
		Payer:             paymentPayer{Email: req.PayerEmail},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	// The provider dedupes retried charges by this key.
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment provider returned %d", resp.StatusCode))
	}

	var out paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment response")
	}
	return &Intent{
		ID:         out.ID.String(),
		Status:     out.Status,
		QRCodeText: out.PointOfInteraction.TransactionData.QRCode,
		QRCode:     out.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:  out.PointOfInteraction.TransactionData.TicketURL,
	}, nil
}

// Resolve fetches the current state of a payment named by a webhook.
func (c *Client) Resolve(ctx context.Context, paymentID string) (*Resolution, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment provider returned %d", resp.StatusCode))
	}

	var out paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment response")
	}

	status, err := mapProviderStatus(out.Status)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		PaymentID: out.ID.String(),
		Status:    status,
		OrderRef:  out.ExternalReference,
	}, nil
}

func mapProviderStatus(raw string) (enums.PaymentStatus, error) {
	switch raw {
	case "approved":
		return enums.PaymentStatusApproved, nil
	case "cancelled", "rejected", "refunded", "charged_back":
		return enums.PaymentStatusCancelled, nil
	case "expired":
		return enums.PaymentStatusExpired, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment status %q is not terminal", raw))
	}
}
