// Package mercadopago talks to the payment provider's REST API.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	log      *slog.Logger
	http     *http.Client
	baseURL  string
	token    string
	currency string
	tracer   trace.Tracer
}

func NewClient(log *slog.Logger, cfg config.Payment) *Client {
	return &Client{
		log:      log,
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		token:    cfg.AccessToken,
		currency: cfg.Currency,
		tracer:   otel.Tracer("mercadopago-client"),
	}
}

type preferenceItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"`
	CurrencyID string      `json:"currency_id"`
}

type preferenceBody struct {
	Items []preferenceItem `json:"items"`
	Payer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"payer"`
	BackURLs struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Pending string `json:"pending"`
	} `json:"back_urls"`
	ExternalReference string `json:"external_reference"`
	NotificationURL   string `json:"notification_url"`
}

type paymentBody struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
}

func amount(cents int64) json.Number {
	return json.Number(decimal.New(cents, -2).StringFixed(2))
}

func (c *Client) buildPreference(req domain.PreferenceRequest) preferenceBody {
	var body preferenceBody
	for _, it := range req.Items {
		body.Items = append(body.Items, preferenceItem{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  amount(it.UnitPriceCents),
			CurrencyID: c.currency,
		})
	}
	if req.DiscountCents > 0 {
		body.Items = append(body.Items, preferenceItem{
			ID:         "discount",
			Title:      "Discount",
			Quantity:   1,
			UnitPrice:  amount(-req.DiscountCents),
			CurrencyID: c.currency,
		})
	}
	if req.ShippingCents > 0 {
		body.Items = append(body.Items, preferenceItem{
			ID:         "shipping",
			Title:      "Shipping",
			Quantity:   1,
			UnitPrice:  amount(req.ShippingCents),
			CurrencyID: c.currency,
		})
	}
	body.Payer.Name = req.Payer.Name
	body.Payer.Email = req.Payer.Email
	body.BackURLs.Success = req.BackURLs.Success
	body.BackURLs.Failure = req.BackURLs.Failure
	body.BackURLs.Pending = req.BackURLs.Pending
	body.ExternalReference = req.OrderID
	body.NotificationURL = req.NotificationURL
	return body
}

// CreatePreference opens a provider checkout for the order. Any transport or
// provider error is reported as domain.ErrPaymentUnavailable.
func (c *Client) CreatePreference(ctx context.Context, req domain.PreferenceRequest) (domain.Preference, error) {
	ctx, span := c.tracer.Start(ctx, "CreatePreference")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	payload, err := json.Marshal(c.buildPreference(req))
	if err != nil {
		return domain.Preference{}, err
	}

	var pref domain.Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload, &pref); err != nil {
		span.RecordError(err)
		return domain.Preference{}, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return domain.Preference{}, fmt.Errorf("%w: incomplete preference response", domain.ErrPaymentUnavailable)
	}
	return pref, nil
}

// GetPayment fetches a payment by id. A 404 yields domain.ErrPaymentNotFound.
func (c *Client) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	ctx, span := c.tracer.Start(ctx, "GetPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", id))

	var body paymentBody
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &body); err != nil {
		span.RecordError(err)
		return domain.Payment{}, err
	}
	return domain.Payment{
		ID:                body.ID.String(),
		Status:            domain.Status(body.Status),
		StatusDetail:      body.StatusDetail,
		ExternalReference: body.ExternalReference,
		AmountCents:       body.TransactionAmount.Shift(2).Round(0).IntPart(),
		Currency:          body.CurrencyID,
		ReceivedAt:        time.Now().UTC(),
	}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrPaymentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("provider request failed", "method", method, "path", path, "status", resp.StatusCode)
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	return json.Unmarshal(raw, out)
}
