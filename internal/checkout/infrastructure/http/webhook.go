package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	"go.opentelemetry.io/otel/attribute"
)

const signatureHeader = "x-signature"

// webhook receives provider notifications. Authenticated deliveries are
// acknowledged with 200 even when they change nothing; signature failures
// get 400 and unexpected errors 500 so the provider retries.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentWebhook")
	defer span.End()

	var n payment.Notification
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err == nil && len(body) > 0 {
		// Some deliveries only use the query string.
		if err := json.Unmarshal(body, &n); err != nil {
			h.log.Debug("webhook body is not a notification, using query", "err", err, "bytes", len(body))
		}
	}
	q := r.URL.Query()
	in := paymentapp.Inbound{
		Type:      firstNonEmpty(n.Type, q.Get("type"), q.Get("topic")),
		PaymentID: firstNonEmpty(n.Data.ID, q.Get("data.id"), q.Get("id")),
		Signature: r.Header.Get(signatureHeader),
	}
	span.SetAttributes(attribute.String("payment.id", in.PaymentID), attribute.String("notification.type", in.Type))

	res, err := h.svc.Reconciler.HandleNotification(ctx, in)
	h.metrics.Webhooks.WithLabelValues(string(res.Outcome)).Inc()
	if res.Outcome == paymentapp.OutcomeApplied && res.Status == order.StatusPaid {
		h.metrics.StockDecrements.Inc()
	}

	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid signature"})
	case err != nil:
		span.RecordError(err)
		h.log.Error("webhook processing failed", "payment_id", in.PaymentID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "processing failed"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "received", "outcome": string(res.Outcome)})
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
