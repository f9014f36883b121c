package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/payment/domain"
)

// Outcome is how a notification was handled. Everything except
// OutcomeRejected and OutcomeFailed is acknowledged to the provider.
type Outcome string

const (
	OutcomeRejected  Outcome = "rejected"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeApplied   Outcome = "applied"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) Acknowledged() bool {
	return o != OutcomeRejected && o != OutcomeFailed
}

// Inbound is one webhook delivery as received.
type Inbound struct {
	Type      string
	PaymentID string
	Signature string
}

type Result struct {
	Outcome   Outcome
	OrderID   string
	Status    order.OrderStatus
	PaymentID string
}

type Reconciler struct {
	log     *slog.Logger
	secret  string
	gateway Gateway
	orders  OrderLedger
	dedupe  Deduper
	ledger  PaymentLog
}

// NewReconciler wires the webhook pipeline. dedupe and ledger may be nil.
func NewReconciler(log *slog.Logger, secret string, gateway Gateway, orders OrderLedger, dedupe Deduper, ledger PaymentLog) *Reconciler {
	return &Reconciler{log: log, secret: secret, gateway: gateway, orders: orders, dedupe: dedupe, ledger: ledger}
}

// HandleNotification authenticates a delivery and applies the payment
// status to the referenced order. Invalid signatures return
// domain.ErrInvalidSignature before anything is read or written.
func (r *Reconciler) HandleNotification(ctx context.Context, in Inbound) (Result, error) {
	sig, err := domain.Verify(r.secret, in.Signature, in.PaymentID)
	if err != nil {
		r.log.Warn("webhook signature rejected", "payment_id", in.PaymentID)
		return Result{Outcome: OutcomeRejected, PaymentID: in.PaymentID}, err
	}
	if in.Type != domain.NotificationTypePayment {
		return Result{Outcome: OutcomeIgnored, PaymentID: in.PaymentID}, nil
	}

	key := ""
	if r.dedupe != nil {
		key = r.dedupe.Key(in.PaymentID, sig.TS)
		seen, err := r.dedupe.Seen(ctx, key)
		if err != nil {
			// Redis is only a shortcut; the order CAS still guards the write.
			r.log.Warn("webhook dedupe unavailable", "payment_id", in.PaymentID, "err", err)
			key = ""
		} else if seen {
			return Result{Outcome: OutcomeDuplicate, PaymentID: in.PaymentID}, nil
		}
	}

	res, err := r.reconcile(ctx, in.PaymentID)
	if err != nil && key != "" {
		if rerr := r.dedupe.Release(context.WithoutCancel(ctx), key); rerr != nil {
			r.log.Error("release dedupe key failed", "key", key, "err", rerr)
		}
	}
	return res, err
}

func (r *Reconciler) reconcile(ctx context.Context, paymentID string) (Result, error) {
	res := Result{PaymentID: paymentID}

	p, err := r.gateway.GetPayment(ctx, paymentID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		r.log.Info("webhook for unknown payment", "payment_id", paymentID)
		res.Outcome = OutcomeIgnored
		return res, nil
	}
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	if p.ExternalReference == "" {
		res.Outcome = OutcomeIgnored
		return res, nil
	}
	res.OrderID = p.ExternalReference

	if r.ledger != nil {
		if err := r.ledger.Record(ctx, p); err != nil {
			r.log.Warn("payment audit write failed", "payment_id", paymentID, "err", err)
		}
	}

	o, err := r.orders.Get(ctx, p.ExternalReference)
	if errors.Is(err, order.ErrOrderNotFound) {
		r.log.Info("webhook for unknown order", "order_id", p.ExternalReference, "payment_id", paymentID)
		res.Outcome = OutcomeIgnored
		return res, nil
	}
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("load order %s: %w", p.ExternalReference, err)
	}
	res.Status = o.Status
	if o.Status != order.StatusPending {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}

	to, ok := p.Status.OrderStatus()
	if !ok {
		res.Outcome = OutcomeUnchanged
		return res, nil
	}

	updated, err := r.orders.Transition(ctx, o.ID, to, paymentID)
	switch {
	case errors.Is(err, order.ErrStatusConflict), errors.Is(err, order.ErrInvalidTransition):
		// Another delivery won the compare-and-set.
		res.Outcome = OutcomeDuplicate
		return res, nil
	case err != nil:
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("transition order %s: %w", o.ID, err)
	}

	r.log.Info("payment reconciled", "order_id", o.ID, "payment_id", paymentID, "payment_status", p.Status, "order_status", updated.Status)
	res.Outcome = OutcomeApplied
	res.Status = updated.Status
	return res, nil
}
