package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Service is the order ledger. Every status change goes through Transition.
type Service struct {
	log  *slog.Logger
	repo OrderRepository
}

func NewService(log *slog.Logger, repo OrderRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Create(ctx context.Context, o domain.Order, traceparent string) error {
	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		CouponCode: o.CouponCode,
		Items:      o.Items,
	})
	if err != nil {
		return err
	}
	return s.repo.CreateWithOutbox(ctx, o, outbox.Record{
		AggregateType: "order",
		AggregateID:   o.ID,
		Type:          "OrderCreated",
		Payload:       payload,
		Headers:       map[string]string{"source": "storefront"},
		Traceparent:   traceparent,
	})
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) SetPreferenceID(ctx context.Context, id, preferenceID string) error {
	return s.repo.SetPreferenceID(ctx, id, preferenceID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) CountPriorOrders(ctx context.Context, userID string) (int, error) {
	return s.repo.CountPriorOrders(ctx, userID)
}

func (s *Service) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	return s.repo.HasPurchased(ctx, userID, productID)
}

// Transition moves order id to status to. It returns
// domain.ErrInvalidTransition when the table forbids the move and
// domain.ErrStatusConflict when another writer changed the status first.
func (s *Service) Transition(ctx context.Context, id string, to domain.OrderStatus, paymentID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	t, err := o.PlanTransition(to, paymentID)
	if err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderStatusChanged{OrderID: id, From: t.From, To: t.To, PaymentID: paymentID})
	if err != nil {
		return domain.Order{}, err
	}
	rec := outbox.Record{
		AggregateType: "order",
		AggregateID:   id,
		Type:          t.EventType(),
		Payload:       payload,
		Headers:       map[string]string{"source": "storefront"},
	}
	if err := s.repo.TransitionWithOutbox(ctx, t, rec); err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order status changed", "order_id", id, "from", t.From, "to", t.To, "stock_lines", len(t.StockDecrements))
	o.Status = to
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	return o, nil
}
