// Package memory is an in-process order ledger with the same
// compare-and-set semantics as the Postgres store.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// StockDecrementer lowers product stock. It is called while the ledger lock
// is held, which makes the status change and the decrement one step.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, id string, amount int) error
}

type Repository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	events []outbox.Record
	stock  StockDecrementer
}

func NewRepository(stock StockDecrementer) *Repository {
	return &Repository{orders: map[string]domain.Order{}, stock: stock}
}

func (r *Repository) CreateWithOutbox(_ context.Context, o domain.Order, rec outbox.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	r.orders[o.ID] = o
	r.events = append(r.events, rec)
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o, nil
}

func (r *Repository) SetPreferenceID(_ context.Context, id, preferenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PreferenceID = preferenceID
	r.orders[id] = o
	return nil
}

func (r *Repository) TransitionWithOutbox(ctx context.Context, t domain.Transition, rec outbox.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[t.OrderID]
	if !ok || o.Status != t.From {
		return domain.ErrStatusConflict
	}
	for _, item := range t.StockDecrements {
		if err := r.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
			return err
		}
	}
	o.Status = t.To
	if t.PaymentID != "" {
		o.PaymentID = t.PaymentID
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[t.OrderID] = o
	r.events = append(r.events, rec)
	return nil
}

func (r *Repository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) CountPriorOrders(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.orders {
		if o.UserID == userID && purchased(o.Status) {
			n++
		}
	}
	return n, nil
}

func (r *Repository) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.UserID != userID || !purchased(o.Status) {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// Events returns the outbox records written so far.
func (r *Repository) Events() []outbox.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Record(nil), r.events...)
}

func purchased(s domain.OrderStatus) bool {
	return s == domain.StatusPaid || s == domain.StatusShipped || s == domain.StatusDelivered
}
