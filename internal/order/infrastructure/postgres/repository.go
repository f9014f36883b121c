package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, subtotal_cents, discount_cents, coupon_code, shipping_method, shipping_cents, total_cents,
	shipping_address, status, preference_id, payment_id, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) CreateWithOutbox(ctx context.Context, o domain.Order, rec outbox.Record) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, user_id, subtotal_cents, discount_cents, coupon_code, shipping_method, shipping_cents,
				total_cents, shipping_address, status, preference_id, payment_id, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'','',$11,$12)`,
		o.ID, o.UserID, o.SubtotalCents, o.DiscountCents, o.CouponCode, o.Shipping.Method, o.Shipping.CostCents,
		o.TotalCents, addr, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, title, quantity, price_cents)
            VALUES ($1,$2,$3,$4,$5)`,
			o.ID, item.ProductID, item.Title, item.Quantity, item.PriceCents)
	}
	batchResult := tx.SendBatch(ctx, batch)
	if err = batchResult.Close(); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TransitionWithOutbox performs the status compare-and-set, the stock
// decrements and the outbox insert in one transaction. Only the writer whose
// UPDATE matches status = t.From proceeds; every other caller gets
// domain.ErrStatusConflict and changes nothing.
func (r *Repository) TransitionWithOutbox(ctx context.Context, t domain.Transition, rec outbox.Record) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$3, payment_id=CASE WHEN $4::text = '' THEN payment_id ELSE $4::text END, updated_at=now()
		WHERE id=$1 AND status=$2`, t.OrderID, string(t.From), string(t.To), t.PaymentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}

	for _, item := range t.StockDecrements {
		err := catalogpg.DecrementStockTx(ctx, tx, item.ProductID, item.Quantity)
		if errors.Is(err, catalog.ErrProductNotFound) {
			r.log.Warn("stock decrement skipped, product deleted", "order_id", t.OrderID, "product_id", item.ProductID)
			continue
		}
		if err != nil {
			return err
		}
	}

	if err := insertOutbox(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) SetPreferenceID(ctx context.Context, id, preferenceID string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET preference_id=$2, updated_at=now() WHERE id=$1`, id, preferenceID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.items(ctx, []string{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

var purchasedStatuses = []string{string(domain.StatusPaid), string(domain.StatusShipped), string(domain.StatusDelivered)}

// CountPriorOrders counts the user's paid orders. Pending orders left by an
// abandoned or failed checkout do not count.
func (r *Repository) CountPriorOrders(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id=$1 AND status = ANY($2)`, userID, purchasedStatuses).Scan(&n)
	return n, err
}

func (r *Repository) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM order_items i JOIN orders o ON o.id = i.order_id
			WHERE o.user_id=$1 AND i.product_id=$2 AND o.status = ANY($3))`,
		userID, productID, purchasedStatuses).Scan(&ok)
	return ok, err
}

func (r *Repository) items(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_id, product_id, title, quantity, price_cents FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, product_id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Title, &item.Quantity, &item.PriceCents); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], item)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var addr []byte
	if err := row.Scan(&o.ID, &o.UserID, &o.SubtotalCents, &o.DiscountCents, &o.CouponCode, &o.Shipping.Method, &o.Shipping.CostCents,
		&o.TotalCents, &addr, &o.Status, &o.PreferenceID, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, rec outbox.Record) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		rec.AggregateType, rec.AggregateID, rec.Type, rec.Payload, headers, rec.Traceparent)
	return err
}

type OutboxStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool}
}

// LockBatch claims pending rows and rows whose lease expired, so a crashed
// relay's batch is picked up again.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at
		FROM outbox
		WHERE status = 'pending' OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		var headers []byte
		if err := rows.Scan(&event.ID, &event.AggregateType, &event.AggregateID, &event.Type, &event.Payload, &headers, &event.Traceparent, &event.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &event.Headers); err != nil {
				rows.Close()
				return nil, err
			}
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`, relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent' WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("no rows updated")
	}
	return nil
}

// MarkFailed returns the row to pending so the next tick retries it.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='pending', last_error=$2, retry_count=retry_count+1 WHERE id=$1`, id, errMsg)
	return err
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET lease_until=now() + $1::interval WHERE id = ANY($2) AND relay_id=$3`, lease.String(), ids, relayID)
	return err
}
