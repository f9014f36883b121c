package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/checkout/domain"
	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	user "github.com/dmehra2102/storefront/internal/user/domain"
	"github.com/dmehra2102/storefront/pkg/metrics"
	"github.com/dmehra2102/storefront/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrLoginRequired     = errors.New("login required")
	ErrAddressRequired   = errors.New("complete shipping address required")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnknownShipping   = errors.New("shipping option was not quoted")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError lists the lines that cannot be served.
type StockError struct {
	Shortages []catalog.StockShortage
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortages))
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

type Deps struct {
	Products Products
	Carts    Carts
	Coupons  Coupons
	Stock    StockChecker
	Orders   Orders
	Users    Users
	Shipping Shipping
	Payments Payments
	Metrics  *metrics.Registry
}

type Service struct {
	log     *slog.Logger
	d       Deps
	baseURL string
	tracer  trace.Tracer
	newID   func() string
}

func NewService(log *slog.Logger, d Deps, baseURL string) *Service {
	return &Service{
		log:     log,
		d:       d,
		baseURL: baseURL,
		tracer:  otel.Tracer("checkout-service"),
		newID:   uuid.NewString,
	}
}

// View is the priced cart as shown to the shopper.
type View struct {
	Quote           domain.Quote      `json:"quote"`
	ItemCount       int               `json:"item_count"`
	ZipCode         string            `json:"zip_code,omitempty"`
	ShippingOptions []shipping.Option `json:"shipping_options,omitempty"`
	Notices         []string          `json:"notices,omitempty"`
}

func (s *Service) AddToCart(ctx context.Context, sessionID, productID string, qty int) (int, error) {
	if _, err := s.d.Products.FindByID(ctx, productID); err != nil {
		return 0, err
	}
	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if err := c.Add(productID, qty); err != nil {
		return 0, err
	}
	if err := s.d.Carts.Save(ctx, c); err != nil {
		return 0, err
	}
	return c.ItemCount(), nil
}

func (s *Service) UpdateLine(ctx context.Context, sessionID, userID, productID string, qty int) (View, error) {
	return s.mutate(ctx, sessionID, userID, func(c *cartdomain.Cart) error {
		c.Update(productID, qty)
		return nil
	})
}

func (s *Service) RemoveLine(ctx context.Context, sessionID, userID, productID string) (View, error) {
	return s.mutate(ctx, sessionID, userID, func(c *cartdomain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// ApplyCoupon validates code against the current subtotal and remembers it
// in the session. Rejections wrap coupon.ErrCouponInvalid and leave the cart
// untouched.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, userID, code string) (View, error) {
	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	q, _, err := s.price(ctx, c)
	if err != nil {
		return View{}, err
	}
	applied, err := s.d.Coupons.Validate(ctx, code, userID, q.SubtotalCents)
	if err != nil {
		return View{}, err
	}
	c.Coupon = &cartdomain.AppliedCoupon{Code: applied.Code}
	if err := s.d.Carts.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.view(ctx, c, userID)
}

func (s *Service) RemoveCoupon(ctx context.Context, sessionID, userID string) (View, error) {
	return s.mutate(ctx, sessionID, userID, func(c *cartdomain.Cart) error {
		c.Coupon = nil
		return nil
	})
}

// QuoteShipping stores the options for zip in the session. A previously
// selected option is dropped because it may not apply to the new code.
func (s *Service) QuoteShipping(ctx context.Context, sessionID, userID, zip string) (View, error) {
	opts, err := s.d.Shipping.Quote(ctx, zip)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, sessionID, userID, func(c *cartdomain.Cart) error {
		c.ZipCode = shipping.NormalizeZip(zip)
		c.ShippingOptions = c.ShippingOptions[:0]
		for _, o := range opts {
			c.ShippingOptions = append(c.ShippingOptions, cartdomain.ShippingChoice{Method: o.Method, CostCents: o.CostCents, Days: o.Days})
		}
		c.Shipping = nil
		return nil
	})
}

// SelectShipping picks a quoted option by method. The cost always comes from
// the stored quote.
func (s *Service) SelectShipping(ctx context.Context, sessionID, userID, method string) (View, error) {
	return s.mutate(ctx, sessionID, userID, func(c *cartdomain.Cart) error {
		if !c.SelectShipping(method) {
			return ErrUnknownShipping
		}
		return nil
	})
}

func (s *Service) ViewCart(ctx context.Context, sessionID, userID string) (View, error) {
	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c, userID)
}

// Review is the last look before payment. It needs a signed-in user with a
// non-empty cart.
type Review struct {
	View
	User user.User `json:"-"`
}

func (s *Service) Review(ctx context.Context, sessionID, userID string) (Review, error) {
	if userID == "" {
		return Review{}, ErrLoginRequired
	}
	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return Review{}, err
	}
	v, err := s.view(ctx, c, userID)
	if err != nil {
		return Review{}, err
	}
	if v.Quote.IsEmpty() {
		return Review{}, ErrEmptyCart
	}
	u, err := s.d.Users.FindByID(ctx, userID)
	if err != nil {
		return Review{}, err
	}
	return Review{View: v, User: u}, nil
}

// Checkout is the result of a successful payment preference creation.
type Checkout struct {
	OrderID      string `json:"order_id"`
	PreferenceID string `json:"preference_id"`
	RedirectURL  string `json:"redirect_url"`
	TotalCents   int64  `json:"total_cents"`
}

// CreatePaymentPreference freezes the cart into a Pending order and opens a
// provider checkout for it. The order is stored before the provider is
// called so the webhook can always resolve it. On provider failure the order
// stays Pending and the cart is kept for a retry.
func (s *Service) CreatePaymentPreference(ctx context.Context, sessionID, userID string) (Checkout, error) {
	ctx, span := s.tracer.Start(ctx, "CreatePaymentPreference")
	defer span.End()

	if userID == "" {
		return Checkout{}, ErrLoginRequired
	}
	u, err := s.d.Users.FindByID(ctx, userID)
	if err != nil {
		return Checkout{}, err
	}
	if !u.Address.Complete() {
		return Checkout{}, ErrAddressRequired
	}

	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return Checkout{}, err
	}
	q, resynced, err := s.price(ctx, c)
	if err != nil {
		return Checkout{}, err
	}
	if resynced {
		if err := s.d.Carts.Save(ctx, c); err != nil {
			return Checkout{}, err
		}
	}
	if q.IsEmpty() {
		return Checkout{}, ErrEmptyCart
	}

	shortages, err := s.d.Stock.CheckStock(ctx, q.StockRequests())
	if err != nil {
		return Checkout{}, fmt.Errorf("check stock: %w", err)
	}
	if len(shortages) > 0 {
		return Checkout{}, &StockError{Shortages: shortages}
	}

	code := ""
	if c.Coupon != nil {
		code = c.Coupon.Code
	}
	q, dropped, err := s.discount(ctx, c, userID, q)
	if err != nil {
		return Checkout{}, err
	}
	if dropped {
		// The shopper reviewed a discounted total; never charge more without
		// sending them back to the cart.
		if err := s.d.Carts.Save(ctx, c); err != nil {
			s.log.Error("drop coupon failed", "code", code, "err", err)
		}
		return Checkout{}, fmt.Errorf("%w: %s no longer applies", coupon.ErrCouponInvalid, code)
	}
	ship := order.Shipping{}
	if c.Shipping != nil {
		ship = order.Shipping{Method: c.Shipping.Method, CostCents: c.Shipping.CostCents}
	}

	o := order.NewOrder(s.newID(), u.ID, q.Items(), q.CouponCode, q.DiscountCents, ship, order.Address(u.Address))
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Int64("order.total_cents", o.TotalCents))
	if err := s.d.Orders.Create(ctx, o, tracing.Traceparent(ctx)); err != nil {
		return Checkout{}, fmt.Errorf("create order: %w", err)
	}
	if s.d.Metrics != nil {
		s.d.Metrics.OrdersCreated.Inc()
	}

	start := time.Now()
	pref, err := s.d.Payments.CreatePreference(ctx, payment.NewPreferenceRequest(o, payment.Payer{Name: u.Name, Email: u.Email}, s.baseURL))
	if s.d.Metrics != nil {
		s.d.Metrics.PreferenceLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.d.Metrics != nil {
			s.d.Metrics.PreferenceFailures.Inc()
		}
		span.RecordError(err)
		s.log.Error("payment preference failed", "order_id", o.ID, "err", err)
		if !errors.Is(err, payment.ErrPaymentUnavailable) {
			err = fmt.Errorf("%w: %v", payment.ErrPaymentUnavailable, err)
		}
		return Checkout{}, err
	}

	if err := s.d.Orders.SetPreferenceID(ctx, o.ID, pref.ID); err != nil {
		// The webhook resolves orders by external reference, so the missing
		// preference id only affects support lookups.
		s.log.Error("store preference id failed", "order_id", o.ID, "preference_id", pref.ID, "err", err)
	}

	c.Clear()
	if err := s.d.Carts.Save(ctx, c); err != nil {
		s.log.Error("clear cart failed", "order_id", o.ID, "err", err)
	}

	s.log.Info("checkout started", "order_id", o.ID, "preference_id", pref.ID, "total_cents", o.TotalCents)
	return Checkout{OrderID: o.ID, PreferenceID: pref.ID, RedirectURL: pref.InitPoint, TotalCents: o.TotalCents}, nil
}

// StatusPage is the data behind the success/failure/pending return pages.
type StatusPage struct {
	Status    string      `json:"status"`
	PaymentID string      `json:"payment_id"`
	Order     order.Order `json:"order"`
}

// Status shows a returning shopper their order. The status string comes from
// the provider redirect and is display-only; the order is never changed here.
func (s *Service) Status(ctx context.Context, userID, paymentID, status, orderID string) (StatusPage, error) {
	if userID == "" {
		return StatusPage{}, ErrLoginRequired
	}
	o, err := s.d.Orders.Get(ctx, orderID)
	if err != nil {
		return StatusPage{}, err
	}
	if o.UserID != userID {
		return StatusPage{}, order.ErrOrderNotFound
	}
	return StatusPage{Status: status, PaymentID: paymentID, Order: o}, nil
}

func (s *Service) mutate(ctx context.Context, sessionID, userID string, fn func(*cartdomain.Cart) error) (View, error) {
	c, err := s.d.Carts.Load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := fn(c); err != nil {
		return View{}, err
	}
	if err := s.d.Carts.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.view(ctx, c, userID)
}

// view prices c, saving it back when lines or the coupon had to be dropped.
func (s *Service) view(ctx context.Context, c *cartdomain.Cart, userID string) (View, error) {
	q, resynced, err := s.price(ctx, c)
	if err != nil {
		return View{}, err
	}
	var notices []string
	if resynced {
		notices = append(notices, "some products are no longer available and were removed")
	}

	q, dropped, err := s.discount(ctx, c, userID, q)
	if err != nil {
		return View{}, err
	}
	if dropped {
		notices = append(notices, "the coupon no longer applies and was removed")
	}

	if resynced || dropped {
		if err := s.d.Carts.Save(ctx, c); err != nil {
			return View{}, err
		}
	}

	v := View{Quote: q, ItemCount: c.ItemCount(), ZipCode: c.ZipCode, Notices: notices}
	for _, o := range c.ShippingOptions {
		v.ShippingOptions = append(v.ShippingOptions, shipping.Option{Method: o.Method, CostCents: o.CostCents, Days: o.Days})
	}
	return v, nil
}

// price joins the cart with the catalog and drops lines whose product is
// gone. The second result reports whether the cart changed.
func (s *Service) price(ctx context.Context, c *cartdomain.Cart) (domain.Quote, bool, error) {
	var found []catalog.Product
	if !c.IsEmpty() {
		var err error
		found, err = s.d.Products.FindByIDs(ctx, c.ProductIDs())
		if err != nil {
			return domain.Quote{}, false, fmt.Errorf("load cart products: %w", err)
		}
	}
	byID := make(map[string]catalog.Product, len(found))
	keep := make(map[string]bool, len(found))
	for _, p := range found {
		byID[p.ID] = p
		keep[p.ID] = true
	}
	resynced := c.Retain(keep)

	q := domain.Price(c.Lines, byID)
	if c.Shipping != nil {
		q = q.WithShipping(c.Shipping.Method, c.Shipping.CostCents)
	}
	return q, resynced, nil
}

// discount recomputes the coupon amount from the coupon record. A coupon
// that no longer validates is removed from the cart.
func (s *Service) discount(ctx context.Context, c *cartdomain.Cart, userID string, q domain.Quote) (domain.Quote, bool, error) {
	if c.Coupon == nil {
		return q, false, nil
	}
	applied, err := s.d.Coupons.Validate(ctx, c.Coupon.Code, userID, q.SubtotalCents)
	if errors.Is(err, coupon.ErrCouponInvalid) {
		c.Coupon = nil
		return q, true, nil
	}
	if err != nil {
		return domain.Quote{}, false, err
	}
	return q.WithDiscount(applied.Code, applied.AmountCents), false, nil
}
