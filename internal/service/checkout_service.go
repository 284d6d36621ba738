package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/cart"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/order"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/payment"
)

const cartMetadataKey = "cart"

// CheckoutService turns a cart into either a hosted payment session or
// a cash-on-delivery order.
type CheckoutService struct {
	catalog         product.Repository
	orders          order.Repository
	provider        *payment.Provider
	defaultProvider string
}

func NewCheckoutService(catalog product.Repository, orders order.Repository, provider *payment.Provider, defaultProvider string) *CheckoutService {
	if defaultProvider == "" {
		defaultProvider = "cod"
	}
	return &CheckoutService{
		catalog:         catalog,
		orders:          orders,
		provider:        provider,
		defaultProvider: defaultProvider,
	}
}

// StartInput is the checkout form payload plus the request origin the
// hosted page should return to.
type StartInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Provider  string `json:"provider"`

	Origin string `json:"-"`
}

// StartResult is either a redirect to the hosted payment page or, for
// cash on delivery, the created order and a local success URL.
type StartResult struct {
	Provider    string       `json:"provider"`
	RedirectURL string       `json:"redirectUrl"`
	Order       *order.Order `json:"order,omitempty"`
	CartCleared bool         `json:"-"`
}

// Start validates the cart against live stock and opens the checkout.
// Hosted payment leaves the cart intact until Complete; the COD path
// creates the order immediately and clears the cart.
func (s *CheckoutService) Start(ctx context.Context, store cart.Store, in StartInput) (*StartResult, error) {
	c := store.Load()
	if len(c.Items) == 0 {
		return nil, badRequest("Cart is empty")
	}

	products, err := s.loadCart(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := checkStock(c, products); err != nil {
		return nil, err
	}

	prov := in.Provider
	if prov == "" {
		prov = s.defaultProvider
	}

	if prov == "stripe" && s.provider.Enabled() {
		items := make([]payment.LineItem, 0, len(c.Items))
		for _, it := range c.Items {
			p := products[it.ProductID]
			items = append(items, payment.LineItem{
				Name:            p.Name,
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				UnitAmountMinor: minorUnits(p.Price),
			})
		}
		itemsJSON, err := json.Marshal(c.Items)
		if err != nil {
			return nil, err
		}
		url, err := s.provider.CreateSession(payment.SessionRequest{
			Items: items,
			Customer: payment.CustomerInput{
				Email:    in.Email,
				FullName: strings.TrimSpace(in.FirstName + " " + in.LastName),
				Address1: in.Address1,
				Address2: in.Address2,
				City:     in.City,
				Postcode: in.Postcode,
				Country:  in.Country,
			},
			Metadata: map[string]string{
				cartMetadataKey: string(itemsJSON),
				"first_name":    in.FirstName,
				"last_name":     in.LastName,
				"address_1":     in.Address1,
				"address_2":     in.Address2,
				"city":          in.City,
				"postcode":      in.Postcode,
				"country":       in.Country,
			},
			SuccessURL: in.Origin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  in.Origin + "/checkout/cancel",
		})
		if err != nil {
			return nil, err
		}
		return &StartResult{Provider: "stripe", RedirectURL: url}, nil
	}

	addr := &order.Address{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address1:  in.Address1,
		Address2:  in.Address2,
		City:      in.City,
		Postcode:  in.Postcode,
		Country:   in.Country,
		Email:     in.Email,
	}
	shipping := *addr
	shipping.Email = ""
	created, err := s.orders.Create(ctx, &order.Payload{
		PaymentMethod:      "cod",
		PaymentMethodTitle: "Cash on delivery",
		SetPaid:            false,
		LineItems:          lineItems(c),
		Billing:            addr,
		Shipping:           &shipping,
	})
	if err != nil {
		return nil, err
	}
	store.Save(cart.Empty())
	return &StartResult{
		Provider:    "cod",
		RedirectURL: fmt.Sprintf("/checkout/success?orderId=%d", created.ID),
		Order:       created,
		CartCleared: true,
	}, nil
}

// Complete finalizes a paid session: verifies the payment status,
// recovers the cart from session metadata (falling back to the session
// line items), creates the order and clears the cart.
func (s *CheckoutService) Complete(ctx context.Context, store cart.Store, sessionID string) (*order.Order, error) {
	if !s.provider.Enabled() {
		return nil, badRequest("Stripe not configured")
	}
	if sessionID == "" {
		return nil, badRequest("Missing session_id")
	}

	ses, err := s.provider.RetrieveSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !ses.Paid {
		return nil, conflict("Payment not completed")
	}

	items := itemsFromMetadata(ses.Metadata)
	if len(items) == 0 {
		fallback, err := s.provider.SessionItems(sessionID)
		if err != nil {
			zap.L().Warn("session line item fallback failed",
				zap.String("session", sessionID), zap.Error(err))
		}
		for _, it := range fallback {
			items = append(items, order.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("unable to determine items for order")
	}

	billing := billingFromSession(ses)
	var shipping *order.Address
	if billing != nil {
		cp := *billing
		shipping = &cp
	}

	created, err := s.orders.Create(ctx, &order.Payload{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Stripe",
		SetPaid:            true,
		Status:             "processing",
		LineItems:          items,
		Billing:            billing,
		Shipping:           shipping,
		MetaData: []order.Meta{
			{Key: "stripe_session_id", Value: sessionID},
			{Key: "stripe_payment_intent", Value: ses.PaymentIntentID},
		},
	})
	if err != nil {
		return nil, err
	}
	store.Save(cart.Empty())
	return created, nil
}

// Methods lists the payment method names the hosted provider will show.
// Unconfigured or failing providers yield an empty list.
func (s *CheckoutService) Methods() []string {
	return s.provider.Methods()
}

func (s *CheckoutService) loadCart(ctx context.Context, c cart.Cart) (map[int64]product.Product, error) {
	ids := c.ProductIDs()
	list, err := s.catalog.List(ctx, product.ListQuery{Include: ids, PerPage: len(ids)})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]product.Product, len(list))
	for i := range list {
		out[list[i].ID] = list[i]
	}
	return out, nil
}

func checkStock(c cart.Cart, products map[int64]product.Product) error {
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return conflict(fmt.Sprintf("Product %d not found", it.ProductID))
		}
		if p.StockStatus != "" && p.StockStatus != product.StockInStock {
			return conflict(fmt.Sprintf("%s is out of stock", p.Name))
		}
		if p.StockQuantity != nil && int64(it.Quantity) > *p.StockQuantity {
			return conflict(fmt.Sprintf("Only %d of %s in stock", *p.StockQuantity, p.Name))
		}
	}
	return nil
}

// minorUnits converts a price string like "12.34" to cents.
func minorUnits(price string) int64 {
	n, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(n * 100))
}

func lineItems(c cart.Cart) []order.LineItem {
	out := make([]order.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, order.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// billingFromSession splits the hosted page's single name field the way
// the storefront did: last word becomes the last name.
func billingFromSession(ses *payment.SessionResult) *order.Address {
	if ses.CustomerName == "" && ses.CustomerEmail == "" {
		return nil
	}
	words := strings.Fields(ses.CustomerName)
	first, last := ses.CustomerName, ""
	if len(words) > 1 {
		first = strings.Join(words[:len(words)-1], " ")
		last = words[len(words)-1]
	}
	return &order.Address{
		FirstName: first,
		LastName:  last,
		Address1:  ses.Address1,
		Address2:  ses.Address2,
		City:      ses.City,
		Postcode:  ses.Postcode,
		Country:   ses.Country,
		Email:     ses.CustomerEmail,
	}
}

func itemsFromMetadata(meta map[string]string) []order.LineItem {
	raw, ok := meta[cartMetadataKey]
	if !ok || raw == "" {
		return nil
	}
	var items []cart.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]order.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, order.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
