// Package payment wraps the optional Stripe integration behind a
// capability holder: constructed once at startup from config, checked
// with Enabled instead of per-call conditionals.
package payment

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/kaabmedia/Vdubscards/internal/config"
)

// methodWhitelist is the fixed set of payment method keys surfaced to the
// frontend, in display order.
var methodWhitelist = []string{
	"card", "ideal", "klarna", "bancontact", "giropay",
	"eps", "sofort", "paypal", "apple_pay", "link",
}

// LineItem is one hosted-checkout line derived from the cart.
type LineItem struct {
	Name            string
	ProductID       int64
	Quantity        int
	UnitAmountMinor int64
}

// CustomerInput is the optional billing prefill from the checkout form.
type CustomerInput struct {
	Email    string
	FullName string
	Address1 string
	Address2 string
	City     string
	Postcode string
	Country  string
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	Items      []LineItem
	Customer   CustomerInput
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// SessionResult is the readback this system cares about after payment.
type SessionResult struct {
	Paid            bool
	Metadata        map[string]string
	PaymentIntentID string
	CustomerName    string
	CustomerEmail   string
	Address1        string
	Address2        string
	City            string
	Postcode        string
	Country         string
}

// SessionItem is a line item read back from a session, used as fallback
// when the cart metadata is missing.
type SessionItem struct {
	ProductID int64
	Quantity  int
}

// Provider is the Stripe capability. The zero/unconfigured state is a
// valid Provider that reports Enabled()==false.
type Provider struct {
	api              *client.API
	currency         string
	allowedCountries []string
}

// New builds the provider. An empty secret key yields the unconfigured
// variant.
func New(cfg config.StripeConfig) *Provider {
	p := &Provider{
		currency:         cfg.Currency,
		allowedCountries: cfg.AllowedCountries,
	}
	if cfg.SecretKey == "" {
		return p
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	p.api = api
	return p
}

// Enabled reports whether a secret key was configured.
func (p *Provider) Enabled() bool { return p != nil && p.api != nil }

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

// ensureCustomer looks up, updates or creates a Stripe customer so the
// hosted page can prefill details. Best effort: any failure returns "".
func (p *Provider) ensureCustomer(in CustomerInput) string {
	if in.Email == "" {
		return ""
	}
	addr := &stripe.AddressParams{
		Line1:      strOrNil(in.Address1),
		Line2:      strOrNil(in.Address2),
		City:       strOrNil(in.City),
		PostalCode: strOrNil(in.Postcode),
		Country:    strOrNil(in.Country),
	}
	var shipping *stripe.CustomerShippingParams
	if in.FullName != "" || in.Address1 != "" {
		shipping = &stripe.CustomerShippingParams{
			Name:    stripe.String(in.FullName),
			Address: addr,
		}
	}

	listParams := &stripe.CustomerListParams{Email: stripe.String(in.Email)}
	listParams.Limit = stripe.Int64(1)
	it := p.api.Customers.List(listParams)
	if it.Next() {
		existing := it.Customer()
		_, err := p.api.Customers.Update(existing.ID, &stripe.CustomerParams{
			Name:     strOrNil(in.FullName),
			Address:  addr,
			Shipping: shipping,
		})
		if err != nil {
			return ""
		}
		return existing.ID
	}
	created, err := p.api.Customers.New(&stripe.CustomerParams{
		Email:    stripe.String(in.Email),
		Name:     strOrNil(in.FullName),
		Address:  addr,
		Shipping: shipping,
	})
	if err != nil {
		return ""
	}
	return created.ID
}

// CreateSession creates a hosted Checkout Session and returns its
// redirect URL.
func (p *Provider) CreateSession(req SessionRequest) (string, error) {
	if !p.Enabled() {
		return "", fmt.Errorf("stripe not configured")
	}

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.currency),
				UnitAmount: stripe.Int64(item.UnitAmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						"wc_product_id": fmt.Sprintf("%d", item.ProductID),
					},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.allowedCountries),
		},
		CustomerUpdate: &stripe.CheckoutSessionCustomerUpdateParams{
			Name:     stripe.String("auto"),
			Address:  stripe.String("auto"),
			Shipping: stripe.String("auto"),
		},
		LineItems:  lines,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	if customerID := p.ensureCustomer(req.Customer); customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if req.Customer.Email != "" {
		params.CustomerEmail = stripe.String(req.Customer.Email)
		params.CustomerCreation = stripe.String(string(stripe.CheckoutSessionCustomerCreationIfRequired))
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// RetrieveSession reads back the session state after the customer
// returns from the hosted page.
func (p *Provider) RetrieveSession(sessionID string) (*SessionResult, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("stripe not configured")
	}
	session, err := p.api.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		return nil, err
	}
	out := &SessionResult{
		Paid:     session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: session.Metadata,
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	if cd := session.CustomerDetails; cd != nil {
		out.CustomerName = cd.Name
		out.CustomerEmail = cd.Email
		if cd.Address != nil {
			out.Address1 = cd.Address.Line1
			out.Address2 = cd.Address.Line2
			out.City = cd.Address.City
			out.Postcode = cd.Address.PostalCode
			out.Country = cd.Address.Country
		}
	}
	return out, nil
}

// SessionItems lists the session line items and maps them back to
// catalog product ids via the product metadata set at creation.
func (p *Provider) SessionItems(sessionID string) ([]SessionItem, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("stripe not configured")
	}
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.price.product")

	var out []SessionItem
	it := p.api.CheckoutSessions.ListLineItems(params)
	for it.Next() {
		li := it.LineItem()
		if li.Price == nil || li.Price.Product == nil {
			continue
		}
		var pid int64
		fmt.Sscanf(li.Price.Product.Metadata["wc_product_id"], "%d", &pid)
		if pid > 0 && li.Quantity > 0 {
			out = append(out, SessionItem{ProductID: pid, Quantity: int(li.Quantity)})
		}
	}
	return out, it.Err()
}

// Methods returns the enabled payment method keys from the default
// payment method configuration, filtered by the whitelist. Unconfigured
// or failing lookups yield an empty list, never an error response.
func (p *Provider) Methods() []string {
	if !p.Enabled() {
		return []string{}
	}
	it := p.api.PaymentMethodConfigurations.List(&stripe.PaymentMethodConfigurationListParams{})
	var def *stripe.PaymentMethodConfiguration
	for it.Next() {
		cfg := it.PaymentMethodConfiguration()
		if def == nil || cfg.IsDefault {
			def = cfg
		}
		if cfg.IsDefault {
			break
		}
	}
	if it.Err() != nil || def == nil {
		return []string{}
	}

	type flag struct {
		available bool
		display   string
	}
	flags := map[string]flag{}
	if m := def.Card; m != nil && m.DisplayPreference != nil {
		flags["card"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.IDEAL; m != nil && m.DisplayPreference != nil {
		flags["ideal"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Klarna; m != nil && m.DisplayPreference != nil {
		flags["klarna"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Bancontact; m != nil && m.DisplayPreference != nil {
		flags["bancontact"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Giropay; m != nil && m.DisplayPreference != nil {
		flags["giropay"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.EPS; m != nil && m.DisplayPreference != nil {
		flags["eps"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Sofort; m != nil && m.DisplayPreference != nil {
		flags["sofort"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Paypal; m != nil && m.DisplayPreference != nil {
		flags["paypal"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.ApplePay; m != nil && m.DisplayPreference != nil {
		flags["apple_pay"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}
	if m := def.Link; m != nil && m.DisplayPreference != nil {
		flags["link"] = flag{m.Available, string(m.DisplayPreference.Value)}
	}

	enabled := []string{}
	for _, key := range methodWhitelist {
		if f, ok := flags[key]; ok && f.available && f.display == "on" {
			enabled = append(enabled, key)
		}
	}
	return enabled
}
