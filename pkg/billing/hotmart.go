package billing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// HotmartHottokHeader carries the shared webhook secret on v2 deliveries.
const HotmartHottokHeader = "X-Hotmart-Hottok"

// HotmartConfig holds Hotmart credentials and endpoints.
type HotmartConfig struct {
	Hottok          string        `env:"HOTMART_HOTTOK"`
	ClientID        string        `env:"HOTMART_CLIENT_ID"`
	ClientSecret    string        `env:"HOTMART_CLIENT_SECRET"`
	TokenURL        string        `env:"HOTMART_TOKEN_URL" envDefault:"https://api-sec-vlc.hotmart.com/security/oauth/token"`
	APIBaseURL      string        `env:"HOTMART_API_BASE_URL" envDefault:"https://developers.hotmart.com"`
	CheckoutBaseURL string        `env:"HOTMART_CHECKOUT_BASE_URL" envDefault:"https://pay.hotmart.com"`
	Timeout         time.Duration `env:"HOTMART_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether webhooks can be authenticated.
func (c HotmartConfig) Enabled() bool {
	return c.Hottok != ""
}

// Hotmart is the Hotmart marketplace provider.
type Hotmart struct {
	cfg     HotmartConfig
	catalog *subscription.Catalog
	api     *restClient // nil without API credentials
}

// NewHotmart creates the provider. API credentials are optional; without them
// CancelRecurring reports ErrProviderNotConfigured.
func NewHotmart(cfg HotmartConfig, catalog *subscription.Catalog) (*Hotmart, error) {
	if !cfg.Enabled() {
		return nil, errors.Join(ErrProviderNotConfigured, errors.New("hotmart hottok is required"))
	}
	if catalog == nil {
		catalog = subscription.DefaultCatalog()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	h := &Hotmart{cfg: cfg, catalog: catalog}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		h.api = newRESTClient("hotmart", cfg.APIBaseURL, cfg.Timeout, cc.Client(context.Background()))
	}
	return h, nil
}

func (h *Hotmart) Name() subscription.Provider {
	return subscription.ProviderHotmart
}

// VerifyWebhook compares the hottok header, or the body field of legacy
// payloads, with the configured secret.
func (h *Hotmart) VerifyWebhook(payload []byte, header http.Header) error {
	token := header.Get(HotmartHottokHeader)
	if token == "" {
		var legacy struct {
			Hottok string `json:"hottok"`
		}
		if err := json.Unmarshal(payload, &legacy); err == nil {
			token = legacy.Hottok
		}
	}
	if token == "" {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("missing hottok"))
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.Hottok)) != 1 {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("hottok mismatch"))
	}
	return nil
}

type hotmartNotification struct {
	ID           string      `json:"id"`
	Event        string      `json:"event"`
	Version      string      `json:"version"`
	CreationDate int64       `json:"creation_date"` // unix millis
	Data         hotmartData `json:"data"`

	// Legacy v1 flat fields.
	Status      string `json:"status"`
	Email       string `json:"email"`
	ProductName string `json:"prod_name"`
	Transaction string `json:"transaction"`
	Xcod        string `json:"xcod"`
}

type hotmartData struct {
	Product struct {
		Name string `json:"name"`
	} `json:"product"`
	Buyer    hotmartPerson `json:"buyer"`
	Purchase struct {
		Transaction string `json:"transaction"`
		Status      string `json:"status"`
		Price       struct {
			Value         float64 `json:"value"`
			CurrencyValue string  `json:"currency_value"`
		} `json:"price"`
		Offer struct {
			Code string `json:"code"`
		} `json:"offer"`
		Origin struct {
			Xcod string `json:"xcod"`
		} `json:"origin"`
	} `json:"purchase"`
	Subscription struct {
		Subscriber struct {
			Code string `json:"code"`
		} `json:"subscriber"`
		Plan struct {
			Name string `json:"name"`
		} `json:"plan"`
	} `json:"subscription"`

	// SUBSCRIPTION_CANCELLATION deliveries carry the subscriber here.
	Subscriber struct {
		hotmartPerson
		Code string `json:"code"`
	} `json:"subscriber"`
}

type hotmartPerson struct {
	Email string `json:"email"`
}

// ParseEvent normalizes v2 and legacy v1 Hotmart notifications.
func (h *Hotmart) ParseEvent(_ context.Context, payload []byte, _ http.Header) (*subscription.Event, error) {
	var n hotmartNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	if n.Event == "" {
		return h.parseLegacy(&n)
	}

	d := n.Data
	kind := hotmartKind(n.Event)
	ev := &subscription.Event{
		Kind:                   kind,
		Provider:               subscription.ProviderHotmart,
		UserID:                 d.Purchase.Origin.Xcod,
		Email:                  d.Buyer.Email,
		ProductName:            firstNonEmpty(d.Product.Name, d.Subscription.Plan.Name),
		TransactionID:          historyKey(d.Purchase.Transaction, kind),
		ProviderSubscriptionID: firstNonEmpty(d.Subscription.Subscriber.Code, d.Subscriber.Code),
		ProviderEvent:          n.Event,
		Amount:                 d.Purchase.Price.Value,
		Currency:               d.Purchase.Price.CurrencyValue,
	}
	if ev.Email == "" {
		ev.Email = d.Subscriber.Email
	}
	if plan, ok := h.catalog.PlanByHotmartOffer(d.Purchase.Offer.Code); ok {
		ev.Plan = plan
	}
	if n.CreationDate > 0 {
		ev.OccurredAt = time.UnixMilli(n.CreationDate).UTC()
	}
	if ev.UserID == "" && ev.Email == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("hotmart event carries no buyer"))
	}
	return ev, nil
}

func (h *Hotmart) parseLegacy(n *hotmartNotification) (*subscription.Event, error) {
	if n.Status == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("hotmart event type is missing"))
	}
	status := strings.ToUpper(n.Status)
	kind := hotmartKind("PURCHASE_" + status)
	if status == "CANCELED" || status == "CANCELLED" {
		kind = subscription.EventPurchaseCancelled
	}
	ev := &subscription.Event{
		Kind:          kind,
		Provider:      subscription.ProviderHotmart,
		UserID:        n.Xcod,
		Email:         n.Email,
		ProductName:   n.ProductName,
		TransactionID: historyKey(n.Transaction, kind),
		ProviderEvent: n.Status,
	}
	if ev.UserID == "" && ev.Email == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("hotmart event carries no buyer"))
	}
	return ev, nil
}

func hotmartKind(event string) subscription.EventKind {
	switch strings.ToUpper(event) {
	case "PURCHASE_APPROVED", "PURCHASE_COMPLETE":
		return subscription.EventPurchaseApproved
	case "PURCHASE_CANCELED", "SUBSCRIPTION_CANCELLATION":
		return subscription.EventPurchaseCancelled
	case "PURCHASE_REFUNDED":
		return subscription.EventPurchaseRefunded
	case "PURCHASE_CHARGEBACK", "PURCHASE_PROTEST":
		return subscription.EventPurchaseChargedBack
	case "PURCHASE_DELAYED", "PURCHASE_EXPIRED":
		return subscription.EventPaymentDelayed
	default:
		return subscription.EventKind(event)
	}
}

// CreateCheckout links to the hosted checkout of the plan's offer.
func (h *Hotmart) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	info, err := h.catalog.Lookup(req.Plan)
	if err != nil {
		return nil, err
	}
	if info.HotmartOffer == "" {
		return nil, errors.Join(ErrPlanNotSold, fmt.Errorf("no hotmart offer for plan %s", req.Plan))
	}

	q := url.Values{}
	q.Set("email", req.Email)
	q.Set("xcod", req.UserID)
	link := strings.TrimRight(h.cfg.CheckoutBaseURL, "/") + "/" + url.PathEscape(info.HotmartOffer) + "?" + q.Encode()

	return &CheckoutLink{URL: link, PreferenceID: info.HotmartOffer}, nil
}

// CancelRecurring cancels a subscription by subscriber code.
func (h *Hotmart) CancelRecurring(ctx context.Context, subscriberCode string) error {
	if subscriberCode == "" {
		return ErrMissingSubscriptionID
	}
	if h.api == nil {
		return errors.Join(ErrProviderNotConfigured, errors.New("hotmart api credentials are not set"))
	}
	path := "/payments/api/v1/subscriptions/" + url.PathEscape(subscriberCode) + "/cancel"
	if err := h.api.do(ctx, http.MethodPost, path, map[string]any{"send_mail": true}, nil); err != nil {
		return errors.Join(ErrCancelFailed, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
