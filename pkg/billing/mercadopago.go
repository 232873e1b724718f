package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// Mercado Pago notification headers.
const (
	MercadoPagoSignatureHeader = "X-Signature"
	MercadoPagoRequestIDHeader = "X-Request-Id"
)

// MercadoPagoConfig holds Mercado Pago credentials and endpoints.
type MercadoPagoConfig struct {
	AccessToken   string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	WebhookSecret string `env:"MERCADOPAGO_WEBHOOK_SECRET"`
	// AllowUnsigned accepts notifications without an x-signature check when
	// WebhookSecret is empty. Meant for local development only.
	AllowUnsigned   bool          `env:"MERCADOPAGO_ALLOW_UNSIGNED"`
	BaseURL         string        `env:"MERCADOPAGO_BASE_URL" envDefault:"https://api.mercadopago.com"`
	Timeout         time.Duration `env:"MERCADOPAGO_TIMEOUT" envDefault:"10s"`
	NotificationURL string        `env:"MERCADOPAGO_NOTIFICATION_URL"`
	SuccessURL      string        `env:"MERCADOPAGO_SUCCESS_URL"`
	FailureURL      string        `env:"MERCADOPAGO_FAILURE_URL"`
	PendingURL      string        `env:"MERCADOPAGO_PENDING_URL"`
}

// Enabled reports whether the gateway can be called.
func (c MercadoPagoConfig) Enabled() bool {
	return c.AccessToken != ""
}

// MercadoPago is the Mercado Pago gateway provider.
type MercadoPago struct {
	cfg     MercadoPagoConfig
	catalog *subscription.Catalog
	api     *restClient
}

// NewMercadoPago creates the provider. An empty webhook secret is refused
// unless cfg.AllowUnsigned is set.
func NewMercadoPago(cfg MercadoPagoConfig, catalog *subscription.Catalog) (*MercadoPago, error) {
	if !cfg.Enabled() {
		return nil, errors.Join(ErrProviderNotConfigured, errors.New("mercado pago access token is required"))
	}
	if cfg.WebhookSecret == "" && !cfg.AllowUnsigned {
		return nil, errors.Join(ErrProviderNotConfigured, ErrWebhookSecretMissing)
	}
	if catalog == nil {
		catalog = subscription.DefaultCatalog()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	api := newRESTClient("mercadopago", cfg.BaseURL, cfg.Timeout, nil)
	api.http.SetAuthToken(cfg.AccessToken)

	return &MercadoPago{cfg: cfg, catalog: catalog, api: api}, nil
}

func (m *MercadoPago) Name() subscription.Provider {
	return subscription.ProviderMercadoPago
}

type mercadoPagoNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID flexID `json:"id"`
	} `json:"data"`
}

// flexID accepts both JSON strings and numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Unsigned reports whether webhooks are accepted without verification.
func (m *MercadoPago) Unsigned() bool {
	return m.cfg.WebhookSecret == ""
}

// VerifyWebhook checks the x-signature header: ts=<unix>,v1=<hex hmac-sha256>
// over "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (m *MercadoPago) VerifyWebhook(payload []byte, header http.Header) error {
	if m.cfg.WebhookSecret == "" {
		return nil
	}

	ts, v1 := parseMercadoPagoSignature(header.Get(MercadoPagoSignatureHeader))
	if ts == "" || v1 == "" {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("malformed x-signature header"))
	}

	var n mercadoPagoNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return errors.Join(ErrWebhookVerificationFailed, ErrInvalidPayload, err)
	}

	manifest := mercadoPagoManifest(string(n.Data.ID), header.Get(MercadoPagoRequestIDHeader), ts)
	mac := hmac.New(sha256.New, []byte(m.cfg.WebhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("signature mismatch"))
	}
	return nil
}

func parseMercadoPagoSignature(h string) (ts, v1 string) {
	for part := range strings.SplitSeq(h, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			ts = strings.TrimSpace(v)
		case "v1":
			v1 = strings.TrimSpace(v)
		}
	}
	return ts, v1
}

func mercadoPagoManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&b, "ts:%s;", ts)
	return b.String()
}

type mercadoPagoPayment struct {
	ID                flexID  `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	Description       string  `json:"description"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	DateApproved      string  `json:"date_approved"`
	DateLastUpdated   string  `json:"date_last_updated"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
	Metadata struct {
		Plan   string `json:"plan"`
		UserID string `json:"user_id"`
	} `json:"metadata"`
	PreapprovalID string `json:"preapproval_id"`
}

// ParseEvent fetches the payment a notification points at and normalizes it.
// Notifications for anything other than payments are ignored.
func (m *MercadoPago) ParseEvent(ctx context.Context, payload []byte, _ http.Header) (*subscription.Event, error) {
	var n mercadoPagoNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if n.Type != "payment" {
		return nil, nil
	}
	if n.Data.ID == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("payment id is missing"))
	}

	var p mercadoPagoPayment
	if err := m.api.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(string(n.Data.ID)), nil, &p); err != nil {
		return nil, errors.Join(subscription.ErrProviderError, err)
	}
	return m.paymentEvent(&p, n.Action), nil
}

func (m *MercadoPago) paymentEvent(p *mercadoPagoPayment, action string) *subscription.Event {
	kind := mercadoPagoKind(p.Status)
	ev := &subscription.Event{
		Kind:                   kind,
		Provider:               subscription.ProviderMercadoPago,
		UserID:                 firstNonEmpty(p.ExternalReference, p.Metadata.UserID),
		Email:                  p.Payer.Email,
		Plan:                   subscription.Plan(strings.ToLower(p.Metadata.Plan)),
		ProductName:            p.Description,
		TransactionID:          historyKey(string(p.ID), kind),
		ProviderSubscriptionID: p.PreapprovalID,
		ProviderEvent:          firstNonEmpty(action, "payment") + ":" + p.Status,
		Amount:                 p.TransactionAmount,
		Currency:               p.CurrencyID,
	}
	if !ev.Plan.Valid() {
		ev.Plan = subscription.PlanNone
	}
	for _, ts := range []string{p.DateApproved, p.DateLastUpdated} {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.OccurredAt = t.UTC()
			break
		}
	}
	return ev
}

func mercadoPagoKind(status string) subscription.EventKind {
	switch status {
	case "approved":
		return subscription.EventPurchaseApproved
	case "cancelled":
		return subscription.EventPurchaseCancelled
	case "refunded":
		return subscription.EventPurchaseRefunded
	case "charged_back":
		return subscription.EventPurchaseChargedBack
	case "pending", "in_process":
		return subscription.EventPaymentDelayed
	default:
		return subscription.EventKind("mercadopago." + status)
	}
}

type mercadoPagoPreference struct {
	Items             []mercadoPagoItem `json:"items"`
	Payer             map[string]string `json:"payer"`
	ExternalReference string            `json:"external_reference"`
	Metadata          map[string]string `json:"metadata"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
}

type mercadoPagoItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// CreateCheckout creates a checkout preference and returns its init point.
func (m *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	info, err := m.catalog.Lookup(req.Plan)
	if err != nil {
		return nil, err
	}

	pref := mercadoPagoPreference{
		Items: []mercadoPagoItem{{
			ID:         string(info.Plan),
			Title:      info.Name,
			Quantity:   1,
			UnitPrice:  info.Price,
			CurrencyID: info.Currency,
		}},
		Payer:             map[string]string{"email": req.Email},
		ExternalReference: req.UserID,
		Metadata:          map[string]string{"plan": string(req.Plan), "user_id": req.UserID},
		NotificationURL:   m.cfg.NotificationURL,
	}
	success := firstNonEmpty(req.SuccessURL, m.cfg.SuccessURL)
	if success != "" {
		pref.BackURLs = map[string]string{
			"success": success,
			"failure": firstNonEmpty(m.cfg.FailureURL, success),
			"pending": firstNonEmpty(m.cfg.PendingURL, success),
		}
		pref.AutoReturn = "approved"
	}

	var out struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		DateOfExpiration string `json:"date_of_expiration"`
	}
	if err := m.api.do(ctx, http.MethodPost, "/checkout/preferences", pref, &out); err != nil {
		return nil, errors.Join(ErrCheckoutFailed, subscription.ErrProviderError, err)
	}
	if out.InitPoint == "" {
		return nil, errors.Join(ErrCheckoutFailed, subscription.ErrProviderError, errors.New("no init_point returned"))
	}

	link := &CheckoutLink{URL: out.InitPoint, PreferenceID: out.ID}
	if t, err := time.Parse(time.RFC3339Nano, out.DateOfExpiration); err == nil {
		link.ExpiresAt = t.UTC()
	}
	return link, nil
}

// CancelRecurring cancels a preapproval.
func (m *MercadoPago) CancelRecurring(ctx context.Context, preapprovalID string) error {
	if preapprovalID == "" {
		return ErrMissingSubscriptionID
	}
	body := map[string]string{"status": "cancelled"}
	if err := m.api.do(ctx, http.MethodPut, "/preapproval/"+url.PathEscape(preapprovalID), body, nil); err != nil {
		return errors.Join(ErrCancelFailed, err)
	}
	return nil
}
