package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// PaddleSignatureHeader carries the Paddle webhook signature.
const PaddleSignatureHeader = "Paddle-Signature"

// PaddleConfig holds configuration for the Paddle provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// Enabled reports whether both credentials are set.
func (c PaddleConfig) Enabled() bool {
	return c.APIKey != "" && c.WebhookSecret != ""
}

// Paddle is the Paddle billing provider.
type Paddle struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	catalog  *subscription.Catalog
}

// NewPaddle creates the provider.
func NewPaddle(cfg PaddleConfig, catalog *subscription.Catalog) (*Paddle, error) {
	if cfg.APIKey == "" {
		return nil, errors.Join(ErrProviderNotConfigured, errors.New("paddle API key is required"))
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.Join(ErrProviderNotConfigured, errors.New("paddle webhook secret is required"))
	}
	if catalog == nil {
		catalog = subscription.DefaultCatalog()
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &Paddle{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		catalog:  catalog,
	}, nil
}

func (p *Paddle) Name() subscription.Provider {
	return subscription.ProviderPaddle
}

// VerifyWebhook validates the Paddle-Signature header with the SDK verifier.
func (p *Paddle) VerifyWebhook(payload []byte, header http.Header) error {
	signature := header.Get(PaddleSignatureHeader)
	if signature == "" {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("missing paddle signature"))
	}

	// The SDK verifies an *http.Request.
	req, err := http.NewRequest(http.MethodPost, "/webhooks/paddle", bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrWebhookVerificationFailed, err)
	}
	req.Header.Set(PaddleSignatureHeader, signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return errors.Join(ErrWebhookVerificationFailed, errors.New("signature mismatch"))
	}
	return nil
}

type paddleNotification struct {
	EventID    string       `json:"event_id"`
	EventType  string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Data       paddleEntity `json:"data"`
}

type paddleEntity struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	SubscriptionID string            `json:"subscription_id"`
	CurrencyCode   string            `json:"currency_code"`
	CustomData     map[string]any    `json:"custom_data"`
	Items          []paddleEntryItem `json:"items"`
	Details        *struct {
		Totals struct {
			Total string `json:"total"` // minor units
		} `json:"totals"`
	} `json:"details"`
}

type paddleEntryItem struct {
	PriceID string `json:"price_id"`
	Price   *struct {
		ID string `json:"id"`
	} `json:"price"`
}

// ParseEvent normalizes subscription.* and transaction.* notifications.
func (p *Paddle) ParseEvent(_ context.Context, payload []byte, _ http.Header) (*subscription.Event, error) {
	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if n.EventType == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("paddle event type is missing"))
	}

	d := n.Data
	kind := paddleKind(n.EventType)
	ev := &subscription.Event{
		Kind:          kind,
		Provider:      subscription.ProviderPaddle,
		UserID:        customString(d.CustomData, "user_id"),
		Email:         customString(d.CustomData, "email"),
		ProviderEvent: n.EventType,
		Currency:      d.CurrencyCode,
		OccurredAt:    n.OccurredAt.UTC(),
	}

	switch {
	case strings.HasPrefix(n.EventType, "subscription."):
		ev.ProviderSubscriptionID = d.ID
		ev.TransactionID = historyKey(n.EventID, kind)
	case strings.HasPrefix(n.EventType, "transaction."):
		ev.ProviderSubscriptionID = d.SubscriptionID
		ev.TransactionID = historyKey(d.ID, kind)
	}

	if plan, ok := p.catalog.PlanByPaddlePrice(paddlePriceID(d.Items)); ok {
		ev.Plan = plan
	} else if plan := subscription.Plan(customString(d.CustomData, "plan")); plan.Valid() {
		ev.Plan = plan
	}
	if d.Details != nil {
		if minor, err := strconv.ParseFloat(d.Details.Totals.Total, 64); err == nil {
			ev.Amount = minor / 100
		}
	}

	if ev.UserID == "" && ev.Email == "" {
		return nil, nil
	}
	return ev, nil
}

func paddlePriceID(items []paddleEntryItem) string {
	if len(items) == 0 {
		return ""
	}
	if items[0].Price != nil && items[0].Price.ID != "" {
		return items[0].Price.ID
	}
	return items[0].PriceID
}

func customString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func paddleKind(eventType string) subscription.EventKind {
	switch eventType {
	case "transaction.completed", "subscription.created", "subscription.activated":
		return subscription.EventPurchaseApproved
	case "subscription.canceled":
		return subscription.EventPurchaseCancelled
	case "subscription.past_due", "transaction.payment_failed":
		return subscription.EventPaymentDelayed
	default:
		return subscription.EventKind(eventType)
	}
}

// CreateCheckout creates a transaction for the plan's catalog price and
// returns its hosted checkout URL.
func (p *Paddle) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	info, err := p.catalog.Lookup(req.Plan)
	if err != nil {
		return nil, err
	}
	if info.PaddlePriceID == "" {
		return nil, errors.Join(ErrPlanNotSold, fmt.Errorf("no paddle price for plan %s", req.Plan))
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  info.PaddlePriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID,
			"email":   req.Email,
			"plan":    string(req.Plan),
		},
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, errors.Join(ErrCheckoutFailed, subscription.ErrProviderError, err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, errors.Join(ErrCheckoutFailed, subscription.ErrProviderError, errors.New("no checkout URL returned from paddle"))
	}

	return &CheckoutLink{
		URL:          *transaction.Checkout.URL,
		PreferenceID: transaction.ID,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}, nil
}

// CancelRecurring schedules a Paddle subscription to cancel at the end of the
// current billing period.
func (p *Paddle) CancelRecurring(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return ErrMissingSubscriptionID
	}
	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return errors.Join(ErrCancelFailed, err)
	}
	return nil
}
