package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/config"
	gw "app/internal/gateway"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// プロバイダ呼び出しの上限時間。超えたらGatewayエラー扱い。
const callTimeout = 15 * time.Second

// Stripe実装。APIキーはプロセスグローバルに置かず、configから注入した
// clientに持たせる。
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

func NewStripeGateway(cfg config.Config) *StripeGateway {
	sc := &client.API{}
	sc.Init(cfg.StripeSecretKey, nil)

	return &StripeGateway{
		sc:            sc,
		webhookSecret: cfg.StripeWebhookSecret,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in gw.CheckoutSessionInput) (gw.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.ProductName),
					},
					UnitAmount: stripe.Int64(in.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return gw.CheckoutSession{}, fmt.Errorf("stripe checkout session create: %w", err)
	}

	return gw.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) RetrievePaymentIntentID(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	s, err := g.sc.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", fmt.Errorf("stripe session retrieve: %w", err)
	}
	if s.PaymentIntent == nil || s.PaymentIntent.ID == "" {
		return "", errors.New("stripe session has no payment intent")
	}

	return s.PaymentIntent.ID, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, paymentIntentID string, amountMinor int64) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	ref, err := g.sc.Refunds.New(&stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountMinor),
	})
	if err != nil {
		return fmt.Errorf("stripe refund create: %w", err)
	}
	if ref.Status == stripe.RefundStatusFailed {
		return fmt.Errorf("stripe refund failed: %s", ref.FailureReason)
	}

	return nil
}

// webhookペイロードの検証とパース。
// シークレット設定時は署名検証、未設定時はJSONをそのまま読む。
func (g *StripeGateway) ParseEvent(payload []byte, signatureHeader string) (gw.WebhookEvent, error) {
	if g.webhookSecret != "" {
		ev, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
		if err != nil {
			return gw.WebhookEvent{}, fmt.Errorf("stripe webhook verify: %w", err)
		}

		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
			return gw.WebhookEvent{}, fmt.Errorf("stripe webhook object parse: %w", err)
		}

		return gw.WebhookEvent{ID: ev.ID, Type: string(ev.Type), ObjectID: obj.ID}, nil
	}

	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return gw.WebhookEvent{}, fmt.Errorf("webhook payload parse: %w", err)
	}
	if raw.Type == "" {
		return gw.WebhookEvent{}, errors.New("webhook payload has no type")
	}

	return gw.WebhookEvent{ID: raw.ID, Type: raw.Type, ObjectID: raw.Data.Object.ID}, nil
}
