package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// 外部決済プロバイダとの契約。実装はinternal/infra/gateway。
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error)
	// セッションから決済インテントIDを引く（返金時に必要）
	RetrievePaymentIntentID(ctx context.Context, sessionID string) (string, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amountMinor int64) error
	// 受信webhookの検証とパース。署名不一致・壊れたJSONはエラー。
	ParseEvent(payload []byte, signatureHeader string) (WebhookEvent, error)
}

type CheckoutSessionInput struct {
	ProductName string
	AmountMinor int64
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// プロバイダ非依存のイベント表現。
// ObjectIDはdata.object.id（checkoutセッションID）で、external_payment_idと突き合わせる。
type WebhookEvent struct {
	ID       string
	Type     string
	ObjectID string
}

// 金額をプロバイダのminor unit（セント）整数へ。
// DECIMAL(10,2)前提でRound(2)してから100倍する。浮動小数点は通さない。
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}
