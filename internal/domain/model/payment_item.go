package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 支払い作成時点のOrderItemスナップショット（監査用）
type PaymentItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID      int64           `gorm:"not null;index" json:"payment_id"`
	OrderItemID    int64           `gorm:"not null;index" json:"order_item_id"`
	PriceAtPayment decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_payment"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
