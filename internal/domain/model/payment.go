package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentStatusCanceled   PaymentStatus = "CANCELED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// 1注文につき支払いは1件（order_idユニーク）。
// external_payment_idはプロバイダ側セッションIDで、webhook照合キー。
type Payment struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"not null;index" json:"user_id"`
	OrderID           int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	ExternalPaymentID string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"external_payment_id"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
