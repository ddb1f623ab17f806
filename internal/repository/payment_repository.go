package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 支払い履歴の絞り込み
type PaymentListFilter struct {
	UserID *int64
	Status string
	From   *time.Time
	To     *time.Time
}

type PaymentRepository interface {
	// order_idユニーク。既存ありはErrDuplicate。
	Create(ctx context.Context, payment model.Payment) (int64, error)
	ExistsByOrderID(ctx context.Context, orderID int64) (bool, error)
	// FOR UPDATEで取得。webhook再配送と返金の同時実行を直列化するロック。
	FindByExternalIDForUpdate(ctx context.Context, externalPaymentID string) (model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error
	List(ctx context.Context, f PaymentListFilter) ([]model.Payment, error)
}

type PaymentItemRepository interface {
	CreateBulk(ctx context.Context, paymentID int64, items []model.PaymentItem) error
}
