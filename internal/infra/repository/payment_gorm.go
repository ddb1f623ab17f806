package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

// order_idユニーク。create失敗時に既存行が見えたら重複として返す。
// checkして→insertだけに頼らず、DBの制約で競合を閉じる。
func (r *PaymentGormRepository) Create(ctx context.Context, payment model.Payment) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&payment).Error; err != nil {
		var existing model.Payment
		retryErr := r.db.WithContext(ctx).
			Where("order_id = ?", payment.OrderID).
			First(&existing).Error
		if retryErr == nil {
			return 0, repo.ErrDuplicate
		}
		return 0, err
	}
	return payment.ID, nil
}

func (r *PaymentGormRepository) ExistsByOrderID(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FOR UPDATEで支払い行をロック。webhookの同時・重複配送と
// 同一支払いへの同時返金を直列化する。
func (r *PaymentGormRepository) FindByExternalIDForUpdate(ctx context.Context, externalPaymentID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_payment_id = ?", externalPaymentID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentGormRepository) List(ctx context.Context, f repo.PaymentListFilter) ([]model.Payment, error) {
	q := r.db.WithContext(ctx).Model(&model.Payment{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var items []model.Payment
	if err := q.Order("id desc").Find(&items).Error; err != nil {
		return []model.Payment{}, err
	}
	return items, nil
}

type PaymentItemGormRepository struct {
	db *gorm.DB
}

func NewPaymentItemGormRepository(db *gorm.DB) *PaymentItemGormRepository {
	return &PaymentItemGormRepository{db: db}
}

func (r *PaymentItemGormRepository) CreateBulk(ctx context.Context, paymentID int64, items []model.PaymentItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].PaymentID = paymentID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	return nil
}
