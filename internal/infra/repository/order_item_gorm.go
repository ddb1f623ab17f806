package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	return nil
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}

// 注文ステータスを問わず、ユーザーが注文済みの映画ID（重複なし）
func (r *OrderItemGormRepository) ListMovieIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("join orders on orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Distinct("order_items.movie_id").
		Pluck("order_items.movie_id", &ids).Error
	if err != nil {
		return []int64{}, err
	}
	return ids, nil
}

func (r *OrderItemGormRepository) CountByOrderID(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
