package repository

import (
	"app/internal/domain/model"
	"context"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// 注文ステータスを問わず、ユーザーが注文済みの映画ID集合
	ListMovieIDsByUserID(ctx context.Context, userID int64) ([]int64, error)
	CountByOrderID(ctx context.Context, orderID int64) (int64, error)
}
