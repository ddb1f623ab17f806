package repository

import (
	"app/internal/domain/model"
	"context"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	// カート明細削除の通知先（モデレーター全員）
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}
