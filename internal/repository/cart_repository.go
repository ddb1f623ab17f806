package repository

import (
	"app/internal/domain/model"
	"context"
)

type CartRepository interface {
	// 無ければ作る。user_idユニーク前提でcreate失敗時は再読込。
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// FOR UPDATEで取得。同一ユーザーの注文作成を直列化するためのロック。
	FindByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error)
	Clear(ctx context.Context, cartID int64) error
}
