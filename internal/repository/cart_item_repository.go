package repository

import (
	"app/internal/domain/model"
	"context"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// (cart_id, movie_id)ユニーク。重複はErrDuplicateで返す。
	Create(ctx context.Context, cartID int64, movieID int64) (model.CartItem, error)
	// 本人のカートに属する明細だけを対象にする
	FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error)
	DeleteByID(ctx context.Context, cartItemID int64) error
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
}
