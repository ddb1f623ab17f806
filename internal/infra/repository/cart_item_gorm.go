package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// (cart_id, movie_id)ユニーク。
// create失敗時に既存行が見えたら重複として返す（エラーコードは見ない）。
func (r *CartItemGormRepository) Create(ctx context.Context, cartID int64, movieID int64) (model.CartItem, error) {
	item := model.CartItem{
		CartID:  cartID,
		MovieID: movieID,
		AddedAt: time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		var existing model.CartItem
		retryErr := r.db.WithContext(ctx).
			Where("cart_id = ? AND movie_id = ?", cartID, movieID).
			First(&existing).Error
		if retryErr == nil {
			return model.CartItem{}, repo.ErrDuplicate
		}
		return model.CartItem{}, err
	}

	return item, nil
}

// 本人のカートに属する明細だけを対象にする
func (r *CartItemGormRepository) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("join carts on carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", cartItemID, userID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定ユーザーのカート明細（管理者用の詳細表示）
func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	err := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("join carts on carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Order("cart_items.id asc").
		Find(&items).Error

	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}
