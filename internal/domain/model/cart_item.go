package model

import "time"

// カートの明細
// 同一カート内で同じ映画は1件まで（cart_id, movie_idユニーク）。
type CartItem struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID  int64     `gorm:"not null;index;uniqueIndex:uq_cart_movie" json:"cart_id"`
	MovieID int64     `gorm:"not null;index;uniqueIndex:uq_cart_movie" json:"movie_id"`
	AddedAt time.Time `gorm:"not null;autoCreateTime" json:"added_at"`
}
