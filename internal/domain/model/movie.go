package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カタログ側が所有する。コアは参照のみ（存在・価格・名前）。
type Movie struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Year      int             `gorm:"not null" json:"year"`
	Genres    []Genre         `gorm:"many2many:movie_genres" json:"genres"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Genre struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}
