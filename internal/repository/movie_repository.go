package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ユニーク制約違反（重複カート明細・重複支払いなど）
	ErrDuplicate = errors.New("duplicate")
)

// 映画カタログの読み取りだけを約束。書き込みはカタログ側の責務。
type MovieRepository interface {
	FindByID(ctx context.Context, movieID int64) (model.Movie, error)
	// ジャンル込みで取得（カート一覧のプロジェクション用）
	FindByIDWithGenres(ctx context.Context, movieID int64) (model.Movie, error)
}
