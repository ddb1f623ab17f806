package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type MovieGormRepository struct {
	db *gorm.DB
}

func NewMovieGormRepository(db *gorm.DB) *MovieGormRepository {
	return &MovieGormRepository{db: db}
}

func (r *MovieGormRepository) FindByID(ctx context.Context, movieID int64) (model.Movie, error) {
	var m model.Movie
	err := r.db.WithContext(ctx).Where("id = ?", movieID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Movie{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

// ジャンル込みで取得
func (r *MovieGormRepository) FindByIDWithGenres(ctx context.Context, movieID int64) (model.Movie, error) {
	var m model.Movie
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Where("id = ?", movieID).
		First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Movie{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Movie{}, err
	}
	return m, nil
}
