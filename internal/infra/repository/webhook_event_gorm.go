package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type WebhookEventGormRepository struct {
	db *gorm.DB
}

func NewWebhookEventGormRepository(db *gorm.DB) *WebhookEventGormRepository {
	return &WebhookEventGormRepository{db: db}
}

// event_idユニーク。既処理はErrDuplicate。
func (r *WebhookEventGormRepository) Create(ctx context.Context, event model.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		var existing model.WebhookEvent
		retryErr := r.db.WithContext(ctx).
			Where("event_id = ?", event.EventID).
			First(&existing).Error
		if retryErr == nil {
			return repo.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *WebhookEventGormRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
