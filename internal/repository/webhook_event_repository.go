package repository

import (
	"app/internal/domain/model"
	"context"
)

type WebhookEventRepository interface {
	// 既処理ならErrDuplicate（event_idユニーク）
	Create(ctx context.Context, event model.WebhookEvent) error
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
}
