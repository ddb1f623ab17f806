package model

import "time"

// 処理済みwebhookイベントの台帳。再配送は同じevent_idで来るので
// ユニーク制約で二重適用を防ぐ。
type WebhookEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"event_id"`
	Type      string    `gorm:"type:varchar(100);not null" json:"type"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
