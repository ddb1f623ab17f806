package notification

import (
	"context"
	"log"
)

// AMQP_URL未設定時のフォールバック。標準ログに出すだけ。
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, recipient string, subject string, body string) error {
	log.Printf("notification: to=%s subject=%q body=%q", recipient, subject, body)
	return nil
}
