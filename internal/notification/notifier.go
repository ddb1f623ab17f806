package notification

import "context"

// メール通知の契約。fire-and-forget前提で、呼び出し側は失敗をログに
// 落とすだけにする（業務トランザクションを巻き戻さない）。
type Notifier interface {
	Send(ctx context.Context, recipient string, subject string, body string) error
}
