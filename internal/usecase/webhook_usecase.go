package usecase

import (
	"context"
	"errors"
	"log"
	"net/http"

	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/notification"
	repo "app/internal/repository"
)

// プロバイダが投げてくるイベント種別
const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventCheckoutExpired   = "checkout.session.expired"
)

// WebhookUsecase はプロバイダからのコールバックを消化して
// Payment/Orderのステータスを進める。再配送されても安全なこと。
type WebhookUsecase struct {
	tx       repo.TransactionManager
	gw       gateway.PaymentGateway
	notifier notification.Notifier
}

func NewWebhookUsecase(
	tx repo.TransactionManager,
	gw gateway.PaymentGateway,
	notifier notification.Notifier,
) *WebhookUsecase {
	return &WebhookUsecase{tx: tx, gw: gw, notifier: notifier}
}

// HandleEvent は受信ペイロードを検証してイベントを適用する。
// 壊れたペイロード・署名不一致だけが400で、未知のイベントや
// 対応する支払いが無いイベントはno-op成功（プロバイダに再送させない）。
func (u *WebhookUsecase) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := u.gw.ParseEvent(payload, signatureHeader)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}

	switch ev.Type {
	case eventCheckoutCompleted:
		return u.applyCompleted(ctx, ev)
	case eventCheckoutExpired:
		return u.applyExpired(ctx, ev)
	default:
		log.Printf("webhook: ignoring event type %s (id=%s)", ev.Type, ev.ID)
		return nil
	}
}

// checkout完了: Payment PENDING→SUCCESSFUL、Order→PAID、確認メール1通。
func (u *WebhookUsecase) applyCompleted(ctx context.Context, ev gateway.WebhookEvent) error {
	var notifyEmail string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 支払い行をロックして同一セッションの同時配送を直列化する
		p, err := r.Payments().FindByExternalIDForUpdate(ctx, ev.ObjectID)
		if errors.Is(err, repo.ErrNotFound) {
			// 知らないセッションのイベントは無視（エラーにしない）
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		processed, err := u.alreadyProcessed(ctx, r, ev)
		if err != nil {
			return err
		}
		if processed {
			return nil
		}

		// PENDING以外は終端。再適用しないし通知も出さない。
		if p.Status != model.PaymentStatusPending {
			return u.recordEvent(ctx, r, ev)
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusSuccessful); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// 注文はPENDINGのときだけPAIDへ。支払い後にキャンセル済みなら
		// CANCELEDのまま触らない（終端ステータスは上書きしない）。
		moved, err := r.Orders().UpdateStatusFrom(ctx, p.OrderID, model.OrderStatusPending, model.OrderStatusPaid)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !moved {
			log.Printf("webhook: order %d is no longer PENDING, keeping its status", p.OrderID)
		}
		if err := u.recordEvent(ctx, r, ev); err != nil {
			return err
		}

		user, err := r.Users().FindByID(ctx, p.UserID)
		if err != nil {
			// 通知先が引けなくてもステータス遷移は成立させる
			log.Printf("webhook: lookup user %d failed: %v", p.UserID, err)
			return nil
		}
		notifyEmail = user.Email
		return nil
	})
	if err != nil {
		return err
	}

	// 通知はコミット後にbest-effortで
	if notifyEmail != "" {
		if err := u.notifier.Send(ctx, notifyEmail, "Payment Confirmation", "Payment was successful"); err != nil {
			log.Printf("webhook: payment confirmation to %s failed: %v", notifyEmail, err)
		}
	}
	return nil
}

// checkout失効: Payment PENDING→CANCELED。終端ステータスは触らない。
func (u *WebhookUsecase) applyExpired(ctx context.Context, ev gateway.WebhookEvent) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByExternalIDForUpdate(ctx, ev.ObjectID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		processed, err := u.alreadyProcessed(ctx, r, ev)
		if err != nil {
			return err
		}
		if processed {
			return nil
		}

		if p.Status != model.PaymentStatusPending {
			return u.recordEvent(ctx, r, ev)
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusCanceled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.recordEvent(ctx, r, ev)
	})
}

func (u *WebhookUsecase) alreadyProcessed(ctx context.Context, r repo.TxRepos, ev gateway.WebhookEvent) (bool, error) {
	if ev.ID == "" {
		return false, nil
	}
	exists, err := r.WebhookEvents().ExistsByEventID(ctx, ev.ID)
	if err != nil {
		return false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return exists, nil
}

func (u *WebhookUsecase) recordEvent(ctx context.Context, r repo.TxRepos, ev gateway.WebhookEvent) error {
	if ev.ID == "" {
		return nil
	}
	err := r.WebhookEvents().Create(ctx, model.WebhookEvent{
		EventID: ev.ID,
		Type:    ev.Type,
	})
	// 支払い行のロックを握っているので通常ここで重複は起きないが、
	// 起きても既処理扱いで良い
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
