package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type PaymentUsecase struct {
	tx            repo.TransactionManager
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	movieRepo     repo.MovieRepository
	paymentRepo   repo.PaymentRepository
	gw            gateway.PaymentGateway
	successURL    string
	cancelURL     string
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	movieRepo repo.MovieRepository,
	paymentRepo repo.PaymentRepository,
	gw gateway.PaymentGateway,
	successURL string,
	cancelURL string,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:            tx,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		movieRepo:     movieRepo,
		paymentRepo:   paymentRepo,
		gw:            gw,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

type CreatePaymentOutput struct {
	CheckoutURL string `json:"checkout_url"`
}

type PaymentHistoryInput struct {
	UserID *int64 // 管理者のみ指定可
	Status string
	From   *time.Time
	To     *time.Time
}

type PaymentHistoryItem struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	ExternalPaymentID string          `json:"external_payment_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CreatePayment はPENDINGの注文に対してチェックアウトセッションを作り、
// Payment＋PaymentItemを保存する。
// 「見つからない」と「支払い不可の状態」はどちらも404にして、
// 他人の注文の存在や状態を漏らさない。
func (u *PaymentUsecase) CreatePayment(ctx context.Context, userID int64, orderID int64) (CreatePaymentOutput, error) {
	if userID <= 0 {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	order, err := u.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.Status != model.OrderStatusPending {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}

	exists, err := u.paymentRepo.ExistsByOrderID(ctx, orderID)
	if err != nil {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusConflict, "payment already exist")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		m, err := u.movieRepo.FindByID(ctx, it.MovieID)
		if err != nil {
			return CreatePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		names = append(names, m.Name)
	}

	// 注文全体で1明細（映画名を連結、金額はminor unitへ正確に変換）
	session, err := u.gw.CreateCheckoutSession(ctx, gateway.CheckoutSessionInput{
		ProductName: strings.Join(names, ", "),
		AmountMinor: gateway.MinorUnits(order.TotalAmount),
		SuccessURL:  u.successURL,
		CancelURL:   u.cancelURL,
	})
	if err != nil {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	// ここで失敗するとプロバイダ側にセッションだけ残るが、
	// 支払われないまま期限切れになるだけなので致命的ではない。
	now := time.Now()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		paymentID, err := r.Payments().Create(ctx, model.Payment{
			UserID:            userID,
			OrderID:           orderID,
			Status:            model.PaymentStatusPending,
			Amount:            order.TotalAmount,
			ExternalPaymentID: session.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "payment already exist")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		paymentItems := make([]model.PaymentItem, 0, len(items))
		for _, it := range items {
			paymentItems = append(paymentItems, model.PaymentItem{
				OrderItemID:    it.ID,
				PriceAtPayment: it.PriceAtOrder,
				CreatedAt:      now,
			})
		}
		if err := r.PaymentItems().CreateBulk(ctx, paymentID, paymentItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return CreatePaymentOutput{}, err
	}

	return CreatePaymentOutput{CheckoutURL: session.URL}, nil
}

// Refund は本人のSUCCESSFULな支払いを全額返金する。
// 支払い行をFOR UPDATEで押さえたままプロバイダを呼ぶので、同じ支払いへの
// 同時返金は直列化され、後続はREFUNDEDを見て400になる。
// プロバイダ側が失敗を返したらステータスは変えない。自動リトライもしない。
func (u *PaymentUsecase) Refund(ctx context.Context, userID int64, externalPaymentID string) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if externalPaymentID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByExternalIDForUpdate(ctx, externalPaymentID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// 他人の支払いは「存在しない扱い」
		if p.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "Payment not found")
		}

		if p.Status != model.PaymentStatusSuccessful {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("payment is %s", p.Status))
		}

		intentID, err := u.gw.RetrievePaymentIntentID(ctx, externalPaymentID)
		if err != nil {
			return NewHTTPError(http.StatusBadGateway, "payment provider error")
		}

		if err := u.gw.CreateRefund(ctx, intentID, gateway.MinorUnits(p.Amount)); err != nil {
			return NewHTTPError(http.StatusBadGateway, "payment provider error")
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusRefunded); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// History は支払い履歴を返す。一般ユーザーは自分の分だけ、
// 管理者はuser_id指定で他ユーザーも見られる。
func (u *PaymentUsecase) History(ctx context.Context, userID int64, role model.Role, in PaymentHistoryInput) ([]PaymentHistoryItem, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if in.Status != "" {
		switch model.PaymentStatus(in.Status) {
		case model.PaymentStatusPending, model.PaymentStatusSuccessful,
			model.PaymentStatusCanceled, model.PaymentStatusRefunded:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	target := userID
	if role == model.RoleAdmin && in.UserID != nil {
		target = *in.UserID
	}

	payments, err := u.paymentRepo.List(ctx, repo.PaymentListFilter{
		UserID: &target,
		Status: in.Status,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]PaymentHistoryItem, 0, len(payments))
	for _, p := range payments {
		outs = append(outs, PaymentHistoryItem{
			ID:                p.ID,
			OrderID:           p.OrderID,
			Amount:            p.Amount,
			Status:            string(p.Status),
			ExternalPaymentID: p.ExternalPaymentID,
			CreatedAt:         p.CreatedAt,
		})
	}
	return outs, nil
}
