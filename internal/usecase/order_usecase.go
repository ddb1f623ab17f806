package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

// 注文作成の結果タグ。
// 部分成功（一部は注文済みでスキップ、一部は新規注文）は注文が
// コミット済みのまま返るので、エラーではなく結果として表現する。
type OrderCreateStatus string

const (
	OrderCreated        OrderCreateStatus = "created"
	OrderCreatePartial  OrderCreateStatus = "partial"
	OrderCreateConflict OrderCreateStatus = "conflict"
)

type CreateOrderOutput struct {
	Status        OrderCreateStatus
	OrderID       int64
	OrderedMovies []string // 今回注文に入った映画名
	AlreadyOwned  []string // 注文済みでスキップした映画名
}

type OrderListItem struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	CountFilms  int64           `json:"count_films"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
}

// CreateOrder はカートの中身を注文に変換する。
// 過去の注文（ステータス不問）に入っている映画はスキップし、
// 成否にかかわらずカートは空にする。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64) (CreateOrderOutput, error) {
	if userID <= 0 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CreateOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// カート行をFOR UPDATEで取り、同一ユーザーの注文作成を直列化する
		cart, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusConflict, "Your cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// ロック前に他リクエストが空にしたケースもここに落ちる
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusConflict, "Your cart is empty")
		}

		// ステータス不問で「注文済み」の映画ID集合
		orderedIDs, err := r.OrderItems().ListMovieIDsByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		owned := make(map[int64]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			owned[id] = true
		}

		var (
			existingNames []string
			newNames      []string
			newItems      []model.OrderItem
			total         = decimal.Zero
		)

		now := time.Now()
		for _, ci := range cartItems {
			m, err := r.Movies().FindByID(ctx, ci.MovieID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if owned[ci.MovieID] {
				existingNames = append(existingNames, m.Name)
				continue
			}

			// 現時点の価格をスナップショット
			newNames = append(newNames, m.Name)
			newItems = append(newItems, model.OrderItem{
				MovieID:      ci.MovieID,
				PriceAtOrder: m.Price,
				CreatedAt:    now,
			})
			total = total.Add(m.Price)
		}

		var orderID int64
		if len(newItems) > 0 {
			orderID, err = r.Orders().Create(ctx, model.Order{
				UserID:      userID,
				Status:      model.OrderStatusPending,
				TotalAmount: total,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.OrderItems().CreateBulk(ctx, orderID, newItems); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		// 成否にかかわらずカートは空にする
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		switch {
		case len(newItems) > 0 && len(existingNames) > 0:
			out = CreateOrderOutput{
				Status:        OrderCreatePartial,
				OrderID:       orderID,
				OrderedMovies: newNames,
				AlreadyOwned:  existingNames,
			}
		case len(newItems) > 0:
			out = CreateOrderOutput{
				Status:        OrderCreated,
				OrderID:       orderID,
				OrderedMovies: newNames,
			}
		default:
			out = CreateOrderOutput{
				Status:       OrderCreateConflict,
				AlreadyOwned: existingNames,
			}
		}
		return nil
	})

	if err != nil {
		return CreateOrderOutput{}, err
	}
	return out, nil
}

// ListOrders はユーザーの注文一覧（映画数の集計付き）を返す。
func (u *OrderUsecase) ListOrders(ctx context.Context, userID int64) ([]OrderListItem, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderListItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(orders) == 0 {
			return NewHTTPError(http.StatusNotFound, "Orders not found")
		}

		outs = make([]OrderListItem, 0, len(orders))
		for _, o := range orders {
			count, err := r.OrderItems().CountByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, OrderListItem{
				ID:          o.ID,
				CreatedAt:   o.CreatedAt,
				CountFilms:  count,
				TotalAmount: o.TotalAmount,
				Status:      string(o.Status),
			})
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

// CancelOrder はPENDINGの注文をCANCELEDへ遷移させる。
// PAID/CANCELEDは終端なので変更できない。行は物理削除しない。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUser(ctx, orderID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("order is already %s", o.Status))
		}

		// 読みとの間にwebhookがPAIDへ進めていたら空振りになる
		moved, err := r.Orders().UpdateStatusFrom(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCanceled)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !moved {
			cur, err := r.Orders().FindByID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("order is already %s", cur.Status))
		}
		return nil
	})
}
