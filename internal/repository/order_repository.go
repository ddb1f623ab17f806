package repository

import (
	"app/internal/domain/model"
	"context"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	// 所有チェック込み。他人の注文は「存在しない扱い」。
	FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 現在statusがfromのときだけtoへ更新する。PAID/CANCELEDは終端なので
	// 無条件のstatus書き込みは提供しない。更新できたかを返す。
	UpdateStatusFrom(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)
}
