package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	carts         repo.CartRepository
	cartItems     repo.CartItemRepository
	movies        repo.MovieRepository
	users         repo.UserRepository
	payments      repo.PaymentRepository
	paymentItems  repo.PaymentItemRepository
	webhookEvents repo.WebhookEventRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *txReposGorm) Carts() repo.CartRepository                 { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository         { return r.cartItems }
func (r *txReposGorm) Movies() repo.MovieRepository               { return r.movies }
func (r *txReposGorm) Users() repo.UserRepository                 { return r.users }
func (r *txReposGorm) Payments() repo.PaymentRepository           { return r.payments }
func (r *txReposGorm) PaymentItems() repo.PaymentItemRepository   { return r.paymentItems }
func (r *txReposGorm) WebhookEvents() repo.WebhookEventRepository { return r.webhookEvents }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			cartItems:     NewCartItemGormRepository(tx),
			movies:        NewMovieGormRepository(tx),
			users:         NewUserGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			paymentItems:  NewPaymentItemGormRepository(tx),
			webhookEvents: NewWebhookEventGormRepository(tx),
		}
		return fn(r)
	})
}
