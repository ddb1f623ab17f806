package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type MovieRepoMock struct{ mock.Mock }

func (m *MovieRepoMock) FindByID(ctx context.Context, movieID int64) (model.Movie, error) {
	args := m.Called(ctx, movieID)
	mv, _ := args.Get(0).(model.Movie)
	return mv, args.Error(1)
}

func (m *MovieRepoMock) FindByIDWithGenres(ctx context.Context, movieID int64) (model.Movie, error) {
	args := m.Called(ctx, movieID)
	mv, _ := args.Get(0).(model.Movie)
	return mv, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) Create(ctx context.Context, cartID int64, movieID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartID, movieID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID, userID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error) {
	args := m.Called(ctx, orderID, userID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusFrom(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) ListMovieIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *OrderItemRepoMock) CountByOrderID(ctx context.Context, orderID int64) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, payment model.Payment) (int64, error) {
	args := m.Called(ctx, payment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentRepoMock) ExistsByOrderID(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *PaymentRepoMock) FindByExternalIDForUpdate(ctx context.Context, externalPaymentID string) (model.Payment, error) {
	args := m.Called(ctx, externalPaymentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error {
	args := m.Called(ctx, paymentID, status)
	return args.Error(0)
}

func (m *PaymentRepoMock) List(ctx context.Context, f repo.PaymentListFilter) ([]model.Payment, error) {
	args := m.Called(ctx, f)
	payments, _ := args.Get(0).([]model.Payment)
	return payments, args.Error(1)
}

type PaymentItemRepoMock struct{ mock.Mock }

func (m *PaymentItemRepoMock) CreateBulk(ctx context.Context, paymentID int64, items []model.PaymentItem) error {
	args := m.Called(ctx, paymentID, items)
	return args.Error(0)
}

type WebhookEventRepoMock struct{ mock.Mock }

func (m *WebhookEventRepoMock) Create(ctx context.Context, event model.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *WebhookEventRepoMock) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Send(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckoutSession(ctx context.Context, in gateway.CheckoutSessionInput) (gateway.CheckoutSession, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(gateway.CheckoutSession)
	return s, args.Error(1)
}

func (m *GatewayMock) RetrievePaymentIntentID(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) CreateRefund(ctx context.Context, paymentIntentID string, amountMinor int64) error {
	args := m.Called(ctx, paymentIntentID, amountMinor)
	return args.Error(0)
}

func (m *GatewayMock) ParseEvent(payload []byte, signatureHeader string) (gateway.WebhookEvent, error) {
	args := m.Called(payload, signatureHeader)
	ev, _ := args.Get(0).(gateway.WebhookEvent)
	return ev, args.Error(1)
}

// =====================
// Txのスタブ
// =====================

// WithinTxの中身をモック群に流すだけ。commit/rollbackは模倣しない。
type TxReposStub struct {
	OrdersMock        *OrderRepoMock
	OrderItemsMock    *OrderItemRepoMock
	CartsMock         *CartRepoMock
	CartItemsMock     *CartItemRepoMock
	MoviesMock        *MovieRepoMock
	UsersMock         *UserRepoMock
	PaymentsMock      *PaymentRepoMock
	PaymentItemsMock  *PaymentItemRepoMock
	WebhookEventsMock *WebhookEventRepoMock
}

func NewTxReposStub() *TxReposStub {
	return &TxReposStub{
		OrdersMock:        new(OrderRepoMock),
		OrderItemsMock:    new(OrderItemRepoMock),
		CartsMock:         new(CartRepoMock),
		CartItemsMock:     new(CartItemRepoMock),
		MoviesMock:        new(MovieRepoMock),
		UsersMock:         new(UserRepoMock),
		PaymentsMock:      new(PaymentRepoMock),
		PaymentItemsMock:  new(PaymentItemRepoMock),
		WebhookEventsMock: new(WebhookEventRepoMock),
	}
}

func (s *TxReposStub) Orders() repo.OrderRepository               { return s.OrdersMock }
func (s *TxReposStub) OrderItems() repo.OrderItemRepository       { return s.OrderItemsMock }
func (s *TxReposStub) Carts() repo.CartRepository                 { return s.CartsMock }
func (s *TxReposStub) CartItems() repo.CartItemRepository         { return s.CartItemsMock }
func (s *TxReposStub) Movies() repo.MovieRepository               { return s.MoviesMock }
func (s *TxReposStub) Users() repo.UserRepository                 { return s.UsersMock }
func (s *TxReposStub) Payments() repo.PaymentRepository           { return s.PaymentsMock }
func (s *TxReposStub) PaymentItems() repo.PaymentItemRepository   { return s.PaymentItemsMock }
func (s *TxReposStub) WebhookEvents() repo.WebhookEventRepository { return s.WebhookEventsMock }

type TxManagerStub struct {
	Repos *TxReposStub
}

func NewTxManagerStub() *TxManagerStub {
	return &TxManagerStub{Repos: NewTxReposStub()}
}

func (t *TxManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(t.Repos)
}

func assertHTTPError(t *testing.T, err error, wantStatus int, wantMessage string) {
	t.Helper()

	he, ok := usecase.AsHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	assert.Equal(t, wantStatus, he.Status)
	assert.Equal(t, wantMessage, he.Message)
}
