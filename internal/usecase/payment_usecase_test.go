package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type paymentFixture struct {
	uc          *usecase.PaymentUsecase
	tx          *TxManagerStub
	orderRepo   *OrderRepoMock
	itemRepo    *OrderItemRepoMock
	movieRepo   *MovieRepoMock
	paymentRepo *PaymentRepoMock
	gw          *GatewayMock
}

func newPaymentFixture() paymentFixture {
	f := paymentFixture{
		tx:          NewTxManagerStub(),
		orderRepo:   new(OrderRepoMock),
		itemRepo:    new(OrderItemRepoMock),
		movieRepo:   new(MovieRepoMock),
		paymentRepo: new(PaymentRepoMock),
		gw:          new(GatewayMock),
	}
	f.uc = usecase.NewPaymentUsecase(
		f.tx, f.orderRepo, f.itemRepo, f.movieRepo, f.paymentRepo, f.gw,
		"https://example.com/success", "https://example.com/cancel",
	)
	return f
}

func TestPaymentUsecase_CreatePayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{
			ID:          100,
			UserID:      1,
			Status:      model.OrderStatusPending,
			TotalAmount: decimal.RequireFromString("22.49"),
		}, nil)
	f.paymentRepo.On("ExistsByOrderID", mock.Anything, int64(100)).Return(false, nil)
	f.itemRepo.On("ListByOrderID", mock.Anything, int64(100)).
		Return([]model.OrderItem{
			{ID: 1, OrderID: 100, MovieID: 10, PriceAtOrder: decimal.RequireFromString("12.50")},
			{ID: 2, OrderID: 100, MovieID: 11, PriceAtOrder: decimal.RequireFromString("9.99")},
		}, nil)
	f.movieRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Movie{ID: 10, Name: "Heat"}, nil)
	f.movieRepo.On("FindByID", mock.Anything, int64(11)).Return(model.Movie{ID: 11, Name: "Alien"}, nil)

	// 注文全体で1明細、金額はminor unit
	f.gw.On("CreateCheckoutSession", mock.Anything, gateway.CheckoutSessionInput{
		ProductName: "Heat, Alien",
		AmountMinor: 2249,
		SuccessURL:  "https://example.com/success",
		CancelURL:   "https://example.com/cancel",
	}).Return(gateway.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil)

	f.tx.Repos.PaymentsMock.On("Create", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.OrderID == 100 &&
			p.Status == model.PaymentStatusPending &&
			p.ExternalPaymentID == "cs_test_1"
	})).Return(int64(500), nil)
	f.tx.Repos.PaymentItemsMock.On("CreateBulk", mock.Anything, int64(500), mock.MatchedBy(func(items []model.PaymentItem) bool {
		return len(items) == 2 && items[0].OrderItemID == 1 && items[1].OrderItemID == 2
	})).Return(nil)

	out, err := f.uc.CreatePayment(ctx, 1, 100)
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", out.CheckoutURL)

	f.gw.AssertExpectations(t)
	f.tx.Repos.PaymentsMock.AssertExpectations(t)
}

func TestPaymentUsecase_CreatePayment_OrderNotFound(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.CreatePayment(ctx, 1, 100)
	assertHTTPError(t, err, http.StatusNotFound, "Order not found")
}

// PENDING以外の注文は「存在しない」扱い
func TestPaymentUsecase_CreatePayment_OrderNotPending(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{ID: 100, UserID: 1, Status: model.OrderStatusCanceled}, nil)

	_, err := f.uc.CreatePayment(ctx, 1, 100)
	assertHTTPError(t, err, http.StatusNotFound, "Order not found")
}

func TestPaymentUsecase_CreatePayment_AlreadyExists(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{ID: 100, UserID: 1, Status: model.OrderStatusPending}, nil)
	f.paymentRepo.On("ExistsByOrderID", mock.Anything, int64(100)).Return(true, nil)

	_, err := f.uc.CreatePayment(ctx, 1, 100)
	assertHTTPError(t, err, http.StatusConflict, "payment already exist")

	f.gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

// 同時リクエストが先にinsertした場合もユニーク制約経由で409
func TestPaymentUsecase_CreatePayment_RaceOnInsert(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{ID: 100, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.RequireFromString("10.00")}, nil)
	f.paymentRepo.On("ExistsByOrderID", mock.Anything, int64(100)).Return(false, nil)
	f.itemRepo.On("ListByOrderID", mock.Anything, int64(100)).
		Return([]model.OrderItem{{ID: 1, OrderID: 100, MovieID: 10}}, nil)
	f.movieRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Movie{ID: 10, Name: "Heat"}, nil)
	f.gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(gateway.CheckoutSession{ID: "cs_test_2", URL: "https://checkout.example.com/cs_test_2"}, nil)

	f.tx.Repos.PaymentsMock.On("Create", mock.Anything, mock.Anything).
		Return(int64(0), repo.ErrDuplicate)

	_, err := f.uc.CreatePayment(ctx, 1, 100)
	assertHTTPError(t, err, http.StatusConflict, "payment already exist")
}

func TestPaymentUsecase_CreatePayment_GatewayDown(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.orderRepo.On("FindByIDForUser", mock.Anything, int64(100), int64(1)).
		Return(model.Order{ID: 100, UserID: 1, Status: model.OrderStatusPending, TotalAmount: decimal.RequireFromString("10.00")}, nil)
	f.paymentRepo.On("ExistsByOrderID", mock.Anything, int64(100)).Return(false, nil)
	f.itemRepo.On("ListByOrderID", mock.Anything, int64(100)).
		Return([]model.OrderItem{{ID: 1, OrderID: 100, MovieID: 10}}, nil)
	f.movieRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Movie{ID: 10, Name: "Heat"}, nil)
	f.gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(gateway.CheckoutSession{}, assert.AnError)

	_, err := f.uc.CreatePayment(ctx, 1, 100)
	assertHTTPError(t, err, http.StatusBadGateway, "payment provider error")
}

func TestPaymentUsecase_Refund_Success(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{
			ID:                500,
			UserID:            1,
			Status:            model.PaymentStatusSuccessful,
			Amount:            decimal.RequireFromString("22.49"),
			ExternalPaymentID: "cs_test_1",
		}, nil)
	f.gw.On("RetrievePaymentIntentID", mock.Anything, "cs_test_1").Return("pi_1", nil)
	f.gw.On("CreateRefund", mock.Anything, "pi_1", int64(2249)).Return(nil)
	f.tx.Repos.PaymentsMock.On("UpdateStatus", mock.Anything, int64(500), model.PaymentStatusRefunded).Return(nil)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assert.NoError(t, err)

	f.tx.Repos.PaymentsMock.AssertExpectations(t)
}

func TestPaymentUsecase_Refund_Unknown(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{}, repo.ErrNotFound)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assertHTTPError(t, err, http.StatusNotFound, "Payment not found")
}

// 他人の支払いは存在を漏らさず404
func TestPaymentUsecase_Refund_NotOwned(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{ID: 500, UserID: 2, Status: model.PaymentStatusSuccessful}, nil)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assertHTTPError(t, err, http.StatusNotFound, "Payment not found")

	f.gw.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_Refund_NotSuccessful(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{ID: 500, UserID: 1, Status: model.PaymentStatusPending}, nil)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assertHTTPError(t, err, http.StatusBadRequest, "payment is PENDING")

	f.gw.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
}

// 先行の返金がコミット済みなら、ロック解除後に同じ行を読む後続は
// REFUNDEDを見てプロバイダに触らず400
func TestPaymentUsecase_Refund_SecondAttemptAfterRefund(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{ID: 500, UserID: 1, Status: model.PaymentStatusRefunded}, nil)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assertHTTPError(t, err, http.StatusBadRequest, "payment is REFUNDED")

	f.gw.AssertNotCalled(t, "RetrievePaymentIntentID", mock.Anything, mock.Anything)
	f.gw.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
}

// プロバイダ失敗時はステータスを変えない
func TestPaymentUsecase_Refund_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.tx.Repos.PaymentsMock.On("FindByExternalIDForUpdate", mock.Anything, "cs_test_1").
		Return(model.Payment{
			ID:     500,
			UserID: 1,
			Status: model.PaymentStatusSuccessful,
			Amount: decimal.RequireFromString("22.49"),
		}, nil)
	f.gw.On("RetrievePaymentIntentID", mock.Anything, "cs_test_1").Return("pi_1", nil)
	f.gw.On("CreateRefund", mock.Anything, "pi_1", int64(2249)).Return(assert.AnError)

	err := f.uc.Refund(ctx, 1, "cs_test_1")
	assertHTTPError(t, err, http.StatusBadGateway, "payment provider error")

	f.tx.Repos.PaymentsMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_History_InvalidStatus(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	_, err := f.uc.History(ctx, 1, model.RoleUser, usecase.PaymentHistoryInput{Status: "PAID"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid status")
}

// 一般ユーザーのuser_id指定は無視される
func TestPaymentUsecase_History_UserCannotFilterOthers(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	other := int64(2)
	self := int64(1)
	f.paymentRepo.On("List", mock.Anything, mock.MatchedBy(func(fl repo.PaymentListFilter) bool {
		return fl.UserID != nil && *fl.UserID == self
	})).Return([]model.Payment{}, nil)

	_, err := f.uc.History(ctx, self, model.RoleUser, usecase.PaymentHistoryInput{UserID: &other})
	assert.NoError(t, err)

	f.paymentRepo.AssertExpectations(t)
}

func TestPaymentUsecase_History_AdminFiltersByUser(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	target := int64(2)
	f.paymentRepo.On("List", mock.Anything, mock.MatchedBy(func(fl repo.PaymentListFilter) bool {
		return fl.UserID != nil && *fl.UserID == target && fl.Status == "SUCCESSFUL"
	})).Return([]model.Payment{
		{ID: 500, UserID: 2, OrderID: 100, Status: model.PaymentStatusSuccessful, ExternalPaymentID: "cs_test_1"},
	}, nil)

	outs, err := f.uc.History(ctx, 1, model.RoleAdmin, usecase.PaymentHistoryInput{
		UserID: &target,
		Status: "SUCCESSFUL",
	})
	assert.NoError(t, err)
	assert.Len(t, outs, 1)
	assert.Equal(t, "cs_test_1", outs[0].ExternalPaymentID)
}
