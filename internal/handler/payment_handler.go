package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentsのHTTP
type PaymentHandler struct {
	uc        *usecase.PaymentUsecase
	webhookUC *usecase.WebhookUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase, webhookUC *usecase.WebhookUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc, webhookUC: webhookUC}
}

// /payments配下を登録。webhookだけは認証なし（署名検証で守る）。
func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/payments/webhook", h.webhook)

	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/add/:order_id", h.create)
	g.POST("/refund/:external_payment_id", h.refund)
	g.GET("/history", h.history)
}

type CreatePaymentResponse struct {
	Response    string `json:"response"`
	CheckoutURL string `json:"checkout_url"`
}

type RefundResponse struct {
	Response string `json:"response"`
}

type WebhookResponse struct {
	Response string `json:"response"`
}

func (h *PaymentHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order_id"})
	}

	out, err := h.uc.CreatePayment(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, CreatePaymentResponse{
		Response:    "payment add successfully",
		CheckoutURL: out.CheckoutURL,
	})
}

func (h *PaymentHandler) refund(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	externalID := c.Param("external_payment_id")
	if externalID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid external_payment_id"})
	}

	if err := h.uc.Refund(c.Request().Context(), userID, externalID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, RefundResponse{Response: "refund was successful"})
}

func (h *PaymentHandler) history(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	role, _ := getRoleFromContext(c)

	in := usecase.PaymentHistoryInput{
		Status: c.QueryParam("status"),
	}

	// 管理者は任意ユーザーで絞り込める。権限判定はusecase側。
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		}
		in.UserID = &id
	}

	if raw := c.QueryParam("created_at_gte"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid created_at_gte"})
		}
		in.From = &t
	}
	if raw := c.QueryParam("created_at_lte"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid created_at_lte"})
		}
		in.To = &t
	}

	out, err := h.uc.History(c.Request().Context(), userID, model.Role(role), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// webhookは署名検証のため生ボディが必要
func (h *PaymentHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid webhook payload"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	if err := h.webhookUC.HandleEvent(c.Request().Context(), payload, sig); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, WebhookResponse{Response: "Successful"})
}

// RFC3339と日付のみの両方を受ける
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
