package handler

import (
	"net/http"
	"strconv"
	"strings"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /ordersのHTTP
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// /orders配下を登録
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/add", h.create)
	g.GET("/list", h.list)
	g.DELETE("/delete/:id", h.cancel)
}

type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	// 結果タグからステータスと本文を組み立てる
	switch out.Status {
	case usecase.OrderCreated:
		return c.JSON(http.StatusCreated, CreateOrderResponse{
			Message: "Order created",
			OrderID: out.OrderID,
		})
	case usecase.OrderCreatePartial:
		// 注文自体は作成済み。スキップした映画を409で通知する。
		msg := strings.Join(out.AlreadyOwned, ", ") + " already exist, " +
			strings.Join(out.OrderedMovies, ", ") + " was added to order"
		return c.JSON(http.StatusConflict, CreateOrderResponse{
			Message: msg,
			OrderID: out.OrderID,
		})
	case usecase.OrderCreateConflict:
		msg := strings.Join(out.AlreadyOwned, ", ") + " already exist"
		return c.JSON(http.StatusConflict, CreateOrderResponse{Message: msg})
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.CancelOrder(c.Request().Context(), userID, orderID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
