package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func getRoleFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserRoleKey)
	if v == nil {
		return "", false
	}

	role, ok := v.(string)
	if !ok {
		return "", false
	}

	return role, true
}

// /shopping-cartsのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// /shopping-carts配下を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/shopping-carts")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/:movie_id/add", h.addItem)
	g.DELETE("/:id/delete", h.removeItem)
	g.GET("/list", h.list)
	g.GET("/:user_id/detail", h.detail)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	movieID, err := strconv.ParseInt(c.Param("movie_id"), 10, 64)
	if err != nil || movieID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid movie_id"})
	}

	if err := h.uc.AddItem(c.Request().Context(), userID, movieID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: "Movie added to cart"})
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.RemoveItem(c.Request().Context(), userID, itemID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListItems(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 管理者向けに任意ユーザーのカート明細を返す
func (h *CartHandler) detail(c echo.Context) error {
	callerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || targetID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	items, err := h.uc.ItemsDetail(c.Request().Context(), callerID, targetID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}
