package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"app/internal/domain/model"
	"app/internal/notification"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// CartUsecase は /shopping-carts の業務ロジックです。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	movieRepo    repo.MovieRepository
	userRepo     repo.UserRepository
	notifier     notification.Notifier
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	movieRepo repo.MovieRepository,
	userRepo repo.UserRepository,
	notifier notification.Notifier,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		movieRepo:    movieRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// カート一覧のプロジェクション
type CartMovieOut struct {
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Genres []string        `json:"genres"`
	Year   int             `json:"year"`
}

type CartListResponse struct {
	Movies []CartMovieOut `json:"movies"`
}

// AddItem は映画をカートに追加（カートが無ければ作る）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, movieID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if movieID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid movie_id")
	}

	if _, err := u.movieRepo.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Movie not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// カート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if _, err := u.cartItemRepo.Create(ctx, cart.ID, movieID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "Movie already in cart")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

// RemoveItem は本人のカート明細を削除する。
// 副作用としてモデレーター宛の削除通知を投げる（失敗してもエラーにしない）。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.cartItemRepo.FindByIDForUser(ctx, cartItemID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Movie not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Movie not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.notifyModerators(ctx, userID, item)

	return nil
}

// モデレーター全員に削除通知。best-effort。
func (u *CartUsecase) notifyModerators(ctx context.Context, userID int64, item model.CartItem) {
	actor, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("cart: lookup user %d for deletion notice failed: %v", userID, err)
		return
	}

	moderators, err := u.userRepo.ListByRole(ctx, model.RoleModerator)
	if err != nil {
		log.Printf("cart: lookup moderators for deletion notice failed: %v", err)
		return
	}

	subject := "Cart item deleted"
	body := fmt.Sprintf("user %s with id %d deleted cart item %d (movie %d)",
		actor.Email, actor.ID, item.ID, item.MovieID)

	for _, m := range moderators {
		if err := u.notifier.Send(ctx, m.Email, subject, body); err != nil {
			log.Printf("cart: deletion notice to %s failed: %v", m.Email, err)
		}
	}
}

// ListItems はカート内の映画一覧を返す。空・カート無しは404。
func (u *CartUsecase) ListItems(ctx context.Context, userID int64) (CartListResponse, error) {
	if userID <= 0 {
		return CartListResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartListResponse{}, NewHTTPError(http.StatusNotFound, "list is empty")
		}
		return CartListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CartListResponse{}, NewHTTPError(http.StatusNotFound, "list is empty")
	}

	movies := make([]CartMovieOut, 0, len(items))
	for _, it := range items {
		m, err := u.movieRepo.FindByIDWithGenres(ctx, it.MovieID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return CartListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		genres := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			genres = append(genres, g.Name)
		}

		movies = append(movies, CartMovieOut{
			Title:  m.Name,
			Price:  m.Price,
			Genres: genres,
			Year:   m.Year,
		})
	}

	return CartListResponse{Movies: movies}, nil
}

// ItemsDetail は指定ユーザーのカート明細を返す（管理者のみ）。
func (u *CartUsecase) ItemsDetail(ctx context.Context, callerID int64, targetUserID int64) ([]model.CartItem, error) {
	if callerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	caller, err := u.userRepo.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "User not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if caller.Role != model.RoleAdmin {
		return nil, NewHTTPError(http.StatusForbidden, "This function for admins")
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, targetUserID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return items, nil
}
