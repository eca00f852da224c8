package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/sealedbid/internal/middleware"
	"github.com/hitoshi/sealedbid/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするプロフィール操作。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateName(ctx context.Context, userID, name string) (*model.User, error)
	// SignOutEverywhere はユーザーの全セッションを破棄する。
	SignOutEverywhere(ctx context.Context, userID string) error
}

// DashboardServiceInterface はダッシュボード表示に必要な一覧取得。
type DashboardServiceInterface interface {
	ListByCreator(ctx context.Context, userID string) ([]model.AuctionSummary, error)
	ListBidsByUser(ctx context.Context, userID string) ([]model.UserBid, error)
}

// UserHandler はログインユーザー自身のリソースを扱うHTTPハンドラー。
type UserHandler struct {
	users     UserServiceInterface
	dashboard DashboardServiceInterface
	cookie    AuthHandlerConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users UserServiceInterface, dashboard DashboardServiceInterface, cookie AuthHandlerConfig) *UserHandler {
	return &UserHandler{
		users:     users,
		dashboard: dashboard,
		cookie:    cookie,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Name string `json:"name"`
}

// GetMe はプロフィールを返す。
// GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateMe は表示名を更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateName(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// MyAuctions は自分が出品したオークションを返す。
// GET /api/users/me/auctions
func (h *UserHandler) MyAuctions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summaries, err := h.dashboard.ListByCreator(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuctionResponses(summaries))
}

// MyBids は自分の入札を対象オークション付きで返す。
// GET /api/users/me/bids
func (h *UserHandler) MyBids(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	bids, err := h.dashboard.ListBidsByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserBidResponses(bids))
}

// RevokeSessions は全端末のセッションを破棄し、このリクエストのCookieも削除する。
// DELETE /api/users/me/sessions
func (h *UserHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.SignOutEverywhere(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
