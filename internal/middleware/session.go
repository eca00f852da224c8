// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sealedbid/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 認証済みユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := resolveUserID(r, sessionFinder)
			if userID == "" {
				WriteAPIError(w, model.NewUnauthorizedError("ログインが必要です。"))
				return
			}
			if u, ok := w.(userIDSetter); ok {
				u.SetUserID(userID)
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// NewOptionalSessionMiddleware は有効なセッションがあればユーザーIDを注入し、
// なければ未ログインのまま次のハンドラーに渡すミドルウェアを返す。
// 閲覧者によって表示内容が変わる公開エンドポイントで使用する。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := resolveUserID(r, sessionFinder); userID != "" {
				if u, ok := w.(userIDSetter); ok {
					u.SetUserID(userID)
				}
				r = r.WithContext(ContextWithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveUserID はCookieのセッションIDから有効なユーザーIDを返す。
// セッションが無効な場合や検索に失敗した場合は空文字列を返す。
func resolveUserID(r *http.Request, sessionFinder SessionFinder) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to find session",
			slog.String("error", err.Error()),
		)
		return ""
	}
	if session == nil {
		return ""
	}
	return session.UserID
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// OptionalUserIDFromContext はユーザーIDを返す。未ログインの場合は空文字列。
func OptionalUserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
