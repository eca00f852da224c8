// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/sealedbid/internal/auth"
	"github.com/hitoshi/sealedbid/internal/middleware"
	"github.com/hitoshi/sealedbid/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, strategy string, creds auth.Credentials) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
	IssueNonce(ctx context.Context, address, host, uri string) (*auth.SignInChallenge, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）

	// SignInURI はウォレット署名メッセージに埋め込むフロントエンドのオリジン。
	SignInURI string
}

// AuthHandler はログイン・ログアウト関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
// providerを省略した場合はaddressの有無で方式を判定する。
type loginRequest struct {
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// nonceRequest はnonce発行リクエストのボディ。
type nonceRequest struct {
	Address string `json:"address"`
}

// nonceResponse はnonce発行のAPIレスポンス。
type nonceResponse struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login は資格情報を検証し、セッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	strategy, creds, apiErr := toCredentials(req)
	if apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	user, session, err := h.service.Login(r.Context(), strategy, creds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	user, err := h.service.GetCurrentUser(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// WalletNonce はウォレットログイン用のnonceと署名対象メッセージを発行する。
// POST /auth/wallet/nonce
func (h *AuthHandler) WalletNonce(w http.ResponseWriter, r *http.Request) {
	var req nonceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.service.IssueNonce(r.Context(), strings.TrimSpace(req.Address), h.signInHost(), h.config.SignInURI)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonceResponse{
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// signInHost はSignInURIのホスト部分を返す。解析できない場合はURIをそのまま使う。
func (h *AuthHandler) signInHost() string {
	u, err := url.Parse(h.config.SignInURI)
	if err != nil || u.Host == "" {
		return h.config.SignInURI
	}
	return u.Host
}

// toCredentials はリクエストを認証方式と資格情報に変換する。
func toCredentials(req loginRequest) (string, auth.Credentials, *model.APIError) {
	strategy := req.Provider
	if strategy == "" {
		strategy = auth.StrategyEmail
		if req.Address != "" {
			strategy = auth.StrategyWallet
		}
	}

	switch strategy {
	case auth.StrategyEmail:
		if strings.TrimSpace(req.Email) == "" {
			return "", nil, model.NewValidationError("入力内容に誤りがあります。", model.FieldError{
				Field:   "email",
				Message: "メールアドレスを入力してください。",
			})
		}
		return strategy, auth.EmailCredentials{Email: req.Email}, nil
	case auth.StrategyWallet:
		var errs []model.FieldError
		for _, f := range []struct{ name, value string }{
			{"address", req.Address},
			{"message", req.Message},
			{"signature", req.Signature},
		} {
			if strings.TrimSpace(f.value) == "" {
				errs = append(errs, model.FieldError{Field: f.name, Message: "必須項目です。"})
			}
		}
		if len(errs) > 0 {
			return "", nil, model.NewValidationError("入力内容に誤りがあります。", errs...)
		}
		return strategy, auth.WalletCredentials{
			Address:   req.Address,
			Message:   req.Message,
			Signature: req.Signature,
		}, nil
	default:
		// 未知の方式はサービス層でVALIDATION_ERRORとなる
		return strategy, nil, nil
	}
}
