// Package auth はログイン方式の解決とセッション管理を提供する。
//
// 認証方式は識別子をキーとしたAuthorizerのテーブルで切り替える。
// どの方式でも、検証に成功するとDBにセッションを発行する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// AuthRecorder は認証試行のメトリクスを記録するインターフェース。
type AuthRecorder interface {
	RecordAuthAttempt(strategy, outcome string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int           // セッション有効期間（秒）
	ChainID       int64         // 署名メッセージに埋め込むチェーンID
	NonceTTL      time.Duration // ウォレットnonceの有効期間
}

// SignInChallenge はウォレットログイン用に発行したnonceと署名対象メッセージ。
type SignInChallenge struct {
	Nonce     string
	Message   string
	ExpiresAt time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	authorizers map[string]Authorizer
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	nonceRepo   repository.NonceRepository
	events      AuthRecorder
	config      ServiceConfig
	now         func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithAuthorizer は認証方式を追加または差し替える。
func WithAuthorizer(strategy string, a Authorizer) Option {
	return func(s *Service) {
		s.authorizers[strategy] = a
	}
}

// WithAuthRecorder はメトリクス記録先を設定する。
func WithAuthRecorder(events AuthRecorder) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService はServiceを生成する。
// 認証方式はオプションで登録する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	nonceRepo repository.NonceRepository,
	config ServiceConfig,
	opts ...Option,
) *Service {
	s := &Service{
		authorizers: make(map[string]Authorizer),
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		nonceRepo:   nonceRepo,
		events:      noopAuthRecorder{},
		config:      config,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login は指定方式で資格情報を検証し、セッションを発行する。
// 未知の方式はバリデーションエラー、検証失敗は未認証エラーを返す。
func (s *Service) Login(ctx context.Context, strategy string, creds Credentials) (*model.User, *model.Session, error) {
	authorizer, ok := s.authorizers[strategy]
	if !ok {
		return nil, nil, model.NewValidationError(fmt.Sprintf("未対応のログイン方式です: %s", strategy))
	}

	user, err := authorizer.Authorize(ctx, creds)
	if err != nil {
		if isCredentialError(err) {
			s.events.RecordAuthAttempt(strategy, "rejected")
			slog.Info("login rejected",
				slog.String("strategy", strategy),
				slog.String("reason", err.Error()),
			)
			return nil, nil, model.NewUnauthorizedError("認証に失敗しました。")
		}
		s.events.RecordAuthAttempt(strategy, "error")
		return nil, nil, fmt.Errorf("failed to authorize: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.events.RecordAuthAttempt(strategy, "error")
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.events.RecordAuthAttempt(strategy, "success")
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("strategy", strategy),
	)
	return user, session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効な場合は未認証エラーを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError("ログインが必要です。")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError("ログインが必要です。")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError("ログインが必要です。")
	}

	return user, nil
}

// IssueNonce はウォレットログイン用のnonceを発行し、署名対象メッセージを返す。
// host と uri はメッセージに埋め込むクライアントのホスト名とオリジン。
func (s *Service) IssueNonce(ctx context.Context, address, host, uri string) (*SignInChallenge, error) {
	if !common.IsHexAddress(address) {
		return nil, model.NewValidationError("ウォレットアドレスの形式が正しくありません。", model.FieldError{
			Field:   "address",
			Message: "0xから始まる40桁の16進数を指定してください。",
		})
	}

	nonce, err := generateToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := s.now()
	n := &model.WalletNonce{
		Nonce:     nonce,
		Address:   strings.ToLower(address),
		ExpiresAt: now.Add(s.config.NonceTTL),
		CreatedAt: now,
	}
	if err := s.nonceRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save nonce: %w", err)
	}

	return &SignInChallenge{
		Nonce: nonce,
		Message: BuildSignInMessage(SignInMessage{
			Host:     host,
			Address:  address,
			URI:      uri,
			ChainID:  s.config.ChainID,
			Nonce:    nonce,
			IssuedAt: now,
		}),
		ExpiresAt: n.ExpiresAt,
	}, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateToken は暗号的に安全なランダム値をnバイト生成し、16進文字列で返す。
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type noopAuthRecorder struct{}

func (noopAuthRecorder) RecordAuthAttempt(string, string) {}
