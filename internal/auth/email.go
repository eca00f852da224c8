package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// EmailAuthorizer はメールアドレスのみでログインさせる認証方式。
// パスワード等の秘密情報は検証しないため、デモ用途に限る。
type EmailAuthorizer struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewEmailAuthorizer はEmailAuthorizerを生成する。
func NewEmailAuthorizer(userRepo repository.UserRepository) *EmailAuthorizer {
	return &EmailAuthorizer{userRepo: userRepo, now: time.Now}
}

// Authorize はメールアドレスの形式を検証し、該当ユーザーを返す。
// 未登録の場合はローカル部を表示名としてユーザーを作成する。
func (a *EmailAuthorizer) Authorize(ctx context.Context, creds Credentials) (*model.User, error) {
	c, ok := creds.(EmailCredentials)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	email, err := normalizeEmail(c.Email)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := a.now()
	user = &model.User{
		ID:        uuid.New().String(),
		Name:      localPart(email),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("strategy", StrategyEmail),
	)
	return user, nil
}

// normalizeEmail は表示名付き形式を拒否し、前後の空白を除いたアドレスを返す。
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidCredentials
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidCredentials
	}
	return addr.Address, nil
}

// localPart はアドレスの最後の@より前を返す。引用符付きローカル部は@を含みうる。
func localPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
