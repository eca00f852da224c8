// Package user はユーザープロフィールの管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// MaxNameLength は表示名の最大文字数。
const MaxNameLength = 50

// TextSanitizer はユーザー入力からマークアップを除去するインターフェース。
type TextSanitizer interface {
	SanitizeText(s string) string
}

// Service はユーザープロフィールのサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sanitizer   TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
// sanitizerがnilの場合は入力をそのまま保存する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sanitizer TextSanitizer,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
	}
}

// GetProfile はユーザーを取得する。存在しない場合はNOT_FOUNDを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateName は表示名を更新し、更新後のユーザーを返す。
// 表示名はマークアップ除去後に1文字以上MaxNameLength文字以下でなければならない。
func (s *Service) UpdateName(ctx context.Context, userID, name string) (*model.User, error) {
	if s.sanitizer != nil {
		name = s.sanitizer.SanitizeText(name)
	}
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return nil, model.NewValidationError("表示名が正しくありません。", model.FieldError{
			Field:   "name",
			Message: fmt.Sprintf("1〜%d文字で入力してください。", MaxNameLength),
		})
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateName(ctx, userID, name); err != nil {
		return nil, fmt.Errorf("表示名の更新に失敗しました: %w", err)
	}
	user.Name = name

	slog.Info("user name updated", slog.String("user_id", userID))
	return user, nil
}

// SignOutEverywhere はユーザーの全セッションを破棄する。
func (s *Service) SignOutEverywhere(ctx context.Context, userID string) error {
	revoked, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	slog.Info("all sessions revoked",
		slog.String("user_id", userID),
		slog.Int64("revoked", revoked),
	)
	return nil
}
