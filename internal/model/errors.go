package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Details はバリデーションエラーの項目別理由など、任意の補足情報を持つ。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
	Details any
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeAuctionEnded = "AUCTION_ENDED"
	ErrCodeInvalidBid   = "INVALID_BID"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeCSRF         = "CSRF_TOKEN_INVALID"
)

// FieldError は入力項目ごとのバリデーションエラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewValidationError はバリデーションエラーを生成する。
func NewValidationError(message string, details ...FieldError) *APIError {
	e := &APIError{
		Code:    ErrCodeValidation,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// NewAuctionNotFoundError はオークション未検出エラーを生成する。
func NewAuctionNotFoundError(auctionID string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("オークションが見つかりません: %s", auctionID),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: "ユーザーが見つかりません。",
	}
}

// NewSelfBidError は自分のオークションへの入札エラーを生成する。
func NewSelfBidError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "自分が出品したオークションには入札できません。",
	}
}

// NewAuctionEndedError は終了済みオークションへの入札エラーを生成する。
func NewAuctionEndedError() *APIError {
	return &APIError{
		Code:    ErrCodeAuctionEnded,
		Message: "このオークションは終了しています。",
	}
}

// NewBelowMinimumBidError は最低入札額未満の入札エラーを生成する。
func NewBelowMinimumBidError(minimum float64) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidBid,
		Message: fmt.Sprintf("入札額は%.2f以上である必要があります。", minimum),
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "リクエストが多すぎます。しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細は呼び出し側に返さない。
func NewInternalError() *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: "内部エラーが発生しました。",
	}
}
