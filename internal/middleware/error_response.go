package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sealedbid/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// statusByCode はエラーコードとHTTPステータスの対応表。
// 自己入札(FORBIDDEN)は入力エラーと同じく400で返す。
var statusByCode = map[string]int{
	model.ErrCodeUnauthorized: http.StatusUnauthorized,
	model.ErrCodeValidation:   http.StatusBadRequest,
	model.ErrCodeNotFound:     http.StatusNotFound,
	model.ErrCodeForbidden:    http.StatusBadRequest,
	model.ErrCodeAuctionEnded: http.StatusBadRequest,
	model.ErrCodeInvalidBid:   http.StatusBadRequest,
	model.ErrCodeRateLimited:  http.StatusTooManyRequests,
	model.ErrCodeCSRF:         http.StatusForbidden,
	model.ErrCodeInternal:     http.StatusInternalServerError,
}

// StatusForCode はエラーコードに対応するHTTPステータスを返す。
// 未知のコードは500とする。
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Message: apiErr.Message,
		Code:    apiErr.Code,
		Details: apiErr.Details,
	})
}

// WriteAPIError はエラーコードから導いたステータスでレスポンスを書き込む。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusForCode(apiErr.Code), apiErr)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
