package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sealedbid/internal/auction"
	"github.com/hitoshi/sealedbid/internal/middleware"
	"github.com/hitoshi/sealedbid/internal/model"
)

// minTitleLength はオークションタイトルの最小文字数。
const minTitleLength = 3

// 金額はNUMERIC(12,2)列に保存されるため、整数部10桁・小数部2桁に収まる必要がある。
const (
	maxAmountExclusive = 1e10
	maxAmountDecimals  = 2
)

// AuctionServiceInterface はオークションハンドラーが必要とするサービスインターフェース。
type AuctionServiceInterface interface {
	ListAuctions(ctx context.Context) ([]model.AuctionSummary, error)
	GetAuction(ctx context.Context, auctionID, currentUserID string) (*model.AuctionDetail, error)
	CreateAuction(ctx context.Context, creatorID string, in auction.CreateAuctionInput) (*model.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (*model.Bid, error)
}

// AuctionHandler はオークションと入札のHTTPハンドラー。
// 終了判定はサービス層が返した値をそのまま使う。
type AuctionHandler struct {
	service AuctionServiceInterface
}

// NewAuctionHandler はAuctionHandlerを生成する。
func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// createAuctionRequest はオークション作成リクエストのボディ。
type createAuctionRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MinimumBid  float64 `json:"minimumBid"`
	EndTime     string  `json:"endTime"`
}

// placeBidRequest は入札リクエストのボディ。
type placeBidRequest struct {
	Amount float64 `json:"amount"`
}

// ListAuctions はオークション一覧を返す。
// GET /api/auctions
func (h *AuctionHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListAuctions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuctionResponses(summaries))
}

// GetAuction はオークション詳細を返す。未ログインでも閲覧できる。
// GET /api/auctions/{id}
func (h *AuctionHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "id")
	userID := middleware.OptionalUserIDFromContext(r.Context())

	detail, err := h.service.GetAuction(r.Context(), auctionID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuctionDetailResponse(detail))
}

// CreateAuction はオークションを作成する。
// POST /api/auctions
func (h *AuctionHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createAuctionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, fieldErrs := validateCreateAuction(req)
	if len(fieldErrs) > 0 {
		middleware.WriteAPIError(w, model.NewValidationError("入力内容に誤りがあります。", fieldErrs...))
		return
	}

	a, err := h.service.CreateAuction(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// 作成直後のオークションは終了時刻が未来であることをサービスが保証している
	writeJSON(w, http.StatusCreated, toAuctionResponse(model.AuctionSummary{Auction: *a}))
}

// PlaceBid はオークションに入札する。
// POST /api/auctions/{id}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req placeBidRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateAmount("入札額", req.Amount); msg != "" {
		middleware.WriteAPIError(w, model.NewValidationError("入力内容に誤りがあります。", model.FieldError{
			Field:   "amount",
			Message: msg,
		}))
		return
	}

	bid, err := h.service.PlaceBid(r.Context(), chi.URLParam(r, "id"), userID, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBidResponse(model.BidWithBidder{Bid: *bid}))
}

// validateCreateAuction はリクエストの形式を検証し、サービス層の入力に変換する。
// 終了日時が未来かどうかはサービス層で判定する。
func validateCreateAuction(req createAuctionRequest) (auction.CreateAuctionInput, []model.FieldError) {
	var errs []model.FieldError

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		errs = append(errs, model.FieldError{Field: "title", Message: "タイトルは3文字以上で入力してください。"})
	}
	if msg := validateAmount("最低入札額", req.MinimumBid); msg != "" {
		errs = append(errs, model.FieldError{Field: "minimumBid", Message: msg})
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		errs = append(errs, model.FieldError{Field: "endTime", Message: "終了日時はISO 8601形式で指定してください。"})
	}

	return auction.CreateAuctionInput{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		MinimumBid:  req.MinimumBid,
		EndTime:     endTime,
	}, errs
}

// validateAmount は金額が保存可能な範囲にあるかを検証し、問題があればメッセージを返す。
// 小数部の桁数はJSONで受け取った値の最短表現で数える。
func validateAmount(label string, v float64) string {
	switch {
	case v <= 0:
		return label + "は0より大きい値を指定してください。"
	case v >= maxAmountExclusive:
		return label + "は10,000,000,000未満で指定してください。"
	case decimalPlaces(v) > maxAmountDecimals:
		return label + "は小数点以下2桁までで指定してください。"
	}
	return ""
}

func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
