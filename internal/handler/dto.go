package handler

import (
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// auctionResponse はオークション概要のAPIレスポンス。
type auctionResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MinimumBid  float64   `json:"minimumBid"`
	EndTime     time.Time `json:"endTime"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	BidCount    int       `json:"bidCount"`
	IsEnded     bool      `json:"isEnded"`
	CreatedAt   time.Time `json:"createdAt"`
}

// bidResponse は入札のAPIレスポンス。
type bidResponse struct {
	ID         string    `json:"id"`
	Amount     float64   `json:"amount"`
	AuctionID  string    `json:"auctionId"`
	BidderID   string    `json:"bidderId"`
	BidderName string    `json:"bidderName,omitempty"`
	IsWinning  bool      `json:"isWinning"`
	CreatedAt  time.Time `json:"createdAt"`
}

// auctionDetailResponse はオークション詳細のAPIレスポンス。
// bidsには閲覧者に見えてよい入札のみが含まれる。
type auctionDetailResponse struct {
	auctionResponse
	Bids       []bidResponse `json:"bids"`
	WinningBid *bidResponse  `json:"winningBid"`
	IsCreator  bool          `json:"isCreator"`
	HasBid     bool          `json:"hasBid"`
}

// userBidResponse はダッシュボード用の入札と対象オークションのレスポンス。
type userBidResponse struct {
	ID        string          `json:"id"`
	Amount    float64         `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	Auction   auctionResponse `json:"auction"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
	}
}

func toAuctionResponse(s model.AuctionSummary) auctionResponse {
	return auctionResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		MinimumBid:  s.MinimumBid,
		EndTime:     s.EndTime,
		CreatorID:   s.CreatorID,
		CreatorName: s.CreatorName,
		BidCount:    s.BidCount,
		IsEnded:     s.IsEnded,
		CreatedAt:   s.CreatedAt,
	}
}

func toAuctionResponses(summaries []model.AuctionSummary) []auctionResponse {
	results := make([]auctionResponse, len(summaries))
	for i, s := range summaries {
		results[i] = toAuctionResponse(s)
	}
	return results
}

func toBidResponse(b model.BidWithBidder) bidResponse {
	return bidResponse{
		ID:         b.ID,
		Amount:     b.Amount,
		AuctionID:  b.AuctionID,
		BidderID:   b.BidderID,
		BidderName: b.BidderName,
		IsWinning:  b.IsWinning,
		CreatedAt:  b.CreatedAt,
	}
}

func toAuctionDetailResponse(d *model.AuctionDetail) auctionDetailResponse {
	bids := make([]bidResponse, len(d.Bids))
	for i, b := range d.Bids {
		bids[i] = toBidResponse(b)
	}

	resp := auctionDetailResponse{
		auctionResponse: toAuctionResponse(d.AuctionSummary),
		Bids:            bids,
		IsCreator:       d.IsCreator,
		HasBid:          d.HasBid,
	}
	if d.WinningBid != nil {
		w := toBidResponse(*d.WinningBid)
		resp.WinningBid = &w
	}
	return resp
}

func toUserBidResponses(bids []model.UserBid) []userBidResponse {
	results := make([]userBidResponse, len(bids))
	for i, b := range bids {
		results[i] = userBidResponse{
			ID:        b.ID,
			Amount:    b.Amount,
			CreatedAt: b.CreatedAt,
			Auction:   toAuctionResponse(b.Auction),
		}
	}
	return results
}
