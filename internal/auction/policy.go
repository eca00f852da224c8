// Package auction はオークションと入札のドメインロジックを提供する。
//
// 入札の可視性とオークションのライフサイクル判定は現在時刻を引数に取る純粋関数として実装し、
// 永続化された状態を持たない。
package auction

import (
	"errors"
	"sort"
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
)

// 入札・出品ルール違反を表すエラー。
var (
	ErrAuctionEnded     = errors.New("auction has ended")
	ErrSelfBid          = errors.New("bidder is the auction creator")
	ErrBelowMinimum     = errors.New("bid amount is below the minimum bid")
	ErrEndTimeNotFuture = errors.New("end time must be in the future")
)

// IsEnded はオークションが終了しているかを判定する。
// 終了時刻ちょうどはまだ終了していない。
func IsEnded(a *model.Auction, now time.Time) bool {
	return now.After(a.EndTime)
}

// SortBids は入札を金額の降順に並べる。
// 同額の場合は作成日時の昇順、さらにIDの昇順とし、先に入札した方を上位とする。
func SortBids(bids []model.BidWithBidder) {
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		if !bids[i].CreatedAt.Equal(bids[j].CreatedAt) {
			return bids[i].CreatedAt.Before(bids[j].CreatedAt)
		}
		return bids[i].ID < bids[j].ID
	})
}

// ResolveVisibleBids は閲覧者に見せてよい入札を返す。
//
// 終了済みのオークションでは全入札を金額の降順で返し、先頭に落札フラグを立てる。
// 開催中のオークションでは閲覧者自身の入札のみを返す。出品者であっても他人の入札は見えない。
// 引数のスライスは変更しない。
func ResolveVisibleBids(a *model.Auction, allBids []model.BidWithBidder, currentUserID string, now time.Time) []model.BidWithBidder {
	if IsEnded(a, now) {
		visible := make([]model.BidWithBidder, len(allBids))
		copy(visible, allBids)
		SortBids(visible)
		for i := range visible {
			visible[i].IsWinning = i == 0
		}
		return visible
	}

	visible := make([]model.BidWithBidder, 0)
	if currentUserID == "" {
		return visible
	}
	for _, b := range allBids {
		if b.BidderID == currentUserID {
			b.IsWinning = false
			visible = append(visible, b)
		}
	}
	SortBids(visible)
	return visible
}

// WinningBid は終了済みオークションの落札入札を返す。
// 開催中、または入札がない場合はnilを返す。
func WinningBid(a *model.Auction, allBids []model.BidWithBidder, now time.Time) *model.BidWithBidder {
	if !IsEnded(a, now) || len(allBids) == 0 {
		return nil
	}
	sorted := ResolveVisibleBids(a, allBids, "", now)
	winner := sorted[0]
	return &winner
}

// CanPlaceBid は入札が許可されるかを判定する。
// 判定順序は 終了済み → 自己入札 → 最低入札額未満。入札の作成は呼び出し側が行う。
func CanPlaceBid(a *model.Auction, amount float64, requesterID string, now time.Time) error {
	if IsEnded(a, now) {
		return ErrAuctionEnded
	}
	if requesterID == a.CreatorID {
		return ErrSelfBid
	}
	if amount < a.MinimumBid {
		return ErrBelowMinimum
	}
	return nil
}

// CanCreateAuction は終了時刻が現在時刻より後であることを検証する。
func CanCreateAuction(endTime, now time.Time) error {
	if !endTime.After(now) {
		return ErrEndTimeNotFuture
	}
	return nil
}
