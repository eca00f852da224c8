// Package model はドメインモデルを定義する。
package model

import "time"

// Auction は封印入札オークションを表す。
// 終了状態は保持せず、読み取りのたびに EndTime と現在時刻から導出する。
type Auction struct {
	ID          string
	Title       string
	Description string
	MinimumBid  float64
	EndTime     time.Time
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bid は入札を表す。作成後は更新・削除されない。
type Bid struct {
	ID        string
	Amount    float64
	AuctionID string
	BidderID  string
	CreatedAt time.Time
}

// AuctionSummary はオークション一覧用の読み取りモデル。
// IsEnded はサービス層が自身の時計で評価した値で、リポジトリは設定しない。
type AuctionSummary struct {
	Auction
	CreatorName string
	BidCount    int
	IsEnded     bool
}

// BidWithBidder は入札者名を結合した入札。
type BidWithBidder struct {
	Bid
	BidderName string
	IsWinning  bool
}

// AuctionDetail はオークション詳細の読み取りモデル。
// Bids には閲覧者に見えてよい入札のみが含まれる。
type AuctionDetail struct {
	AuctionSummary
	Bids       []BidWithBidder
	WinningBid *BidWithBidder
	IsCreator  bool
	HasBid     bool
}

// UserBid はユーザーの入札と対象オークションの概要を結合したモデル。
type UserBid struct {
	Bid
	Auction AuctionSummary
}
