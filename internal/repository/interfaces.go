// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByWalletAddress はウォレットアドレス（小文字）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByWalletAddress(ctx context.Context, address string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateName はユーザーの表示名を更新する。
	UpdateName(ctx context.Context, id, name string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// AuctionRepository はオークションデータの永続化インターフェース。
// 更新・削除の操作は提供しない。
type AuctionRepository interface {
	// FindByID は指定IDのオークションを出品者名・入札数付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AuctionSummary, error)

	// Create はオークションを作成する。
	Create(ctx context.Context, auction *model.Auction) error

	// ListSummaries は全オークションを作成日時の降順で返す。
	ListSummaries(ctx context.Context) ([]model.AuctionSummary, error)

	// ListByCreator は指定ユーザーが出品したオークションを作成日時の降順で返す。
	ListByCreator(ctx context.Context, creatorID string) ([]model.AuctionSummary, error)
}

// BidRepository は入札データの永続化インターフェース。
// 入札は作成のみで、更新・削除の操作は提供しない。
type BidRepository interface {
	// Create は入札を作成する。
	Create(ctx context.Context, bid *model.Bid) error

	// ListByAuction はオークションの全入札を入札者名付きで返す。
	// 金額の降順、同額は作成日時の昇順で並ぶ。
	ListByAuction(ctx context.Context, auctionID string) ([]model.BidWithBidder, error)

	// ListByBidder はユーザーの入札を対象オークションの概要付きで作成日時の降順で返す。
	ListByBidder(ctx context.Context, bidderID string) ([]model.UserBid, error)
}

// NonceRepository はウォレットログイン用nonceの永続化インターフェース。
type NonceRepository interface {
	// Create はnonceを保存する。
	Create(ctx context.Context, nonce *model.WalletNonce) error

	// Consume は未使用かつ期限内のnonceを使用済みにする。
	// 該当するnonceがなかった場合はfalseを返す。
	Consume(ctx context.Context, nonce, address string, now time.Time) (bool, error)
}
