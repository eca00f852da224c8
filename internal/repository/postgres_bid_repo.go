package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sealedbid/internal/model"
)

// PostgresBidRepo はPostgreSQLを使用した入札リポジトリ。
type PostgresBidRepo struct {
	db *sql.DB
}

// NewPostgresBidRepo はPostgresBidRepoを生成する。
func NewPostgresBidRepo(db *sql.DB) *PostgresBidRepo {
	return &PostgresBidRepo{db: db}
}

// Create は入札を作成する。
func (r *PostgresBidRepo) Create(ctx context.Context, bid *model.Bid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bids (id, amount, auction_id, bidder_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		bid.ID, bid.Amount, bid.AuctionID, bid.BidderID, bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// ListByAuction はオークションの全入札を入札者名付きで返す。
// 可視性の判定はここでは行わない。呼び出し側がauction.ResolveVisibleBidsで絞り込む。
func (r *PostgresBidRepo) ListByAuction(ctx context.Context, auctionID string) ([]model.BidWithBidder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.amount, b.auction_id, b.bidder_id, b.created_at, u.name
		 FROM bids b
		 JOIN users u ON u.id = b.bidder_id
		 WHERE b.auction_id = $1
		 ORDER BY b.amount DESC, b.created_at ASC, b.id ASC`,
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids by auction: %w", err)
	}
	defer rows.Close()

	bids := make([]model.BidWithBidder, 0)
	for rows.Next() {
		var b model.BidWithBidder
		if err := rows.Scan(&b.ID, &b.Amount, &b.AuctionID, &b.BidderID, &b.CreatedAt, &b.BidderName); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}

// ListByBidder はユーザーの入札を対象オークションの概要付きで作成日時の降順で返す。
func (r *PostgresBidRepo) ListByBidder(ctx context.Context, bidderID string) ([]model.UserBid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.amount, b.auction_id, b.bidder_id, b.created_at,
		        a.id, a.title, a.description, a.minimum_bid, a.end_time, a.creator_id,
		        a.created_at, a.updated_at, u.name,
		        (SELECT count(*) FROM bids c WHERE c.auction_id = a.id)
		 FROM bids b
		 JOIN auctions a ON a.id = b.auction_id
		 JOIN users u ON u.id = a.creator_id
		 WHERE b.bidder_id = $1
		 ORDER BY b.created_at DESC`,
		bidderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids by bidder: %w", err)
	}
	defer rows.Close()

	bids := make([]model.UserBid, 0)
	for rows.Next() {
		var ub model.UserBid
		var description sql.NullString
		err := rows.Scan(
			&ub.ID, &ub.Amount, &ub.AuctionID, &ub.BidderID, &ub.CreatedAt,
			&ub.Auction.ID, &ub.Auction.Title, &description, &ub.Auction.MinimumBid,
			&ub.Auction.EndTime, &ub.Auction.CreatorID, &ub.Auction.CreatedAt,
			&ub.Auction.UpdatedAt, &ub.Auction.CreatorName, &ub.Auction.BidCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user bid: %w", err)
		}
		ub.Auction.Description = description.String
		bids = append(bids, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user bids: %w", err)
	}
	return bids, nil
}

// compile-time interface check
var _ BidRepository = (*PostgresBidRepo)(nil)
