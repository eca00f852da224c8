package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/sealedbid/internal/model"
)

// PostgresAuctionRepo はPostgreSQLを使用したオークションリポジトリ。
type PostgresAuctionRepo struct {
	db *sql.DB
}

// NewPostgresAuctionRepo はPostgresAuctionRepoを生成する。
func NewPostgresAuctionRepo(db *sql.DB) *PostgresAuctionRepo {
	return &PostgresAuctionRepo{db: db}
}

// auctionSummarySelect は出品者名と入札数を結合したオークション取得クエリ。
const auctionSummarySelect = `
	SELECT a.id, a.title, a.description, a.minimum_bid, a.end_time, a.creator_id,
	       a.created_at, a.updated_at, u.name,
	       (SELECT count(*) FROM bids b WHERE b.auction_id = a.id)
	FROM auctions a
	JOIN users u ON u.id = a.creator_id`

// FindByID は指定IDのオークションを取得する。見つからない場合はnilを返す。
// UUID形式でないIDも見つからないものとして扱う。
func (r *PostgresAuctionRepo) FindByID(ctx context.Context, id string) (*model.AuctionSummary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	s := &model.AuctionSummary{}
	err := scanAuctionSummary(r.db.QueryRowContext(ctx,
		auctionSummarySelect+` WHERE a.id = $1`,
		id,
	), s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find auction by ID: %w", err)
	}
	return s, nil
}

// Create はオークションを作成する。
func (r *PostgresAuctionRepo) Create(ctx context.Context, a *model.Auction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auctions (id, title, description, minimum_bid, end_time, creator_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Title, nullIfEmpty(a.Description), a.MinimumBid, a.EndTime, a.CreatorID,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

// ListSummaries は全オークションを作成日時の降順で返す。
func (r *PostgresAuctionRepo) ListSummaries(ctx context.Context) ([]model.AuctionSummary, error) {
	return r.list(ctx, auctionSummarySelect+` ORDER BY a.created_at DESC`)
}

// ListByCreator は指定ユーザーが出品したオークションを作成日時の降順で返す。
func (r *PostgresAuctionRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.AuctionSummary, error) {
	return r.list(ctx, auctionSummarySelect+` WHERE a.creator_id = $1 ORDER BY a.created_at DESC`, creatorID)
}

func (r *PostgresAuctionRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.AuctionSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.AuctionSummary, 0)
	for rows.Next() {
		var s model.AuctionSummary
		if err := scanAuctionSummary(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auctions: %w", err)
	}
	return summaries, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuctionSummary(row rowScanner, s *model.AuctionSummary) error {
	var description sql.NullString
	err := row.Scan(
		&s.ID, &s.Title, &description, &s.MinimumBid, &s.EndTime, &s.CreatorID,
		&s.CreatedAt, &s.UpdatedAt, &s.CreatorName, &s.BidCount,
	)
	if err != nil {
		return err
	}
	s.Description = description.String
	return nil
}

// compile-time interface check
var _ AuctionRepository = (*PostgresAuctionRepo)(nil)
