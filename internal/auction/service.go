package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// EventRecorder はオークション関連のメトリクスを記録するインターフェース。
// metrics.Collectorが実装する。
type EventRecorder interface {
	RecordAuctionCreated()
	RecordBidPlaced()
	RecordBidRejected(reason string)
}

// TextSanitizer はユーザー入力からマークアップを除去するインターフェース。
type TextSanitizer interface {
	SanitizeText(s string) string
}

// CreateAuctionInput はオークション作成の入力。
// 形式チェック（タイトル長・最低入札額の正値）はハンドラー層で行う。
type CreateAuctionInput struct {
	Title       string
	Description string
	MinimumBid  float64
	EndTime     time.Time
}

// Service はオークションと入札のサービス層。
// リポジトリから取得したデータに可視性・ライフサイクルのルールを適用する。
type Service struct {
	auctionRepo repository.AuctionRepository
	bidRepo     repository.BidRepository
	sanitizer   TextSanitizer
	events      EventRecorder
	now         func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithEventRecorder はメトリクス記録先を設定する。
func WithEventRecorder(events EventRecorder) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithSanitizer はタイトル・説明文のサニタイザーを設定する。
func WithSanitizer(sanitizer TextSanitizer) Option {
	return func(s *Service) {
		s.sanitizer = sanitizer
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	opts ...Option,
) *Service {
	s := &Service{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		events:      noopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAuctions は全オークションの概要を作成日時の降順で返す。
func (s *Service) ListAuctions(ctx context.Context) ([]model.AuctionSummary, error) {
	summaries, err := s.auctionRepo.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("オークション一覧の取得に失敗しました: %w", err)
	}
	markEnded(summaries, s.now())
	return summaries, nil
}

// ListByCreator は指定ユーザーが出品したオークションを返す。
func (s *Service) ListByCreator(ctx context.Context, userID string) ([]model.AuctionSummary, error) {
	summaries, err := s.auctionRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("出品オークションの取得に失敗しました: %w", err)
	}
	markEnded(summaries, s.now())
	return summaries, nil
}

// ListBidsByUser は指定ユーザーの入札を対象オークション付きで返す。
// 自分の入札は常に閲覧できるため、可視性の絞り込みは不要。
func (s *Service) ListBidsByUser(ctx context.Context, userID string) ([]model.UserBid, error) {
	bids, err := s.bidRepo.ListByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("入札履歴の取得に失敗しました: %w", err)
	}
	now := s.now()
	for i := range bids {
		bids[i].Auction.IsEnded = IsEnded(&bids[i].Auction.Auction, now)
	}
	return bids, nil
}

// markEnded は一覧の各オークションに終了判定を設定する。
func markEnded(summaries []model.AuctionSummary, now time.Time) {
	for i := range summaries {
		summaries[i].IsEnded = IsEnded(&summaries[i].Auction, now)
	}
}

// findAuction はIDでオークションを取得する。
// UUID形式でないIDは存在しないオークションとして扱い、リポジトリを呼ばない。
func (s *Service) findAuction(ctx context.Context, auctionID string) (*model.AuctionSummary, error) {
	if _, err := uuid.Parse(auctionID); err != nil {
		return nil, model.NewAuctionNotFoundError(auctionID)
	}
	summary, err := s.auctionRepo.FindByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("オークションの取得に失敗しました: %w", err)
	}
	if summary == nil {
		return nil, model.NewAuctionNotFoundError(auctionID)
	}
	return summary, nil
}

// GetAuction はオークション詳細を返す。
// currentUserIDが空の場合は未ログインの閲覧者として扱う。
// 入札は閲覧者と現在時刻に応じてResolveVisibleBidsで絞り込まれる。
func (s *Service) GetAuction(ctx context.Context, auctionID, currentUserID string) (*model.AuctionDetail, error) {
	summary, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	allBids, err := s.bidRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("入札一覧の取得に失敗しました: %w", err)
	}

	now := s.now()
	visible := ResolveVisibleBids(&summary.Auction, allBids, currentUserID, now)

	hasBid := false
	if currentUserID != "" {
		for _, b := range visible {
			if b.BidderID == currentUserID {
				hasBid = true
				break
			}
		}
	}

	summary.IsEnded = IsEnded(&summary.Auction, now)
	return &model.AuctionDetail{
		AuctionSummary: *summary,
		Bids:           visible,
		WinningBid:     WinningBid(&summary.Auction, allBids, now),
		IsCreator:      currentUserID != "" && summary.CreatorID == currentUserID,
		HasBid:         hasBid,
	}, nil
}

// CreateAuction はオークションを作成する。
// 終了時刻が現在時刻より後でない場合はバリデーションエラーを返す。
func (s *Service) CreateAuction(ctx context.Context, creatorID string, in CreateAuctionInput) (*model.Auction, error) {
	now := s.now()
	if err := CanCreateAuction(in.EndTime, now); err != nil {
		return nil, model.NewValidationError("終了日時は現在より後の日時を指定してください。", model.FieldError{
			Field:   "endTime",
			Message: "終了日時は未来の日時である必要があります。",
		})
	}

	title, description := in.Title, in.Description
	if s.sanitizer != nil {
		title = s.sanitizer.SanitizeText(title)
		description = s.sanitizer.SanitizeText(description)
	}

	a := &model.Auction{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		MinimumBid:  in.MinimumBid,
		EndTime:     in.EndTime.UTC(),
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.auctionRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("オークションの作成に失敗しました: %w", err)
	}

	s.events.RecordAuctionCreated()
	slog.Info("auction created",
		slog.String("auction_id", a.ID),
		slog.String("creator_id", creatorID),
		slog.Time("end_time", a.EndTime),
	)

	return a, nil
}

// PlaceBid は入札を作成する。
// 判定はCanPlaceBidに委ね、拒否理由をAPIErrorに変換して返す。
//
// 終了時刻の判定と入札の保存は同一トランザクションではないため、
// 終了時刻ちょうどに届いた同時入札は両方受理されうる。
func (s *Service) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (*model.Bid, error) {
	summary, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := CanPlaceBid(&summary.Auction, amount, bidderID, now); err != nil {
		apiErr := toBidRejection(err, summary.MinimumBid)
		s.events.RecordBidRejected(apiErr.Code)
		slog.Info("bid rejected",
			slog.String("auction_id", auctionID),
			slog.String("bidder_id", bidderID),
			slog.String("reason", err.Error()),
		)
		return nil, apiErr
	}

	bid := &model.Bid{
		ID:        uuid.New().String(),
		Amount:    amount,
		AuctionID: auctionID,
		BidderID:  bidderID,
		CreatedAt: now,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("入札の作成に失敗しました: %w", err)
	}

	s.events.RecordBidPlaced()
	slog.Info("bid placed",
		slog.String("auction_id", auctionID),
		slog.String("bid_id", bid.ID),
		slog.String("bidder_id", bidderID),
	)

	return bid, nil
}

// toBidRejection はCanPlaceBidの拒否理由をAPIErrorに変換する。
func toBidRejection(err error, minimum float64) *model.APIError {
	switch {
	case errors.Is(err, ErrAuctionEnded):
		return model.NewAuctionEndedError()
	case errors.Is(err, ErrSelfBid):
		return model.NewSelfBidError()
	case errors.Is(err, ErrBelowMinimum):
		return model.NewBelowMinimumBidError(minimum)
	default:
		return model.NewInternalError()
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordAuctionCreated() {}
func (noopRecorder) RecordBidPlaced() {}
func (noopRecorder) RecordBidRejected(string) {}
