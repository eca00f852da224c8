package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// memDB は統合テスト用のインメモリストア。
// 各リポジトリ型はこの共有状態に対するビューとして振る舞う。
type memDB struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]*model.User
	sessions map[string]*model.Session
	auctions map[string]*model.Auction
	bids     []*model.Bid
	nonces   map[string]*model.WalletNonce
}

func newMemDB(now func() time.Time) *memDB {
	return &memDB{
		now:      now,
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		auctions: make(map[string]*model.Auction),
		nonces:   make(map[string]*model.WalletNonce),
	}
}

type memUserRepo struct{ db *memDB }
type memSessionRepo struct{ db *memDB }
type memAuctionRepo struct{ db *memDB }
type memBidRepo struct{ db *memDB }
type memNonceRepo struct{ db *memDB }

var _ repository.UserRepository = memUserRepo{}
var _ repository.SessionRepository = memSessionRepo{}
var _ repository.AuctionRepository = memAuctionRepo{}
var _ repository.BidRepository = memBidRepo{}
var _ repository.NonceRepository = memNonceRepo{}

// --- users ---

func (r memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) FindByWalletAddress(ctx context.Context, address string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.WalletAddress != "" && u.WalletAddress == address {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	copied := *user
	r.db.users[user.ID] = &copied
	return nil
}

func (r memUserRepo) UpdateName(ctx context.Context, id, name string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		u.Name = name
	}
	return nil
}

// --- sessions ---

func (r memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	copied := *session
	r.db.sessions[session.ID] = &copied
	return nil
}

func (r memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || !s.ExpiresAt.After(r.db.now()) {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r memSessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

func (r memSessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, s := range r.db.sessions {
		if s.UserID == userID {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- auctions ---

// summaryLocked はロック取得済みの状態でAuctionSummaryを組み立てる。
func (db *memDB) summaryLocked(a *model.Auction) model.AuctionSummary {
	s := model.AuctionSummary{Auction: *a}
	if u, ok := db.users[a.CreatorID]; ok {
		s.CreatorName = u.Name
	}
	for _, b := range db.bids {
		if b.AuctionID == a.ID {
			s.BidCount++
		}
	}
	return s
}

func (db *memDB) summariesLocked(match func(a *model.Auction) bool) []model.AuctionSummary {
	var out []model.AuctionSummary
	for _, a := range db.auctions {
		if match(a) {
			out = append(out, db.summaryLocked(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindByID はUUID列への不正な入力をPostgresと同様にエラーとして返す。
func (r memAuctionRepo) FindByID(ctx context.Context, id string) (*model.AuctionSummary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid input syntax for type uuid: %q", id)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.auctions[id]
	if !ok {
		return nil, nil
	}
	s := r.db.summaryLocked(a)
	return &s, nil
}

func (r memAuctionRepo) Create(ctx context.Context, auction *model.Auction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	copied := *auction
	r.db.auctions[auction.ID] = &copied
	return nil
}

func (r memAuctionRepo) ListSummaries(ctx context.Context) ([]model.AuctionSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.summariesLocked(func(*model.Auction) bool { return true }), nil
}

func (r memAuctionRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.AuctionSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.summariesLocked(func(a *model.Auction) bool { return a.CreatorID == creatorID }), nil
}

// --- bids ---

func (r memBidRepo) Create(ctx context.Context, bid *model.Bid) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	copied := *bid
	r.db.bids = append(r.db.bids, &copied)
	return nil
}

func (r memBidRepo) ListByAuction(ctx context.Context, auctionID string) ([]model.BidWithBidder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.BidWithBidder
	for _, b := range r.db.bids {
		if b.AuctionID != auctionID {
			continue
		}
		bw := model.BidWithBidder{Bid: *b}
		if u, ok := r.db.users[b.BidderID]; ok {
			bw.BidderName = u.Name
		}
		out = append(out, bw)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memBidRepo) ListByBidder(ctx context.Context, bidderID string) ([]model.UserBid, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.UserBid
	for i := len(r.db.bids) - 1; i >= 0; i-- {
		b := r.db.bids[i]
		if b.BidderID != bidderID {
			continue
		}
		ub := model.UserBid{Bid: *b}
		if a, ok := r.db.auctions[b.AuctionID]; ok {
			ub.Auction = r.db.summaryLocked(a)
		}
		out = append(out, ub)
	}
	return out, nil
}

// --- nonces ---

func (r memNonceRepo) Create(ctx context.Context, nonce *model.WalletNonce) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	copied := *nonce
	r.db.nonces[nonce.Nonce] = &copied
	return nil
}

func (r memNonceRepo) Consume(ctx context.Context, nonce, address string, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.nonces[nonce]
	if !ok || n.ConsumedAt != nil || !n.ExpiresAt.After(now) || n.Address != strings.ToLower(address) {
		return false, nil
	}
	n.ConsumedAt = &now
	return true, nil
}
