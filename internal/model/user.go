package model

import "time"

// User はサービス利用ユーザーを表す。
// Email と WalletAddress はどちらか一方のみ設定される場合がある。
type User struct {
	ID            string
	Name          string
	Email         string
	WalletAddress string // 小文字に正規化済み
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// WalletNonce はウォレット署名ログイン用にサーバーが発行したnonceを表す。
type WalletNonce struct {
	Nonce      string
	Address    string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
