package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
)

// PostgresNonceRepo はPostgreSQLを使用したウォレットnonceリポジトリ。
type PostgresNonceRepo struct {
	db *sql.DB
}

// NewPostgresNonceRepo はPostgresNonceRepoを生成する。
func NewPostgresNonceRepo(db *sql.DB) *PostgresNonceRepo {
	return &PostgresNonceRepo{db: db}
}

// Create はnonceを保存する。
func (r *PostgresNonceRepo) Create(ctx context.Context, n *model.WalletNonce) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallet_nonces (nonce, address, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		n.Nonce, n.Address, n.ExpiresAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet nonce: %w", err)
	}
	return nil
}

// Consume は未使用かつ期限内のnonceを使用済みにする。
// 単一のUPDATEで判定と更新を行うため、同じnonceが2回成功することはない。
func (r *PostgresNonceRepo) Consume(ctx context.Context, nonce, address string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE wallet_nonces
		 SET consumed_at = $3
		 WHERE nonce = $1 AND address = $2 AND consumed_at IS NULL AND expires_at > $3`,
		nonce, address, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to consume wallet nonce: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// compile-time interface check
var _ NonceRepository = (*PostgresNonceRepo)(nil)
