package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// PoolConfig はコネクションプールの設定。ゼロ値の項目はdatabase/sqlの既定値のまま。
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig はAPIサーバー1台あたりを想定した既定値を返す。
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Open はPostgreSQLデータベース接続を開き、プール設定を適用する。
// sql.Openは接続を試行しないため、実際の接続確認にはWaitReadyを使用すること。
func Open(databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	return db, nil
}

// Pinger はDB疎通確認のインターフェース。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

const (
	initialPingBackoff = 500 * time.Millisecond
	maxPingBackoff     = 8 * time.Second
)

// pingBackoff は失敗回数に応じた待機時間を返す。初回500ms、2倍ずつ増加、最大8秒。
func pingBackoff(failures int) time.Duration {
	delay := initialPingBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay > maxPingBackoff {
			return maxPingBackoff
		}
	}
	return delay
}

// WaitReady はDBに接続できるまで最大attempts回pingを繰り返す。
// コンテナ起動直後にDBがまだ受け付けていない場合に備える。
func WaitReady(ctx context.Context, db Pinger, attempts int) error {
	return waitReady(ctx, db, attempts, pingBackoff)
}

func waitReady(ctx context.Context, db Pinger, attempts int, backoff func(int) time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		delay := backoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}
