// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れのセッションと、使用済みまたは期限切れのウォレットnonceを
// 定期的に削除する。オークションと入札は削除対象にしない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder は削除件数を記録するインターフェース。
// metrics.Collectorが実装する。
type Recorder interface {
	RecordCleanupDeleted(table string, count int64)
}

type target struct {
	table string
	query string
}

var targets = []target{
	{
		table: "sessions",
		query: `DELETE FROM sessions WHERE expires_at < now()`,
	},
	{
		table: "wallet_nonces",
		query: `DELETE FROM wallet_nonces WHERE consumed_at IS NOT NULL OR expires_at < now()`,
	},
}

// CleanupJob は期限切れデータの削除ジョブ。
// 冪等な削除処理のみを行うため、複数ワーカーから同時に実行されても問題ない。
type CleanupJob struct {
	db       Executor
	logger   *slog.Logger
	recorder Recorder
}

// NewCleanupJob は新しいCleanupJobを生成する。recorderはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, recorder Recorder) *CleanupJob {
	return &CleanupJob{
		db:       db,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は全ての削除対象テーブルを1回ずつ処理する。
// 1テーブルの失敗で残りを中断せず、最初のエラーを返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	var firstErr error
	for _, t := range targets {
		if err := j.runTarget(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (j *CleanupJob) runTarget(ctx context.Context, t target) error {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, t.query)
	if err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました",
			slog.String("table", t.table),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%sのクリーンアップに失敗: %w", t.table, err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("table", t.table),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordCleanupDeleted(t.table, deletedCount)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.String("table", t.table),
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start はintervalごとにRunを実行する。起動直後にも1回実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップワーカーを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
