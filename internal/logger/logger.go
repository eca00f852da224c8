// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName は全ログエントリに付与するサービス名。
const ServiceName = "sealedbid"

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。
// 空文字や未知の値はINFOとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// 全エントリにservice属性が付与される。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", ServiceName))
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// レベルは環境変数LOG_LEVELから決定する。wがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(l)
	return l
}
