package app

import "fmt"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモード。引数なしの既定値。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションとnonceを定期削除するワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーマのマイグレーションを実行する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のAPIサーバーの/healthを確認する。
	// distrolessイメージにはcurlがないため、Dockerのヘルスチェックはこれを使う。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はコマンドライン引数からサブコマンドと残りの引数を返す。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandServe, nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return CommandServe, nil
	}
	return cmd, args[1:]
}

// MigrateDirection はmigrateサブコマンドの適用方向。
type MigrateDirection string

const (
	MigrateUp   MigrateDirection = "up"
	MigrateDown MigrateDirection = "down"
)

// ParseMigrateDirection はmigrateの引数を解釈する。引数なしはMigrateUp。
// downは直近の1ステップのみ取り消す。
func ParseMigrateDirection(args []string) (MigrateDirection, error) {
	if len(args) == 0 {
		return MigrateUp, nil
	}
	switch d := MigrateDirection(args[0]); d {
	case MigrateUp, MigrateDown:
		return d, nil
	default:
		return "", fmt.Errorf("unknown migrate direction %q (want up or down)", args[0])
	}
}
