package auth

import (
	"context"
	"errors"

	"github.com/hitoshi/sealedbid/internal/model"
)

// 認証方式の識別子。
const (
	StrategyEmail  = "credentials"
	StrategyWallet = "web3"
)

// 資格情報の検証失敗を表すエラー。いずれもクライアントには401として返す。
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrAddressMismatch    = errors.New("recovered address does not match")
	ErrNonceRejected      = errors.New("nonce is unknown, expired or already used")
)

// Credentials は認証方式ごとの資格情報。
// EmailCredentials と WalletCredentials のみが実装する。
type Credentials interface {
	credentials()
}

// EmailCredentials はメールアドレスによるログインの資格情報。
type EmailCredentials struct {
	Email string
}

// WalletCredentials はウォレット署名によるログインの資格情報。
// Signature は personal_sign 形式の0x付き16進文字列。
type WalletCredentials struct {
	Address   string
	Message   string
	Signature string
}

func (EmailCredentials) credentials()  {}
func (WalletCredentials) credentials() {}

// Authorizer は資格情報を検証し、対応するユーザーを返す。
// ユーザーが存在しない場合は作成する。
type Authorizer interface {
	Authorize(ctx context.Context, creds Credentials) (*model.User, error)
}

// isCredentialError は検証失敗（インフラ障害ではない）かを判定する。
func isCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrAddressMismatch) ||
		errors.Is(err, ErrNonceRejected)
}
