package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/hitoshi/sealedbid/internal/model"
	"github.com/hitoshi/sealedbid/internal/repository"
)

// walletEmailDomain はウォレットユーザーに割り当てるプレースホルダーメールのドメイン。
const walletEmailDomain = "wallet.user"

// WalletConfig はウォレット認証の設定。
type WalletConfig struct {
	// RequireNonce がtrueの場合、メッセージ中のnonceがサーバー発行済みかつ未使用であることを要求する。
	RequireNonce bool
	ChainID      int64
}

// WalletAuthorizer はEIP-191 personal_sign署名でログインさせる認証方式。
type WalletAuthorizer struct {
	userRepo  repository.UserRepository
	nonceRepo repository.NonceRepository
	config    WalletConfig
	now       func() time.Time
}

// NewWalletAuthorizer はWalletAuthorizerを生成する。
// config.RequireNonceがfalseの場合、nonceRepoはnilでもよい。
func NewWalletAuthorizer(userRepo repository.UserRepository, nonceRepo repository.NonceRepository, config WalletConfig) *WalletAuthorizer {
	return &WalletAuthorizer{
		userRepo:  userRepo,
		nonceRepo: nonceRepo,
		config:    config,
		now:       time.Now,
	}
}

// Authorize は署名から復元したアドレスが申告アドレスと一致することを検証し、
// 該当ユーザーを返す。未登録の場合はプレースホルダーメール付きで作成する。
func (a *WalletAuthorizer) Authorize(ctx context.Context, creds Credentials) (*model.User, error) {
	c, ok := creds.(WalletCredentials)
	if !ok || c.Message == "" || c.Signature == "" || !common.IsHexAddress(c.Address) {
		return nil, ErrInvalidCredentials
	}

	recovered, err := RecoverAddress(c.Message, c.Signature)
	if err != nil {
		return nil, err
	}
	address := strings.ToLower(c.Address)
	if strings.ToLower(recovered.Hex()) != address {
		slog.Warn("wallet address mismatch",
			slog.String("recovered", strings.ToLower(recovered.Hex())),
			slog.String("provided", address),
		)
		return nil, ErrAddressMismatch
	}

	if a.config.RequireNonce {
		if err := a.consumeNonce(ctx, c.Message, address); err != nil {
			return nil, err
		}
	}

	user, err := a.userRepo.FindByWalletAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by wallet address: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := a.now()
	user = &model.User{
		ID:            uuid.New().String(),
		Name:          ShortAddress(c.Address),
		Email:         address + "@" + walletEmailDomain,
		WalletAddress: address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create wallet user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("strategy", StrategyWallet),
	)
	return user, nil
}

// consumeNonce はメッセージからnonceを取り出し、一度だけ使用済みにする。
func (a *WalletAuthorizer) consumeNonce(ctx context.Context, message, address string) error {
	parsed, err := ParseSignInMessage(message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNonceRejected, err)
	}
	if strings.ToLower(parsed.Address) != address {
		return ErrAddressMismatch
	}
	if a.config.ChainID != 0 && parsed.ChainID != a.config.ChainID {
		return fmt.Errorf("%w: unexpected chain id %d", ErrNonceRejected, parsed.ChainID)
	}

	ok, err := a.nonceRepo.Consume(ctx, parsed.Nonce, address, a.now())
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !ok {
		return ErrNonceRejected
	}
	return nil
}

// RecoverAddress はpersonal_sign署名から署名者のアドレスを復元する。
// 署名は65バイトで、v値は0/1と27/28のどちらも受け付ける。
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, errors.Join(ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ShortAddress は表示用に "0x1234...abcd" 形式へ短縮する。
func ShortAddress(address string) string {
	if len(address) < 42 {
		return address
	}
	return address[:6] + "..." + address[38:]
}
