package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const signInStatement = "Sign in with Ethereum to the Sealed Bid Auction App"

// ErrMalformedMessage は署名対象メッセージが所定の形式でない場合のエラー。
var ErrMalformedMessage = errors.New("malformed sign-in message")

// SignInMessage はウォレットで署名させるログインメッセージの内容。
type SignInMessage struct {
	Host     string
	Address  string
	URI      string
	ChainID  int64
	Nonce    string
	IssuedAt time.Time
}

// BuildSignInMessage はウォレットに提示する署名対象テキストを組み立てる。
func BuildSignInMessage(m SignInMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", m.Host)
	fmt.Fprintf(&b, "%s\n\n", m.Address)
	fmt.Fprintf(&b, "%s\n\n", signInStatement)
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	b.WriteString("Version: 1\n")
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// ParseSignInMessage はBuildSignInMessageの形式のテキストから各項目を取り出す。
// 項目の順序は問わないが、ヘッダー行とアドレス行は先頭の2行でなければならない。
func ParseSignInMessage(text string) (*SignInMessage, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, ErrMalformedMessage
	}

	host, ok := strings.CutSuffix(lines[0], " wants you to sign in with your Ethereum account:")
	if !ok || host == "" {
		return nil, ErrMalformedMessage
	}
	m := &SignInMessage{
		Host:    host,
		Address: strings.TrimSpace(lines[1]),
	}

	for _, line := range lines[2:] {
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "URI":
			m.URI = value
		case "Chain ID":
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: chain id: %v", ErrMalformedMessage, err)
			}
			m.ChainID = id
		case "Nonce":
			m.Nonce = value
		case "Issued At":
			t, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return nil, fmt.Errorf("%w: issued at: %v", ErrMalformedMessage, err)
			}
			m.IssuedAt = t
		}
	}

	if m.Address == "" || m.Nonce == "" {
		return nil, ErrMalformedMessage
	}
	return m, nil
}
