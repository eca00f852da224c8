// Package security はユーザー入力の無害化を提供する。
//
// オークションのタイトル・説明文やプロフィール名はプレーンテキストとして保存する。
// bluemondayのStrictPolicyで全てのタグを除去し、HTMLとして解釈されうる入力を残さない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力からマークアップを除去する。
// bluemondayのPolicyはgoroutine安全なため、1インスタンスを共有してよい。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はタグを除去したプレーンテキストを返す。
// StrictPolicyがエスケープした文字参照は元の文字に戻し、前後の空白を除く。
// script・styleタグは中身ごと除去される。
func (s *TextSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
