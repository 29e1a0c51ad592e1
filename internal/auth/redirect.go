package auth

import (
	"net/url"
	"strings"
)

// SafeRedirect は next が同一オリジン内の相対パスであればそれを、そうでなければ fallback を返します。
// "//evil.example" や "/\evil.example" のようにブラウザが別ホストと解釈する値は拒否します。
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n\t") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
