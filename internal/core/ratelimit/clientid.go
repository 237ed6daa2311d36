package ratelimit

import "strings"

// ClientID はリクエストヘッダと接続アドレスからクライアント識別子を導出する
//
// 優先順位: X-Forwarded-For の先頭エントリ → X-Real-IP → 接続元アドレス。
// 最初に見つかった非空の値を採用する
func ClientID(xForwardedFor, xRealIP, remoteAddr string) string {
	if xForwardedFor != "" {
		first := strings.TrimSpace(strings.SplitN(xForwardedFor, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	if xRealIP != "" {
		return xRealIP
	}
	return remoteAddr
}
