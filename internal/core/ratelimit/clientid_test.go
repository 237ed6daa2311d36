package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID(t *testing.T) {
	tests := []struct {
		name          string
		xForwardedFor string
		xRealIP       string
		remoteAddr    string
		want          string
	}{
		{
			name:          "X-Forwarded-Forの先頭エントリを優先",
			xForwardedFor: "203.0.113.5, 70.41.3.18, 150.172.238.178",
			xRealIP:       "198.51.100.7",
			remoteAddr:    "10.0.0.1:52412",
			want:          "203.0.113.5",
		},
		{
			name:          "単一エントリのX-Forwarded-For",
			xForwardedFor: "203.0.113.5",
			remoteAddr:    "10.0.0.1:52412",
			want:          "203.0.113.5",
		},
		{
			name:          "前後の空白は除去される",
			xForwardedFor: "  203.0.113.5 , 70.41.3.18",
			remoteAddr:    "10.0.0.1:52412",
			want:          "203.0.113.5",
		},
		{
			name:       "X-Forwarded-Forがなければ X-Real-IP",
			xRealIP:    "198.51.100.7",
			remoteAddr: "10.0.0.1:52412",
			want:       "198.51.100.7",
		},
		{
			name:       "ヘッダがなければ接続元アドレス",
			remoteAddr: "10.0.0.1:52412",
			want:       "10.0.0.1:52412",
		},
		{
			name:          "空白のみのX-Forwarded-ForはX-Real-IPへフォールバック",
			xForwardedFor: "   ",
			xRealIP:       "198.51.100.7",
			remoteAddr:    "10.0.0.1:52412",
			want:          "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClientID(tt.xForwardedFor, tt.xRealIP, tt.remoteAddr)
			assert.Equal(t, tt.want, got)
		})
	}
}
