package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/george/smart-hire/internal/core/ratelimit"
)

const (
	matchClass    = ratelimit.ClassMatch
	generateClass = ratelimit.ClassGenerate
)

// rateLimitMiddleware は高コストなエンドポイントへの流入をクライアント単位で制御する
// 正規化より前（ハンドラ実行前）に判定し、拒否時は 429 を返す
func rateLimitMiddleware(limiter *ratelimit.Limiter, class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ratelimit.ClientID(
			c.GetHeader("X-Forwarded-For"),
			c.GetHeader("X-Real-IP"),
			c.Request.RemoteAddr,
		)

		if !limiter.Admit(clientID, class) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
