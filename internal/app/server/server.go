package server

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/george/smart-hire/internal/platform/container"
)

// Server はマッチングAPIを公開する薄いHTTP層
// コアの戻り値とエラー分類をHTTPレスポンスへ写すだけで、ロジックは持たない
type Server struct {
	container *container.ServiceContainer
	router    *gin.Engine
	log       *slog.Logger
}

// New は新しい Server を作成しルーティングを設定する
func New(cont *container.ServiceContainer) *Server {
	log := cont.Logger()
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		container: cont,
		log:       log,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	limiter := cont.RateLimiter

	v1 := router.Group("/api/v1")
	{
		v1.POST("/jobs/match", rateLimitMiddleware(limiter, matchClass), s.matchJobs)
		v1.POST("/vectors/generate", rateLimitMiddleware(limiter, generateClass), s.generatePostings)
	}

	s.router = router
	return s
}

// Run はHTTPサーバを起動する
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info("starting HTTP server", "addr", addr)
	return s.router.Run(addr)
}

// Router はルータを返す（テスト用）
func (s *Server) Router() *gin.Engine {
	return s.router
}
