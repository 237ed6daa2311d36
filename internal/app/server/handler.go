package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/george/smart-hire/internal/core/ingestion"
	"github.com/george/smart-hire/internal/core/matching"
)

// matchRequest は求人マッチングのリクエストボディ
// limit / minConfidence は任意で、不正値はコア側でデフォルトに正規化される
type matchRequest struct {
	UserProfile   string   `json:"userProfile"`
	Limit         *int     `json:"limit,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
}

// matchResponse は求人マッチングのレスポンスボディ
type matchResponse struct {
	Matches []*matching.MatchResult `json:"matches"`
	Count   int                     `json:"count"`
}

// matchJobs は POST /api/v1/jobs/match のハンドラ
func (s *Server) matchJobs(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	matches, err := s.container.MatchingService.FindMatches(c.Request.Context(), req.UserProfile, req.Limit, req.MinConfidence)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, matchResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// generateRequest は求人取り込みのリクエストボディ
type generateRequest struct {
	Postings []ingestion.PostingInput `json:"postings"`
}

// generatePostings は POST /api/v1/vectors/generate のハンドラ
func (s *Server) generatePostings(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	count, err := s.container.IngestionService.IngestPostings(c.Request.Context(), req.Postings)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ingested": count})
}

// respondError はコアのエラー分類をHTTPステータスへ写す
func (s *Server) respondError(c *gin.Context, err error) {
	switch matching.KindOf(err) {
	case matching.KindInvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case matching.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case matching.KindEmbeddingProvider, matching.KindStore, matching.KindQueryBuild:
		s.log.Error("request failed", "kind", matching.KindOf(err).String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		// 想定外のエラーも原因を保持したままログに残し、握り潰さない
		s.log.Error("unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
