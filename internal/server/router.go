package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"newsdesk/internal/news"

	"github.com/gin-gonic/gin"
)

// NewsService is the orchestrator surface exposed over HTTP. *news.Service implements it.
type NewsService interface {
	Search(ctx context.Context, req news.SearchRequest) (news.SearchResponse, error)
	Trending(ctx context.Context, lang string, limit int) (news.TrendingResponse, error)
	Sources(lang string) (news.SourcesResponse, error)
}

const retryAfterSeconds = "30"

// NewRouter wires the news API onto a gin engine.
func NewRouter(svc NewsService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/news")
	api.POST("", func(c *gin.Context) {
		var req news.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, errors.Join(news.ErrInvalidRequest, err))
			return
		}
		resp, err := svc.Search(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})
	api.GET("/trending/:language", func(c *gin.Context) {
		limit := 0
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				writeError(c, errors.Join(news.ErrInvalidRequest, err))
				return
			}
			limit = n
		}
		resp, err := svc.Trending(c.Request.Context(), c.Param("language"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})
	api.GET("/sources/:language", func(c *gin.Context) {
		resp, err := svc.Sources(c.Param("language"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})
	return r
}

// StatusFor maps orchestrator errors onto HTTP status codes. Unavailable is split into
// 504 for deadline overruns and 503 for everything else so clients can retry both.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, news.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, news.ErrUnsupportedLanguage):
		return http.StatusNotFound
	case errors.Is(err, news.ErrUnavailable) && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, news.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	retryable := status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
	if retryable {
		c.Header("Retry-After", retryAfterSeconds)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("server: request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "retryable": retryable})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("server: request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "took", time.Since(start))
	}
}
