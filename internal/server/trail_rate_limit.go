package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/observability/logger"
	"go.uber.org/zap"
)

const rateLimitReasonUserRate = "user-rate"

// TrailRateLimit throttles trail mutations per user when a limiter is
// configured.
func (s *Server) TrailRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.trailLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		actor := actorFromContext(c)
		endpoint := normalizeRateLimitEndpoint(c)

		result, err := s.trailLimiter.AllowUser(ctx, actor.ID)
		if err != nil {
			logger.FromContext(ctx).Warn("trail rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			logger.FromContext(ctx).Warn("trail rate limit exceeded",
				zap.String("reason", rateLimitReasonUserRate),
				zap.String("endpoint", endpoint),
			)
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, rateLimitReasonUserRate)

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-Rate-Limited-Reason", rateLimitReasonUserRate)
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
