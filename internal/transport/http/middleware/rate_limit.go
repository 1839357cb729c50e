package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

// IdentifierFunc extracts the identifier a rule scopes its counters by.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a fixed-window limit for one identifier dimension.
type RateLimitRule struct {
	Name       string
	Limit      int64
	Window     time.Duration
	Type       domain.RateLimitType
	Identifier IdentifierFunc
}

// RateLimiter enforces fixed-window rules in front of a handler.
type RateLimiter struct {
	service *usecase.RateLimitService
	logger  *zap.Logger
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(service *usecase.RateLimitService, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{service: service, logger: logger}
}

// ClientIPIdentifier scopes a rule by the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// AuthenticatedUserIdentifier scopes a rule by the authenticated user. Requests
// without an authenticated user skip the rule.
func AuthenticatedUserIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		return GetAuthenticatedUserID(c)
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules. A counter
// store outage is logged and the request admitted: the limiter protects
// capacity, it is not an authentication control.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		if len(filtered) == 0 || rl.service == nil {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		var tightest *usecase.RateLimitDecision

		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			scope := domain.RateLimitScope{
				Type:       rule.Type,
				Identifier: identifier,
				Endpoint:   endpoint,
			}

			decision, err := rl.service.Check(c.Request.Context(), scope, rule.Limit, rule.Window)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", identifier),
					zap.Error(err),
				)
				continue
			}

			if tightest == nil || remaining(decision) < remaining(*tightest) {
				snapshot := decision
				tightest = &snapshot
			}

			if decision.Exceeded {
				retryAfter := decision.RetryAfter
				if retryAfter <= 0 {
					retryAfter = rule.Window
				}
				applyHeaders(c, decision)
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, newErrorResponse(c,
					fmt.Sprintf("rate limit exceeded for %s", rule.Name)))
				return
			}
		}

		if tightest != nil {
			applyHeaders(c, *tightest)
		}

		c.Next()
	}
}

func remaining(decision usecase.RateLimitDecision) int64 {
	left := decision.Limit - decision.Count
	if left < 0 {
		return 0
	}
	return left
}

func applyHeaders(c *gin.Context, decision usecase.RateLimitDecision) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining(decision), 10))
}
