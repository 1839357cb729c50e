package domain

import (
	"fmt"
	"strings"
)

// RateLimitType scopes a counter to the dimension being limited.
type RateLimitType string

const (
	// RateLimitTypeIP throttles by caller IP address.
	RateLimitTypeIP RateLimitType = "IP_BASED"
	// RateLimitTypeUser throttles by authenticated user identifier.
	RateLimitTypeUser RateLimitType = "USER_BASED"
	// RateLimitTypeEndpoint throttles an endpoint globally.
	RateLimitTypeEndpoint RateLimitType = "ENDPOINT_BASED"
)

// ParseRateLimitType normalises textual input into a supported limit type.
func ParseRateLimitType(value string) (RateLimitType, error) {
	switch RateLimitType(strings.ToUpper(strings.TrimSpace(value))) {
	case RateLimitTypeIP:
		return RateLimitTypeIP, nil
	case RateLimitTypeUser:
		return RateLimitTypeUser, nil
	case RateLimitTypeEndpoint:
		return RateLimitTypeEndpoint, nil
	default:
		return "", fmt.Errorf("unsupported rate limit type %q", value)
	}
}

// RateLimitScope is the composite key a fixed-window counter is tracked under.
type RateLimitScope struct {
	Type       RateLimitType
	Identifier string
	Endpoint   string
}

// Validate rejects scopes with missing components before any store access.
func (s RateLimitScope) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("rate limit type is required")
	}
	if strings.TrimSpace(s.Identifier) == "" {
		return fmt.Errorf("rate limit identifier is required")
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return fmt.Errorf("rate limit endpoint is required")
	}
	return nil
}

// IsExceeded reports whether a window count has reached the configured limit.
func IsExceeded(count int64, limit int64) bool {
	if limit <= 0 {
		return false
	}
	return count >= limit
}
