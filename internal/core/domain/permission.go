package domain

import (
	"fmt"
	"strings"
)

// EndpointPermission is a static authorization rule the gateway consults before forwarding traffic.
type EndpointPermission struct {
	ID                  string
	ServiceName         string
	PathPattern         string
	HTTPMethod          string
	RequiredPermissions []string
	RequiredRoles       []string
	IsPublic            bool
	Description         string
}

// Validate rejects rules with missing components before registration.
func (p EndpointPermission) Validate() error {
	if strings.TrimSpace(p.ServiceName) == "" {
		return fmt.Errorf("service name is required")
	}
	if strings.TrimSpace(p.HTTPMethod) == "" {
		return fmt.Errorf("http method is required")
	}
	pattern := strings.TrimSpace(p.PathPattern)
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("path pattern must start with '/'")
	}
	return nil
}

// MatchesPath reports whether the concrete request path matches the rule's pattern.
// A `{name}` segment matches exactly one non-empty path segment; literal segments
// must match exactly and segment counts must agree.
func (p EndpointPermission) MatchesPath(path string) bool {
	patternSegments := splitPath(p.PathPattern)
	pathSegments := splitPath(path)

	if len(patternSegments) != len(pathSegments) {
		return false
	}

	for i, segment := range patternSegments {
		if isPathParam(segment) {
			if pathSegments[i] == "" {
				return false
			}
			continue
		}
		if segment != pathSegments[i] {
			return false
		}
	}

	return true
}

// LiteralSegments counts non-parameter segments, used to order candidates so the
// most literal pattern wins when several structurally match.
func (p EndpointPermission) LiteralSegments() int {
	literals := 0
	for _, segment := range splitPath(p.PathPattern) {
		if !isPathParam(segment) {
			literals++
		}
	}
	return literals
}

func splitPath(path string) []string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func isPathParam(segment string) bool {
	return len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
