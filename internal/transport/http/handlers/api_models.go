package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RefreshRequest represents the payload to rotate a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPairResponse describes the tokens returned by login and refresh.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func newTokenPairResponse(pair domain.TokenPair) TokenPairResponse {
	expiresIn := int64(time.Until(pair.AccessExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	return TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        expiresIn,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// AuthorizeRequest asks the gateway surface for an access decision.
type AuthorizeRequest struct {
	ServiceName string `json:"service_name" binding:"required"`
	Method      string `json:"method" binding:"required"`
	Path        string `json:"path" binding:"required"`
	AccessToken string `json:"access_token"`
}

// AuthorizeResponse carries the decision plus the matched rule's requirements
// so the calling service can enforce fine-grained permissions locally.
type AuthorizeResponse struct {
	Allowed             bool     `json:"allowed"`
	Reason              string   `json:"reason,omitempty"`
	MatchedPattern      string   `json:"matched_pattern,omitempty"`
	IsPublic            bool     `json:"is_public,omitempty"`
	UserID              string   `json:"user_id,omitempty"`
	Roles               []string `json:"roles,omitempty"`
	RequiredPermissions []string `json:"required_permissions,omitempty"`
}

// PermissionView is the read projection of one endpoint permission rule.
type PermissionView struct {
	ID                  string   `json:"id"`
	ServiceName         string   `json:"service_name"`
	PathPattern         string   `json:"path_pattern"`
	HTTPMethod          string   `json:"http_method"`
	RequiredPermissions []string `json:"required_permissions,omitempty"`
	RequiredRoles       []string `json:"required_roles,omitempty"`
	IsPublic            bool     `json:"is_public"`
	Description         string   `json:"description,omitempty"`
}

func newPermissionView(permission domain.EndpointPermission) PermissionView {
	return PermissionView{
		ID:                  permission.ID,
		ServiceName:         permission.ServiceName,
		PathPattern:         permission.PathPattern,
		HTTPMethod:          permission.HTTPMethod,
		RequiredPermissions: permission.RequiredPermissions,
		RequiredRoles:       permission.RequiredRoles,
		IsPublic:            permission.IsPublic,
		Description:         permission.Description,
	}
}

// RateLimitResetRequest selects which counters an administrator clears.
type RateLimitResetRequest struct {
	Type       string `json:"type" binding:"required"`
	Identifier string `json:"identifier"`
	Endpoint   string `json:"endpoint"`
}

// ResetResponse reports how many counters an administrative reset removed.
type ResetResponse struct {
	Deleted int64 `json:"deleted"`
}

// CleanupResponse reports how many orphaned blacklist entries were removed.
type CleanupResponse struct {
	Removed int64 `json:"removed"`
}

// ReloadResponse reports the rule count after a resolver reload.
type ReloadResponse struct {
	Count int `json:"count"`
}

// BlacklistStatusResponse reports a token identifier's revocation state.
type BlacklistStatusResponse struct {
	JTI         string `json:"jti"`
	Blacklisted bool   `json:"blacklisted"`
	Reason      string `json:"reason,omitempty"`
}
