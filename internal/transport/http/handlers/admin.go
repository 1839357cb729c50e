package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

// RateLimitAdmin is the administrative slice of the rate limit service.
type RateLimitAdmin interface {
	Reset(ctx context.Context, scope domain.RateLimitScope) error
	ResetAll(ctx context.Context, identifier string, limitType domain.RateLimitType) (int64, error)
	ResetByEndpoint(ctx context.Context, endpoint string, limitType domain.RateLimitType) (int64, error)
}

// BlacklistAdmin exposes the advisory blacklist sweep and the audit lookup.
type BlacklistAdmin interface {
	Cleanup(ctx context.Context) (int64, error)
	RevocationReason(ctx context.Context, jti string) (bool, domain.BlacklistReason, error)
}

// PermissionAdmin reloads the resolver's rule snapshot on demand.
type PermissionAdmin interface {
	Reload(ctx context.Context) error
	Len() int
}

// AdminHandler exposes operator overrides: counter resets, blacklist sweeps,
// and resolver reloads. None of these sit on a serving path.
type AdminHandler struct {
	rateLimits  RateLimitAdmin
	blacklist   BlacklistAdmin
	permissions PermissionAdmin
}

// NewAdminHandler builds a new admin handler instance.
func NewAdminHandler(rateLimits RateLimitAdmin, blacklist BlacklistAdmin, permissions PermissionAdmin) *AdminHandler {
	return &AdminHandler{
		rateLimits:  rateLimits,
		blacklist:   blacklist,
		permissions: permissions,
	}
}

// RegisterRoutes wires the admin endpoints.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/rate-limits/reset", h.ResetRateLimits)
	rg.POST("/blacklist/cleanup", h.CleanupBlacklist)
	rg.GET("/blacklist/:jti", h.ShowBlacklistEntry)
	rg.POST("/permissions/reload", h.ReloadPermissions)
}

// ResetRateLimits clears counters selected by the request: a full scope resets
// one counter, identifier-only resets all of that caller's counters, and
// endpoint-only resets every caller on that endpoint.
func (h *AdminHandler) ResetRateLimits(c *gin.Context) {
	var req RateLimitResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "type is required"))
		return
	}

	limitType, err := domain.ParseRateLimitType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unsupported rate limit type"))
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	endpoint := strings.TrimSpace(req.Endpoint)

	ctx := c.Request.Context()

	switch {
	case identifier != "" && endpoint != "":
		scope := domain.RateLimitScope{Type: limitType, Identifier: identifier, Endpoint: endpoint}
		if err := h.rateLimits.Reset(ctx, scope); err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "rate limit reset failed"))
			return
		}
		c.JSON(http.StatusOK, ResetResponse{Deleted: 1})

	case identifier != "":
		deleted, err := h.rateLimits.ResetAll(ctx, identifier, limitType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "rate limit reset failed"))
			return
		}
		c.JSON(http.StatusOK, ResetResponse{Deleted: deleted})

	case endpoint != "":
		deleted, err := h.rateLimits.ResetByEndpoint(ctx, endpoint, limitType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "rate limit reset failed"))
			return
		}
		c.JSON(http.StatusOK, ResetResponse{Deleted: deleted})

	default:
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier or endpoint is required"))
	}
}

// CleanupBlacklist sweeps blacklist entries that lost their expiry.
func (h *AdminHandler) CleanupBlacklist(c *gin.Context) {
	removed, err := h.blacklist.Cleanup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "blacklist cleanup failed"))
		return
	}

	c.JSON(http.StatusOK, CleanupResponse{Removed: removed})
}

// ShowBlacklistEntry reports whether a token identifier is revoked and why. Audit
// surface only: the serving path never reads the reason.
func (h *AdminHandler) ShowBlacklistEntry(c *gin.Context) {
	jti := strings.TrimSpace(c.Param("jti"))
	if jti == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "jti is required"))
		return
	}

	blacklisted, reason, err := h.blacklist.RevocationReason(c.Request.Context(), jti)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "blacklist lookup failed"))
		return
	}

	c.JSON(http.StatusOK, BlacklistStatusResponse{
		JTI:         jti,
		Blacklisted: blacklisted,
		Reason:      string(reason),
	})
}

// ReloadPermissions pulls the rule set from storage and swaps the snapshot.
func (h *AdminHandler) ReloadPermissions(c *gin.Context) {
	if err := h.permissions.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "permission reload failed"))
		return
	}

	c.JSON(http.StatusOK, ReloadResponse{Count: h.permissions.Len()})
}

var (
	_ RateLimitAdmin  = (*usecase.RateLimitService)(nil)
	_ BlacklistAdmin  = (*usecase.BlacklistService)(nil)
	_ PermissionAdmin = (*usecase.PermissionResolver)(nil)
)
