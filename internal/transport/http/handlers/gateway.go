package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

// AccessVerifier validates access tokens for gateway decisions.
type AccessVerifier interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*port.AccessClaims, error)
}

// GatewayHandler answers access-control questions for sibling services. Every
// decision is deny-by-default: only an explicit rule match can allow a request.
type GatewayHandler struct {
	resolver *usecase.PermissionResolver
	verifier AccessVerifier
}

// NewGatewayHandler builds a new gateway handler instance.
func NewGatewayHandler(resolver *usecase.PermissionResolver, verifier AccessVerifier) *GatewayHandler {
	return &GatewayHandler{resolver: resolver, verifier: verifier}
}

// RegisterRoutes wires the gateway endpoints.
func (h *GatewayHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/authorize", h.Authorize)
	rg.GET("/permissions/:service", h.ListPermissions)
}

// Authorize resolves the request against the registered rules and, when the
// matched rule is not public, validates the supplied access token and role set.
// Required permissions are echoed back for the calling service to enforce.
func (h *GatewayHandler) Authorize(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "service_name, method, and path are required"))
		return
	}

	matched, ok := h.resolver.Resolve(req.ServiceName, req.Method, req.Path)
	if !ok {
		c.JSON(http.StatusOK, AuthorizeResponse{
			Allowed: false,
			Reason:  "no matching rule",
		})
		return
	}

	response := AuthorizeResponse{
		MatchedPattern:      matched.PathPattern,
		IsPublic:            matched.IsPublic,
		RequiredPermissions: matched.RequiredPermissions,
	}

	if matched.IsPublic {
		response.Allowed = true
		c.JSON(http.StatusOK, response)
		return
	}

	if req.AccessToken == "" {
		response.Reason = "authentication required"
		c.JSON(http.StatusOK, response)
		return
	}

	claims, err := h.verifier.VerifyAccessToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrExpiredAccessToken):
			response.Reason = "access token expired"
		case errors.Is(err, usecase.ErrTokenRevoked):
			response.Reason = "access token revoked"
		case errors.Is(err, usecase.ErrInvalidAccessToken):
			response.Reason = "invalid access token"
		case errors.Is(err, repository.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization backend unavailable"))
			return
		default:
			c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization temporarily unavailable"))
			return
		}
		c.JSON(http.StatusOK, response)
		return
	}

	response.UserID = claims.UserID
	response.Roles = claims.Roles

	if len(matched.RequiredRoles) > 0 && !hasAnyRole(claims.Roles, matched.RequiredRoles) {
		response.Reason = "required role missing"
		c.JSON(http.StatusOK, response)
		return
	}

	response.Allowed = true
	c.JSON(http.StatusOK, response)
}

// ListPermissions returns the registered rules for one service from the active
// in-memory snapshot.
func (h *GatewayHandler) ListPermissions(c *gin.Context) {
	service := c.Param("service")

	permissions := h.resolver.ListByService(service)
	views := make([]PermissionView, 0, len(permissions))
	for _, permission := range permissions {
		views = append(views, newPermissionView(permission))
	}

	c.JSON(http.StatusOK, gin.H{
		"service_name": service,
		"permissions":  views,
	})
}

func hasAnyRole(userRoles, requiredRoles []string) bool {
	roleSet := make(map[string]bool, len(userRoles))
	for _, role := range userRoles {
		roleSet[role] = true
	}

	for _, required := range requiredRoles {
		if roleSet[required] {
			return true
		}
	}
	return false
}
