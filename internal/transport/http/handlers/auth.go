package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

// AuthUsecase is the slice of the auth service the HTTP layer consumes.
type AuthUsecase interface {
	Login(ctx context.Context, identifier, password string) (domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

// AuthHandler exposes login, refresh, and logout endpoints.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler builds a new auth handler instance.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes wires the auth endpoints. Login and refresh take dedicated
// middleware chains so each can carry its own rate limit.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, loginMiddlewares, refreshMiddlewares []gin.HandlerFunc) {
	login := append([]gin.HandlerFunc{}, loginMiddlewares...)
	login = append(login, h.Login)
	rg.POST("/login", login...)

	refresh := append([]gin.HandlerFunc{}, refreshMiddlewares...)
	refresh = append(refresh, h.Refresh)
	rg.POST("/refresh", refresh...)

	rg.POST("/logout", h.Logout)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier and password are required"))
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondMapped(c, err, loginErrorCases, "login failed")
		return
	}

	c.JSON(http.StatusOK, newTokenPairResponse(pair))
}

// Refresh rotates a refresh token into a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refresh_token is required"))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondMapped(c, err, refreshErrorCases, "token refresh failed")
		return
	}

	c.JSON(http.StatusOK, newTokenPairResponse(pair))
}

// Logout blacklists the caller's access token and removes the refresh session.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := bearerFromHeader(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing bearer token"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondMapped(c, err, logoutErrorCases, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func bearerFromHeader(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
