package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

// errorCase pairs a service sentinel with its transport translation.
type errorCase struct {
	err     error
	status  int
	message string
}

// One case set per auth operation. Keeping the tables here means a new sentinel
// gets translated in exactly one place instead of per handler.
var (
	loginErrorCases = []errorCase{
		{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	}

	refreshErrorCases = []errorCase{
		{usecase.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid refresh token"},
		{usecase.ErrExpiredRefreshToken, http.StatusUnauthorized, "refresh token expired"},
	}

	logoutErrorCases = []errorCase{
		{usecase.ErrInvalidAccessToken, http.StatusUnauthorized, "invalid access token"},
		{usecase.ErrExpiredAccessToken, http.StatusUnauthorized, "access token expired"},
	}
)

// respondMapped translates a service error using the operation's case set. Store
// outages become 503 so operators can tell capacity loss from bugs; anything
// else falls back to a 500 with the operation's generic message.
func respondMapped(c *gin.Context, err error, cases []errorCase, fallbackMessage string) {
	for _, cs := range cases {
		if cs.err == nil {
			continue
		}
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, NewErrorResponse(c, cs.message))
			return
		}
	}

	if errors.Is(err, repository.ErrStoreUnavailable) {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "service temporarily unavailable"))
		return
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallbackMessage))
}
