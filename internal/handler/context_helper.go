package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/middleware"
	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the internal id of the caller set by JWT or BotActor.
func actorFromContext(c *gin.Context) (string, error) {
	if actor := c.GetString(middleware.ContextActorKey); actor != "" {
		return actor, nil
	}
	if claims := claimsFromContext(c); claims != nil && claims.UserID != "" {
		return claims.UserID, nil
	}
	return "", appErrors.ErrUnauthorized
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
