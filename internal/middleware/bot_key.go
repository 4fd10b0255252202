package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

// BotKeyHeader carries the shared secret of the chat front end.
const BotKeyHeader = "X-Bot-Key"

// ContextExternalIDKey stores the chat id a bot request acts for.
const ContextExternalIDKey = "externalID"

// BotKey rejects requests that do not present the configured bot key. An
// empty key disables the bot surface entirely.
func BotKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(BotKeyHeader)
		if key == "" || presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid bot key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

type userResolver interface {
	ResolveUser(ctx context.Context, externalID string) (*models.User, error)
}

// BotActor resolves the :externalId path parameter into the caller's account.
func BotActor(users userResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := c.Param("externalId")
		if externalID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "external id is required"))
			c.Abort()
			return
		}
		user, err := users.ResolveUser(c.Request.Context(), externalID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextExternalIDKey, externalID)
		c.Set(ContextActorKey, user.ID)
		c.Set(ContextUserKey, &models.JWTClaims{UserID: user.ID, ExternalID: user.ExternalID, Role: user.Role, Email: user.Email})
		c.Next()
	}
}
