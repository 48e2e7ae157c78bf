package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/interfaces/http/dto"
)

// Headers carrying the caller identity. Authentication happens upstream;
// this service trusts whatever the gateway forwards.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

const actorKey = "actor"

// Actor builds a shared.Actor from the identity headers and stores it on the
// gin context. Requests without a parsable identity are rejected with 401.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(UserIDHeader))
		if err != nil {
			abortUnauthorized(c, "missing or malformed "+UserIDHeader+" header")
			return
		}
		actor, err := shared.NewActor(id, shared.Role(c.GetHeader(UserRoleHeader)))
		if err != nil {
			abortUnauthorized(c, "missing or unknown "+UserRoleHeader+" header")
			return
		}

		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), id.String(), string(actor.Role)))
		c.Next()
	}
}

// GetActor returns the actor stored by Actor
func GetActor(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
