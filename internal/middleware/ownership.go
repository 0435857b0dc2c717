package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/services"
)

// Loader fetches the record identified by id if userID owns it.
type Loader[T any] func(ctx context.Context, userID, id string) (*T, error)

// RequireOwnership loads the record named by the :id parameter and stores it
// in the context under key. Records owned by other users are reported as
// missing rather than forbidden, to avoid leaking their existence.
func RequireOwnership[T any](key string, load Loader[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		record, err := load(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				apierrors.NotFound(c, "")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(key, record)
		c.Next()
	}
}

// Loaded returns the record stored by RequireOwnership.
func Loaded[T any](c *gin.Context, key string) (*T, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	record, ok := v.(*T)
	return record, ok
}
