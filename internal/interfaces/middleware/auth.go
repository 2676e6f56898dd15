package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/notionforge/backend/pkg/errors"
)

// SettingLookup reports whether a named setting is configured
type SettingLookup func(name string) bool

// RequireSettings aborts with a configuration error listing every named
// setting that is not configured. The service keeps running without them;
// only the routes that need them refuse to serve.
func RequireSettings(has SettingLookup, names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var missing []string
		for _, name := range names {
			if !has(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			err := apperrors.NewConfigurationError(missing...)
			c.AbortWithStatusJSON(err.HTTPStatus(), apperrors.ToResponse(err))
			return
		}
		c.Next()
	}
}
