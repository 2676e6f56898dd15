package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/pkg/constants"
	"github.com/notionforge/backend/pkg/errors"
)

// RespondAppError sends the standard error body for err. Server-side
// failures are logged at Error level.
func RespondAppError(c *gin.Context, logger *zap.Logger, err error) {
	code := errors.GetHTTPStatus(err)
	if code >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.Int("status", code),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(code, errors.ToResponse(err))
}

// BindJSON binds the request body and answers 400 when it is not valid JSON
func BindJSON(c *gin.Context, logger *zap.Logger, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, logger, errors.NewValidationError("body", fmt.Sprintf("Invalid JSON in request body: %v", err)).
			WithHint("Check that all property names and values are properly formatted"))
		return false
	}
	return true
}

// HandleJSON runs action and writes its result with status, or the error
func HandleJSON(c *gin.Context, logger *zap.Logger, status int, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, logger, err)
		return
	}
	c.JSON(status, result)
}

// elapsed renders a response time header value
func elapsed(start time.Time) string {
	return fmt.Sprintf("%dms", time.Since(start).Milliseconds())
}

// MethodNotAllowed answers routes that exist under another method
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{constants.ResponseError: "Method not allowed"})
}

// NotFound answers unknown routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{constants.ResponseError: "Not found"})
}
