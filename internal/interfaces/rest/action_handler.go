package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/pkg/constants"
)

// ActionDispatcher runs a named action with its raw payload
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action string, payload json.RawMessage) (interface{}, error)
}

// ActionHandler serves an {action, payload} endpoint
type ActionHandler struct {
	actions ActionDispatcher
	logger  *zap.Logger
}

func NewActionHandler(actions ActionDispatcher, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{actions: actions, logger: logger}
}

type actionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Handle dispatches the requested action. A Download result is sent as
// an attachment in its format.
func (h *ActionHandler) Handle(c *gin.Context) {
	var req actionRequest
	if !BindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.actions.Dispatch(c.Request.Context(), req.Action, req.Payload)
	if err != nil {
		RespondAppError(c, h.logger, err)
		return
	}

	download, ok := result.(*services.Download)
	if !ok {
		c.JSON(http.StatusOK, result)
		return
	}
	c.Header(constants.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", download.Filename))
	if download.Format == services.FormatYAML {
		c.YAML(http.StatusOK, download.Body)
		return
	}
	c.JSON(http.StatusOK, download.Body)
}
