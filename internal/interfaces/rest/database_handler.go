package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/constants"
	"github.com/notionforge/backend/pkg/errors"
)

// DatabaseProvisioner creates databases from schemas
type DatabaseProvisioner interface {
	CreateDatabase(ctx context.Context, def schema.Definition, parentID string) (*models.CreatedDatabase, error)
	CreateSeparate(ctx context.Context, ms schema.MultiSourceSchema, parentID string) (*models.SeparateResult, error)
	CreateMultiSource(ctx context.Context, ms schema.MultiSourceSchema, parentID string) (*models.MultiSourceResult, error)
	TestColumns(ctx context.Context, databaseURL string) (*models.ColumnTestResult, error)
}

// DatabaseHandler serves database creation
type DatabaseHandler struct {
	provisioner DatabaseProvisioner
	logger      *zap.Logger
}

func NewDatabaseHandler(provisioner DatabaseProvisioner, logger *zap.Logger) *DatabaseHandler {
	return &DatabaseHandler{provisioner: provisioner, logger: logger}
}

type createDatabaseRequest struct {
	Schema     *schema.Definition `json:"schema"`
	DatabaseID string             `json:"databaseId"`
}

// Create handles POST /api/databases. databaseId names the parent page.
func (h *DatabaseHandler) Create(c *gin.Context) {
	var req createDatabaseRequest
	if !BindJSON(c, h.logger, &req) {
		return
	}
	if req.Schema == nil {
		RespondAppError(c, h.logger, errors.NewValidationError("schema", "Schema is required"))
		return
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		return h.provisioner.CreateDatabase(c.Request.Context(), *req.Schema, req.DatabaseID)
	})
}

type multiSourceRequest struct {
	Schema     *schema.MultiSourceSchema `json:"schema"`
	DatabaseID string                    `json:"databaseId"`
	Mode       string                    `json:"mode"`
}

// CreateMultiSource handles POST /api/databases/multi-source
func (h *DatabaseHandler) CreateMultiSource(c *gin.Context) {
	var req multiSourceRequest
	if !BindJSON(c, h.logger, &req) {
		return
	}
	if req.Schema == nil {
		RespondAppError(c, h.logger, errors.NewValidationError("schema", "Schema is required"))
		return
	}

	ctx := c.Request.Context()
	HandleJSON(c, h.logger, http.StatusCreated, func() (interface{}, error) {
		switch req.Mode {
		case "", constants.ModeMultiSource:
			return h.provisioner.CreateMultiSource(ctx, *req.Schema, req.DatabaseID)
		case constants.ModeSeparate:
			return h.provisioner.CreateSeparate(ctx, *req.Schema, req.DatabaseID)
		}
		return nil, errors.NewValidationError("mode", "Unknown mode "+req.Mode).
			WithHint("Use \"multi-source\" or \"separate\"")
	})
}

// TestColumns handles GET /api/databases/multi-source?test=true&url=
func (h *DatabaseHandler) TestColumns(c *gin.Context) {
	if c.Query(constants.ParamTest) == "" {
		MethodNotAllowed(c)
		return
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		return h.provisioner.TestColumns(c.Request.Context(), c.Query(constants.ParamURL))
	})
}
