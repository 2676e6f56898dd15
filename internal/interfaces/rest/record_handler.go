package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/pkg/constants"
	"github.com/notionforge/backend/pkg/utils"
)

// RecordStore is the record CRUD surface served by RecordHandler
type RecordStore interface {
	List(ctx context.Context, containerID, dataSourceID string, page services.Page) (*models.RecordPage, error)
	Get(ctx context.Context, recordID string) (map[string]interface{}, error)
	Create(ctx context.Context, containerID, dataSourceID string, properties map[string]interface{}) (map[string]interface{}, string, error)
	Update(ctx context.Context, recordID string, properties map[string]interface{}) (map[string]interface{}, error)
	Archive(ctx context.Context, recordID string) error
	RetrieveWithProperties(ctx context.Context, containerID string) (map[string]interface{}, error)
}

// RecordHandler proxies record CRUD for any database
type RecordHandler struct {
	records RecordStore
	logger  *zap.Logger
}

func NewRecordHandler(records RecordStore, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{records: records, logger: logger}
}

// Get handles GET /api/records: one record with ?id, the database schema
// with ?info=true, otherwise a page of records
func (h *RecordHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	if id := c.Query(constants.ParamID); id != "" {
		HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
			page, err := h.records.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{constants.ResponseSuccess: true, "result": page}, nil
		})
		return
	}

	databaseID := c.Query(constants.ParamDatabaseID)
	if c.Query(constants.ParamInfo) == "true" {
		HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
			db, err := h.records.RetrieveWithProperties(ctx, databaseID)
			if err != nil {
				return nil, err
			}
			return gin.H{constants.ResponseSuccess: true, "database": db}, nil
		})
		return
	}

	page := services.Page{
		Size:   utils.ToInt(c.Query(constants.ParamPageSize), constants.DefaultPageSize),
		Cursor: c.Query(constants.ParamStartCursor),
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		return h.records.List(ctx, databaseID, c.Query(constants.ParamDataSourceID), page)
	})
}

// Create handles POST /api/records; the body is the record's properties
func (h *RecordHandler) Create(c *gin.Context) {
	var properties map[string]interface{}
	if !BindJSON(c, h.logger, &properties) {
		return
	}
	HandleJSON(c, h.logger, http.StatusCreated, func() (interface{}, error) {
		page, dataSourceID, err := h.records.Create(c.Request.Context(), c.Query(constants.ParamDatabaseID), c.Query(constants.ParamDataSourceID), properties)
		if err != nil {
			return nil, err
		}
		resp := gin.H{
			constants.ResponseSuccess: true,
			"result":                  page,
			constants.ResponseMessage: "Record created successfully",
		}
		if dataSourceID != "" {
			resp["dataSourceId"] = dataSourceID
		}
		return resp, nil
	})
}

// Update handles PUT and PATCH /api/records?id=
func (h *RecordHandler) Update(c *gin.Context) {
	var properties map[string]interface{}
	if !BindJSON(c, h.logger, &properties) {
		return
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		page, err := h.records.Update(c.Request.Context(), c.Query(constants.ParamID), properties)
		if err != nil {
			return nil, err
		}
		return gin.H{
			constants.ResponseSuccess: true,
			"result":                  page,
			constants.ResponseMessage: "Record updated successfully",
		}, nil
	})
}

// Delete handles DELETE /api/records?id=; records are archived, never removed
func (h *RecordHandler) Delete(c *gin.Context) {
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		if err := h.records.Archive(c.Request.Context(), c.Query(constants.ParamID)); err != nil {
			return nil, err
		}
		return gin.H{
			constants.ResponseSuccess: true,
			constants.ResponseMessage: "Record deleted successfully",
		}, nil
	})
}
