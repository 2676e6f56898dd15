package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/internal/domain/models"
)

// SchemaDesigner turns natural-language requests into schemas
type SchemaDesigner interface {
	Chat(ctx context.Context, req services.ChatRequest) (*services.ChatResponse, error)
	Generate(ctx context.Context, req services.GenerateRequest) (*services.GenerateResponse, error)
}

// TemplateSource offers catalog templates to the generator prompt
type TemplateSource interface {
	PromptTemplates() []models.PromptTemplate
}

// SynthesisHandler serves the chat and schema generator endpoints
type SynthesisHandler struct {
	designer  SchemaDesigner
	templates TemplateSource
	logger    *zap.Logger
}

func NewSynthesisHandler(designer SchemaDesigner, templates TemplateSource, logger *zap.Logger) *SynthesisHandler {
	return &SynthesisHandler{designer: designer, templates: templates, logger: logger}
}

// Chat handles POST /api/chat
func (h *SynthesisHandler) Chat(c *gin.Context) {
	var req services.ChatRequest
	if !BindJSON(c, h.logger, &req) {
		return
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		return h.designer.Chat(c.Request.Context(), req)
	})
}

// Generate handles POST /api/schemas. When the caller sends no templates
// the catalog's are offered to the model.
func (h *SynthesisHandler) Generate(c *gin.Context) {
	var req services.GenerateRequest
	if !BindJSON(c, h.logger, &req) {
		return
	}
	if req.AvailableTemplates == nil && h.templates != nil {
		req.AvailableTemplates = h.templates.PromptTemplates()
	}
	HandleJSON(c, h.logger, http.StatusOK, func() (interface{}, error) {
		return h.designer.Generate(c.Request.Context(), req)
	})
}
