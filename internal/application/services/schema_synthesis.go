package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/llm"
)

//go:embed prompts
var promptFS embed.FS

var (
	chatPrompt      = mustReadPrompt("prompts/chat.txt")
	schemaStructure = mustReadPrompt("prompts/schema_structure.json")
	generatorPrompt = template.Must(template.ParseFS(promptFS, "prompts/generator.tmpl"))
)

func mustReadPrompt(name string) string {
	b, err := promptFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded prompt %s: %v", name, err))
	}
	return string(b)
}

// Schema response types
const (
	SchemaTypeMultiSource = "multi-source"
	SchemaTypeIndividual  = "individual-schemas"
)

// ChatRequest is a conversational schema request
type ChatRequest struct {
	Message  string      `json:"message"`
	Context  interface{} `json:"context,omitempty"`
	Language string      `json:"language,omitempty"`
}

// ChatResponse carries the explanation and the extracted schema, if any
type ChatResponse struct {
	Content string                    `json:"content"`
	Schema  *schema.MultiSourceSchema `json:"schema"`
}

// GenerateRequest is a schema generator request
type GenerateRequest struct {
	Message            string                  `json:"message"`
	Context            interface{}             `json:"context,omitempty"`
	ExistingDatabases  interface{}             `json:"existingDatabases,omitempty"`
	IndividualSchemas  bool                    `json:"individual_schemas"`
	AvailableTemplates []models.PromptTemplate `json:"availableTemplates,omitempty"`
}

// GenerateResponse carries either a multi-source schema or an array of single schemas
type GenerateResponse struct {
	Content           string      `json:"content"`
	Schema            interface{} `json:"schema"`
	Type              string      `json:"type"`
	IndividualSchemas bool        `json:"individual_schemas"`
}

// Suggestion is a recommended catalog template for a free-text request
type Suggestion struct {
	SuggestedTemplate string                 `json:"suggestedTemplate"`
	Confidence        float64                `json:"confidence"`
	Reasoning         string                 `json:"reasoning"`
	Customizations    map[string]interface{} `json:"customizations"`
}

// SchemaSynthesis turns natural-language requests into schemas using the
// first available generative model.
type SchemaSynthesis struct {
	generator llm.Generator
	models    []string
	retry     llm.RetryPolicy
	eventBus  *EventBus
	logger    *zap.Logger
}

// NewSchemaSynthesis creates a new SchemaSynthesis. A nil generator makes
// every call fail with a configuration error.
func NewSchemaSynthesis(generator llm.Generator, retry llm.RetryPolicy, eventBus *EventBus, logger *zap.Logger) *SchemaSynthesis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaSynthesis{
		generator: generator,
		models:    constants.GeminiModels,
		retry:     retry,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Available reports whether a generator is configured
func (s *SchemaSynthesis) Available() bool {
	return s.generator != nil
}

// Chat answers a conversational request in the requested language
func (s *SchemaSynthesis) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	lang := req.Language
	if lang == "" {
		lang = constants.DefaultLocale
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message", constants.MessageRequired(lang))
	}

	prompt := strings.NewReplacer(
		"{responseLanguage}", constants.LanguageName(lang),
		"{message}", req.Message,
		"{schemaStructure}", schemaStructure,
	).Replace(chatPrompt)

	text, err := s.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	content, parsed := ExtractMultiSource(text)
	s.logger.Debug("chat schema extracted",
		zap.String("language", lang),
		zap.Bool("schema", parsed != nil),
	)
	if parsed != nil {
		s.emit(ctx, events.SchemaGenerated, parsed.Title)
	}
	return &ChatResponse{Content: content, Schema: parsed}, nil
}

// Generate produces a multi-source schema, or individual schemas when requested
func (s *SchemaSynthesis) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message", constants.MessageRequired(constants.DefaultLocale))
	}

	prompt, err := s.buildGeneratorPrompt(req)
	if err != nil {
		return nil, err
	}
	text, err := s.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp := &GenerateResponse{Type: SchemaTypeMultiSource, IndividualSchemas: req.IndividualSchemas}
	if req.IndividualSchemas {
		resp.Type = SchemaTypeIndividual
		content, defs := ExtractIndividual(text)
		resp.Content = content
		if defs != nil {
			resp.Schema = defs
		}
	} else {
		content, parsed := ExtractMultiSource(text)
		resp.Content = content
		if parsed != nil {
			resp.Schema = parsed
		}
	}

	if resp.Schema != nil {
		s.emit(ctx, events.SchemaGenerated, resp.Type)
	}
	return resp, nil
}

func (s *SchemaSynthesis) buildGeneratorPrompt(req GenerateRequest) (string, error) {
	data := struct {
		SchemaStructure   string
		Individual        bool
		Templates         string
		ExistingDatabases string
		Message           string
	}{
		SchemaStructure: schemaStructure,
		Individual:      req.IndividualSchemas,
		Message:         req.Message,
	}

	if len(req.AvailableTemplates) > 0 {
		converted := make([]models.PromptTemplate, len(req.AvailableTemplates))
		for i, t := range req.AvailableTemplates {
			t.AsDataSource = schema.DataSourceSchema{
				Name:        t.Title,
				Description: t.Description,
				Properties:  t.Properties,
			}
			converted[i] = t
		}
		b, err := json.MarshalIndent(converted, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode templates: %w", err)
		}
		data.Templates = string(b)
	}
	if req.ExistingDatabases != nil {
		b, err := json.MarshalIndent(req.ExistingDatabases, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode existing databases: %w", err)
		}
		data.ExistingDatabases = string(b)
	}

	var buf bytes.Buffer
	if err := generatorPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// SmartSuggest recommends one of the given templates for userInput.
// Model output that holds no parseable suggestion falls back to keyword matching.
func (s *SchemaSynthesis) SmartSuggest(ctx context.Context, userInput string, templates []models.TemplateSummary) (*Suggestion, error) {
	var lines []string
	for _, t := range templates {
		lines = append(lines, fmt.Sprintf("- %s: %s - %s", t.ID, t.Title, t.Description))
	}
	prompt := fmt.Sprintf(`
Analyze this user request and suggest the best database template from these options:
%s

User request: %q

Respond with JSON: {
  "suggestedTemplate": "template_key",
  "confidence": 0.95,
  "reasoning": "explanation",
  "customizations": {
    "title": "suggested custom title",
    "additionalProperties": {}
  }
}
`, strings.Join(lines, "\n"), userInput)

	text, err := s.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if raw := directObj.FindString(text); raw != "" {
		var suggestion Suggestion
		if err := json.Unmarshal([]byte(raw), &suggestion); err == nil {
			return &suggestion, nil
		}
	}

	s.logger.Info("suggestion not parseable, using keyword match")
	s.emit(ctx, events.SchemaFallback, userInput)
	return KeywordSuggestion(userInput), nil
}

// KeywordSuggestion picks a system template from keywords in userInput
func KeywordSuggestion(userInput string) *Suggestion {
	lower := strings.ToLower(userInput)
	suggested := "project_management"
	switch {
	case strings.Contains(lower, "customer") || strings.Contains(lower, "crm"):
		suggested = "customer_crm"
	case strings.Contains(lower, "content") || strings.Contains(lower, "article"):
		suggested = "content_library"
	case strings.Contains(lower, "event") || strings.Contains(lower, "meeting"):
		suggested = "event_planning"
	}
	return &Suggestion{
		SuggestedTemplate: suggested,
		Confidence:        0.7,
		Reasoning:         "Based on keyword matching",
		Customizations:    map[string]interface{}{"title": userInput},
	}
}

// Complete selects a model and generates a completion under the retry policy
func (s *SchemaSynthesis) Complete(ctx context.Context, prompt string) (string, error) {
	model, err := s.SelectModel(ctx)
	if err != nil {
		return "", err
	}

	var text string
	attempt := 0
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		out, genErr := s.generator.Generate(ctx, model, prompt)
		if genErr != nil {
			s.logger.Warn("generation attempt failed",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(genErr),
			)
			return genErr
		}
		text = out
		return nil
	})
	if err != nil {
		if apperrors.IsUpstream(err) {
			return "", err
		}
		return "", &apperrors.UpstreamError{Service: "gemini", Message: err.Error(), Cause: err}
	}
	return text, nil
}

// SelectModel returns the first model, in preference order, that answers a ping
func (s *SchemaSynthesis) SelectModel(ctx context.Context) (string, error) {
	if s.generator == nil {
		return "", apperrors.NewConfigurationError(constants.EnvGeminiAPIKey)
	}
	var lastErr error
	for _, model := range s.models {
		if err := s.generator.Ping(ctx, model); err != nil {
			s.logger.Info("model not available, trying next", zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}
		return model, nil
	}
	return "", fmt.Errorf("%w. Last error: %v", apperrors.ErrNoAvailableModel, lastErr)
}

func (s *SchemaSynthesis) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if s.eventBus != nil {
		s.eventBus.Emit(ctx, eventType, payload)
	}
}
