package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/llm"
)

// fakeGenerator replays scripted completions
type fakeGenerator struct {
	mu          sync.Mutex
	unavailable map[string]error
	replies     []string
	failures    []error
	prompts     []string
	models      []string
}

func (f *fakeGenerator) Ping(_ context.Context, model string) error {
	return f.unavailable[model]
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return "", err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newTestSynthesis(gen llm.Generator, sleeper *sleepRecorder) *SchemaSynthesis {
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = sleeper.Sleep
	return NewSchemaSynthesis(gen, policy, NewEventBus(zap.NewNop()), zap.NewNop())
}

const validSchemaJSON = `{
  "title": "Shop",
  "dataSources": [
    {"name": "Products", "properties": {"Name": {"title": {}}, "Price": {"number": {"format": "dollar"}}}}
  ]
}`

func TestExtractMultiSource(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantContent string
		wantSchema  bool
	}{
		{
			name:        "fenced block",
			text:        "Here is your shop.\n```json\n" + validSchemaJSON + "\n```\nEnjoy",
			wantContent: "Here is your shop.",
			wantSchema:  true,
		},
		{
			name:        "bare object",
			text:        "Explanation first " + validSchemaJSON,
			wantContent: "Explanation first",
			wantSchema:  true,
		},
		{
			name:        "fenced block invalid and widest object invalid",
			text:        "Intro ```json\n{\"title\": \"\"}\n``` then " + validSchemaJSON,
			wantContent: "",
			wantSchema:  false,
		},
		{
			name:        "bad color",
			text:        `{"title":"T","dataSources":[{"name":"A","properties":{"S":{"select":{"options":[{"name":"x","color":"teal"}]}}}}]}`,
			wantContent: `{"title":"T","dataSources":[{"name":"A","properties":{"S":{"select":{"options":[{"name":"x","color":"teal"}]}}}}]}`,
			wantSchema:  false,
		},
		{
			name:        "type tag without configuration",
			text:        "```json\n{\"title\":\"T\",\"dataSources\":[{\"name\":\"A\",\"properties\":{\"Name\":{\"type\":\"title\"}}}]}\n```",
			wantContent: "",
			wantSchema:  false,
		},
		{
			name:        "non-object configuration",
			text:        "```json\n{\"title\":\"T\",\"dataSources\":[{\"name\":\"A\",\"properties\":{\"Name\":{\"title\":{}},\"Notes\":{\"rich_text\":\"oops\"}}}]}\n```",
			wantContent: "",
			wantSchema:  false,
		},
		{
			name:        "no json",
			text:        "I could not design that.",
			wantContent: "I could not design that.",
			wantSchema:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, got := ExtractMultiSource(tt.text)
			assert.Equal(t, tt.wantSchema, got != nil)
			if tt.wantSchema {
				assert.Equal(t, tt.wantContent, content)
				assert.Equal(t, "Shop", got.Title)
				require.Len(t, got.DataSources, 1)
				assert.Equal(t, []string{"Name", "Price"}, got.DataSources[0].Properties.Names())
			} else if tt.wantContent != "" {
				assert.Equal(t, tt.wantContent, content)
			}
		})
	}
}

func TestExtractMultiSource_FallsBackToWidestObject(t *testing.T) {
	// The fenced block fails validation; the widest object spans from the
	// fence to the end and fails too, so the full text comes back
	text := "Intro ```json\n{\"title\": \"\"}\n``` then " + validSchemaJSON
	content, got := ExtractMultiSource(text)
	assert.Nil(t, got)
	assert.Equal(t, text, content)

	// Without competing braces the direct match succeeds
	text = "Intro ```json\n[1, 2]\n``` then " + validSchemaJSON
	content, got = ExtractMultiSource(text)
	require.NotNil(t, got)
	assert.Equal(t, "Intro ```json\n[1, 2]\n``` then", content)
}

func TestExtractIndividual(t *testing.T) {
	text := "Two databases:\n```json\n[{\"title\":\"Products\",\"properties\":{\"Name\":{\"title\":{}}}},{\"title\":\"Orders\",\"properties\":{\"Order ID\":{\"title\":{}}}}]\n```"
	content, defs := ExtractIndividual(text)
	assert.Equal(t, "Two databases:", content)
	want := []schema.Definition{
		{Title: "Products", Properties: schema.PropertyMap{"Name": map[string]interface{}{"title": map[string]interface{}{}}}},
		{Title: "Orders", Properties: schema.PropertyMap{"Order ID": map[string]interface{}{"title": map[string]interface{}{}}}},
	}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Errorf("individual schemas mismatch (-want +got):\n%s", diff)
	}

	content, defs = ExtractIndividual("no array here")
	assert.Nil(t, defs)
	assert.Equal(t, "no array here", content)
}

func TestSchemaSynthesis_ModelSelection(t *testing.T) {
	gen := &fakeGenerator{
		unavailable: map[string]error{"gemini-2.0-flash": errors.New("not found")},
		replies:     []string{"plain answer"},
	}
	svc := newTestSynthesis(gen, &sleepRecorder{})

	resp, err := svc.Chat(context.Background(), ChatRequest{Message: "a shop"})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", resp.Content)
	assert.Nil(t, resp.Schema)
	assert.Equal(t, []string{"gemini-1.5-pro"}, gen.models)
}

func TestSchemaSynthesis_NoModelAvailable(t *testing.T) {
	gen := &fakeGenerator{unavailable: map[string]error{
		"gemini-2.0-flash": errors.New("a"),
		"gemini-1.5-pro":   errors.New("b"),
		"gemini-1.5-flash": errors.New("quota exceeded"),
	}}
	svc := newTestSynthesis(gen, &sleepRecorder{})

	_, err := svc.Chat(context.Background(), ChatRequest{Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoAvailableModel)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 500, apperrors.GetHTTPStatus(err))
}

func TestSchemaSynthesis_RetryBackoff(t *testing.T) {
	gen := &fakeGenerator{
		failures: []error{errors.New("503"), errors.New("503")},
		replies:  []string{"```json\n" + validSchemaJSON + "\n```"},
	}
	sleeper := &sleepRecorder{}
	svc := newTestSynthesis(gen, sleeper)

	resp, err := svc.Chat(context.Background(), ChatRequest{Message: "shop", Language: "fr"})
	require.NoError(t, err)
	require.NotNil(t, resp.Schema)
	assert.Equal(t, "", resp.Content)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)
	assert.Contains(t, gen.prompts[0], "French")
	assert.NotContains(t, gen.prompts[0], "{schemaStructure}")
}

func TestSchemaSynthesis_RetriesExhausted(t *testing.T) {
	gen := &fakeGenerator{failures: []error{
		errors.New("e1"), errors.New("e2"), errors.New("final"), errors.New("unused"),
	}}
	sleeper := &sleepRecorder{}
	svc := newTestSynthesis(gen, sleeper)

	_, err := svc.Chat(context.Background(), ChatRequest{Message: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Equal(t, 502, apperrors.GetHTTPStatus(err))
	assert.Contains(t, err.Error(), "final")
	assert.Len(t, gen.prompts, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)
}

func TestSchemaSynthesis_Validation(t *testing.T) {
	svc := newTestSynthesis(&fakeGenerator{}, &sleepRecorder{})
	_, err := svc.Chat(context.Background(), ChatRequest{Message: "", Language: "es"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "El mensaje es requerido")

	for _, props := range []string{`{"Name":{"type":"title"}}`, `{"Name":{"title":{}},"Notes":{"rich_text":"oops"}}`} {
		gen := &fakeGenerator{replies: []string{"```json\n{\"title\":\"T\",\"dataSources\":[{\"name\":\"A\",\"properties\":" + props + "}]}\n```"}}
		resp, err := newTestSynthesis(gen, &sleepRecorder{}).Chat(context.Background(), ChatRequest{Message: "a shop"})
		require.NoError(t, err)
		assert.Nil(t, resp.Schema, props)
	}

	unconfigured := NewSchemaSynthesis(nil, llm.DefaultRetryPolicy(), nil, zap.NewNop())
	_, err = unconfigured.Generate(context.Background(), GenerateRequest{Message: "x"})
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestSchemaSynthesis_GenerateWithTemplates(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		"Individual:\n[{\"title\":\"Products\",\"properties\":{\"Name\":{\"title\":{}}}}]",
	}}
	svc := newTestSynthesis(gen, &sleepRecorder{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{
		Message:           "products",
		IndividualSchemas: true,
		ExistingDatabases: []map[string]string{{"title": "Legacy"}},
		AvailableTemplates: []models.PromptTemplate{{
			ID:         "customer_crm",
			Title:      "Customer Relationship Manager",
			Properties: schema.PropertyMap{"Company Name": map[string]interface{}{"title": map[string]interface{}{}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, SchemaTypeIndividual, resp.Type)
	assert.True(t, resp.IndividualSchemas)
	assert.Equal(t, "Individual:", resp.Content)
	defs, ok := resp.Schema.([]schema.Definition)
	require.True(t, ok)
	assert.Equal(t, "Products", defs[0].Title)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, `"asDataSource"`)
	assert.Contains(t, prompt, "EXISTING DATABASES")
	assert.Contains(t, prompt, "Legacy")
	assert.Contains(t, prompt, "Individual schemas requested: true")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "true"))
}

func TestSchemaSynthesis_GenerateMultiSourceWithoutSchema(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"Sorry, no schema"}}
	svc := newTestSynthesis(gen, &sleepRecorder{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, SchemaTypeMultiSource, resp.Type)
	assert.Nil(t, resp.Schema)
	assert.Equal(t, "Sorry, no schema", resp.Content)
	assert.NotContains(t, gen.prompts[0], "AVAILABLE TEMPLATES")
}

func TestSmartSuggest(t *testing.T) {
	templates := []models.TemplateSummary{
		{ID: "customer_crm", Title: "Customer Relationship Manager", Description: "CRM"},
	}

	gen := &fakeGenerator{replies: []string{
		`Sure: {"suggestedTemplate":"customer_crm","confidence":0.92,"reasoning":"sales","customizations":{"title":"Sales"}}`,
	}}
	svc := newTestSynthesis(gen, &sleepRecorder{})
	s, err := svc.SmartSuggest(context.Background(), "track my sales leads", templates)
	require.NoError(t, err)
	assert.Equal(t, "customer_crm", s.SuggestedTemplate)
	assert.InDelta(t, 0.92, s.Confidence, 0.0001)
	assert.Contains(t, gen.prompts[0], "- customer_crm: Customer Relationship Manager - CRM")

	gen = &fakeGenerator{replies: []string{"no idea"}}
	svc = newTestSynthesis(gen, &sleepRecorder{})
	s, err = svc.SmartSuggest(context.Background(), "Plan the team MEETING", templates)
	require.NoError(t, err)
	assert.Equal(t, "event_planning", s.SuggestedTemplate)
	assert.Equal(t, 0.7, s.Confidence)
	assert.Equal(t, "Based on keyword matching", s.Reasoning)
	assert.Equal(t, map[string]interface{}{"title": "Plan the team MEETING"}, s.Customizations)
}

func TestKeywordSuggestion(t *testing.T) {
	assert.Equal(t, "customer_crm", KeywordSuggestion("our CRM").SuggestedTemplate)
	assert.Equal(t, "content_library", KeywordSuggestion("article backlog").SuggestedTemplate)
	assert.Equal(t, "event_planning", KeywordSuggestion("company event").SuggestedTemplate)
	assert.Equal(t, "project_management", KeywordSuggestion("anything").SuggestedTemplate)
}
