package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/fieldtypes"
	"github.com/notionforge/backend/pkg/notion"
	"github.com/notionforge/backend/pkg/utils"
)

func columnsOf(pairs ...string) schema.PropertyMap {
	out := make(schema.PropertyMap, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = map[string]interface{}{pairs[i+1]: map[string]interface{}{}}
	}
	return out
}

// ReferenceSchemas are the expected columns a standalone column test checks against
var ReferenceSchemas = map[string]schema.PropertyMap{
	"Products": columnsOf(
		"Name", "title",
		"Description", "rich_text",
		"Category", "select",
		"Price", "number",
		"SKU", "rich_text",
		"Image URL", "url",
		"Is Featured", "checkbox",
		"Created Date", "created_time",
	),
	"Orders": columnsOf(
		"Order ID", "title",
		"Customer Name", "rich_text",
		"Order Date", "date",
		"Status", "select",
		"Items", "rich_text",
		"Total Amount", "number",
		"Shipping Address", "rich_text",
		"Billing Address", "rich_text",
		"Payment Method", "select",
	),
	"Customers": columnsOf(
		"Customer Name", "title",
		"Email", "email",
		"Phone Number", "phone_number",
		"Billing Address", "rich_text",
		"Shipping Address", "rich_text",
		"Registration Date", "created_time",
		"Loyalty Points", "number",
	),
	"Inventory": columnsOf(
		"Product Name", "title",
		"SKU", "rich_text",
		"Quantity on Hand", "number",
		"Reorder Point", "number",
		"Supplier", "rich_text",
		"Last Updated", "last_edited_time",
	),
}

// VerifyColumns compares the columns of a database with the expected ones.
// Lookup failures are reported in the result, never returned.
func (s *ProvisioningService) VerifyColumns(ctx context.Context, databaseID string, expected map[string]interface{}) models.ColumnReport {
	db, err := s.api.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return models.ColumnReport{Error: err.Error()}
	}
	return s.compareWith(ctx, db, expected)
}

// TestColumns checks one database, addressed by URL or id, against every reference schema
func (s *ProvisioningService) TestColumns(ctx context.Context, databaseURL string) (*models.ColumnTestResult, error) {
	if databaseURL == "" {
		return nil, apperrors.NewValidationError("url", "Database URL required for testing")
	}
	id, err := utils.NormalizeID(databaseURL)
	if err != nil {
		return nil, apperrors.NewValidationError("url", err.Error())
	}

	result := &models.ColumnTestResult{
		Success:     true,
		DatabaseURL: databaseURL,
		DatabaseID:  id,
		TestResults: make(map[string]models.ColumnReport, len(ReferenceSchemas)),
		Message:     "Database column test completed",
	}

	db, fetchErr := s.api.RetrieveDatabase(ctx, id)
	var actual map[string]interface{}
	if fetchErr == nil {
		actual, fetchErr = s.resolver.SchemaProperties(ctx, db)
	}
	for name, expected := range ReferenceSchemas {
		if fetchErr != nil {
			result.TestResults[name] = models.ColumnReport{Error: fetchErr.Error()}
			continue
		}
		result.TestResults[name] = compareColumns(actual, expected)
	}
	return result, nil
}

func (s *ProvisioningService) compareWith(ctx context.Context, db *notion.Database, expected map[string]interface{}) models.ColumnReport {
	actual, err := s.resolver.SchemaProperties(ctx, db)
	if err != nil {
		return models.ColumnReport{Error: err.Error()}
	}
	report := compareColumns(actual, expected)
	s.logger.Debug("columns compared",
		zap.String("database", db.ID),
		zap.Int("expected", report.ExpectedCount),
		zap.Int("actual", report.ActualCount),
		zap.Bool("complete", report.AllPropertiesPresent),
	)
	return report
}

// compareColumns diffs property names and kinds. Actual properties carry
// their kind in "type"; expected ones may be in either accepted shape.
func compareColumns(actual, expected map[string]interface{}) models.ColumnReport {
	report := models.ColumnReport{
		Success:           true,
		ExpectedCount:     len(expected),
		ActualCount:       len(actual),
		MissingProperties: []string{},
		ExtraProperties:   []string{},
	}

	for name, want := range expected {
		got, ok := actual[name]
		if !ok {
			report.MissingProperties = append(report.MissingProperties, name)
			continue
		}
		wantKind, ok := fieldtypes.KindOf(want)
		if !ok {
			continue
		}
		gotKind, ok := fieldtypes.KindOf(got)
		if !ok || gotKind != wantKind {
			if report.TypeMismatches == nil {
				report.TypeMismatches = map[string]string{}
			}
			report.TypeMismatches[name] = string(gotKind)
		}
	}
	for name := range actual {
		if _, ok := expected[name]; !ok {
			report.ExtraProperties = append(report.ExtraProperties, name)
		}
	}

	sort.Strings(report.MissingProperties)
	sort.Strings(report.ExtraProperties)
	report.AllPropertiesPresent = len(report.MissingProperties) == 0
	return report
}
