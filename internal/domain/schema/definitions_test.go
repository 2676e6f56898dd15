package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiSourceSchema_Validate(t *testing.T) {
	valid := `{
		"title": "Shop",
		"dataSources": [
			{"name": "Products", "properties": {
				"Name": {"title": {}},
				"Price": {"number": {"format": "dollar"}},
				"Status": {"select": {"options": [{"name": "Active", "color": "green"}]}}
			}}
		]
	}`
	var s MultiSourceSchema
	require.NoError(t, json.Unmarshal([]byte(valid), &s))
	assert.NoError(t, s.Validate())

	cases := map[string]string{
		"missing title":      `{"dataSources": []}`,
		"missing sources":    `{"title": "x"}`,
		"empty source name":  `{"title": "x", "dataSources": [{"name": "", "properties": {}}]}`,
		"missing properties": `{"title": "x", "dataSources": [{"name": "A"}]}`,
		"property no kind":   `{"title": "x", "dataSources": [{"name": "A", "properties": {"P": {}}}]}`,
		"bad number format":  `{"title": "x", "dataSources": [{"name": "A", "properties": {"P": {"number": {"format": "btc"}}}}]}`,
		"bad option color":   `{"title": "x", "dataSources": [{"name": "A", "properties": {"P": {"select": {"options": [{"name": "a", "color": "teal"}]}}}}]}`,
		"two titles":         `{"title": "x", "dataSources": [{"name": "A", "properties": {"P": {"title": {}}, "Q": {"title": {}}}}]}`,
		"type tag only":      `{"title": "x", "dataSources": [{"name": "A", "properties": {"P": {"type": "title"}}}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var s MultiSourceSchema
			require.NoError(t, json.Unmarshal([]byte(raw), &s))
			assert.Error(t, s.Validate())
		})
	}
}

func TestDefinition_Validate(t *testing.T) {
	d := Definition{Title: "Orders", Properties: PropertyMap{"Order ID": map[string]interface{}{"title": map[string]interface{}{}}}}
	assert.NoError(t, d.Validate())
	assert.Equal(t, []string{"Order ID"}, d.Properties.Names())

	d.Title = ""
	assert.Error(t, d.Validate())
}

func TestDefinition_ValidateRejectsSecondTitle(t *testing.T) {
	d := Definition{Title: "Orders", Properties: PropertyMap{
		"Order ID": map[string]interface{}{"title": map[string]interface{}{}},
		"Customer": map[string]interface{}{"title": map[string]interface{}{}},
	}}
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one title property")

	d.Properties["Customer"] = map[string]interface{}{"rich_text": map[string]interface{}{}}
	assert.NoError(t, d.Validate())
}
