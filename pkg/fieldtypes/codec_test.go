package fieldtypes

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type obj = map[string]interface{}

func TestDecode_TaggedDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   obj
		want obj
	}{
		{"title", obj{"type": "title"}, obj{"title": obj{}}},
		{"number default format", obj{"type": "number"}, obj{"number": obj{"format": "number"}}},
		{"number keeps format", obj{"type": "number", "number": obj{"format": "euro"}}, obj{"number": obj{"format": "euro"}}},
		{"select empty options", obj{"type": "select"}, obj{"select": obj{"options": []interface{}{}}}},
		{"formula", obj{"type": "formula"}, obj{"formula": obj{"expression": "1"}}},
		{
			"relation database id wins",
			obj{"type": "relation", "relation": obj{"database_id": "db1", "data_source_id": "ds1"}},
			obj{"relation": obj{"data_source_id": "db1", "type": "single_property"}},
		},
		{"relation empty", obj{"type": "relation"}, obj{"relation": obj{"data_source_id": "", "type": "single_property"}}},
		{
			"rollup",
			obj{"type": "rollup"},
			obj{"rollup": obj{"relation_property_name": "", "rollup_property_name": "", "function": "count"}},
		},
		{"unknown becomes rich_text", obj{"type": "hologram"}, obj{"rich_text": obj{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode("P", tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, Encode(d)); diff != "" {
				t.Errorf("Encode(Decode()) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Native(t *testing.T) {
	d, err := Decode("Status", obj{"select": obj{"options": []interface{}{obj{"name": "A", "color": "red"}}}})
	require.NoError(t, err)
	assert.Equal(t, KindSelect, d.Kind)
	assert.Equal(t, "Status", d.Name)

	_, err = Decode("Bad", obj{"foo": obj{}})
	assert.Error(t, err)

	_, err = Decode("Both", obj{"title": obj{}, "rich_text": obj{}})
	assert.Error(t, err)

	_, err = Decode("NotObject", "title")
	assert.Error(t, err)
}

func TestNormalizeProperties(t *testing.T) {
	out, err := NormalizeProperties(obj{
		"Name":  obj{"type": "title"},
		"Price": obj{"number": obj{"format": "dollar"}},
	})
	require.NoError(t, err)
	want := obj{
		"Name":  obj{"title": obj{}},
		"Price": obj{"number": obj{"format": "dollar"}},
	}
	assert.Empty(t, cmp.Diff(want, out))
}

func TestEnsureTitle(t *testing.T) {
	props := EnsureTitle(obj{"Notes": obj{"rich_text": obj{}}})
	assert.Contains(t, props, "Name")
	assert.True(t, HasTitle(props))

	props = EnsureTitle(obj{"Task": obj{"title": obj{}}})
	assert.NotContains(t, props, "Name")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("A", obj{"title": obj{}}))
	assert.NoError(t, Validate("B", obj{"number": obj{"format": "percent"}}))
	assert.Error(t, Validate("C", obj{"number": obj{"format": "bitcoin"}}))
	assert.NoError(t, Validate("D", obj{"select": obj{"options": []interface{}{obj{"name": "x", "color": "default"}}}}))
	assert.Error(t, Validate("E", obj{"select": obj{"options": []interface{}{obj{"name": "x", "color": "teal"}}}}))
	assert.Error(t, Validate("F", obj{"select": obj{"options": []interface{}{obj{"color": "red"}}}}))
	assert.Error(t, Validate("G", obj{}))
	assert.Error(t, Validate("H", obj{"title": obj{}, "url": obj{}}))
	assert.Error(t, Validate("I", obj{"type": "title"}))
	assert.Error(t, Validate("J", obj{"rich_text": "oops"}))
	assert.NoError(t, Validate("K", obj{"type": "title", "title": obj{}}))
}

func TestEnsureColorVariation(t *testing.T) {
	props := obj{
		"Status": obj{"select": obj{"options": []interface{}{
			obj{"name": "A", "color": "blue"},
			obj{"name": "B", "color": "blue"},
			obj{"name": "C", "color": "blue"},
		}}},
		"Tags": obj{"multi_select": obj{"options": []interface{}{
			obj{"name": "x", "color": "red"},
			obj{"name": "y", "color": "green"},
		}}},
		"Single": obj{"select": obj{"options": []interface{}{obj{"name": "only", "color": "pink"}}}},
	}

	out := EnsureColorVariation(props)

	status := out["Status"].(obj)["select"].(obj)["options"].([]interface{})
	assert.Equal(t, "gray", status[0].(obj)["color"])
	assert.Equal(t, "brown", status[1].(obj)["color"])
	assert.Equal(t, "orange", status[2].(obj)["color"])

	tags := out["Tags"].(obj)["multi_select"].(obj)["options"].([]interface{})
	assert.Equal(t, "red", tags[0].(obj)["color"])
	assert.Equal(t, "green", tags[1].(obj)["color"])

	single := out["Single"].(obj)["select"].(obj)["options"].([]interface{})
	assert.Equal(t, "pink", single[0].(obj)["color"])

	again := EnsureColorVariation(out)
	assert.Empty(t, cmp.Diff(out, again))
}

func TestEnsureColorVariation_WrapsPalette(t *testing.T) {
	var opts []interface{}
	for i := 0; i < 11; i++ {
		opts = append(opts, obj{"name": string(rune('a' + i))})
	}
	props := EnsureColorVariation(obj{"S": obj{"select": obj{"options": opts}}})
	got := props["S"].(obj)["select"].(obj)["options"].([]interface{})
	assert.Equal(t, "red", got[8].(obj)["color"])
	assert.Equal(t, "gray", got[9].(obj)["color"])
	assert.Equal(t, "brown", got[10].(obj)["color"])
}

func TestSampleValue(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	v, ok := SampleValue("Products", "Name", KindTitle, now)
	require.True(t, ok)
	assert.Equal(t, TextValue(KindTitle, "Wireless Bluetooth Headphones"), v)

	v, _ = SampleValue("Widgets", "Name", KindTitle, now)
	assert.Equal(t, TextValue(KindTitle, "Widgets Sample"), v)

	v, _ = SampleValue("Orders", "Total", KindNumber, now)
	assert.Equal(t, obj{"number": 199.99}, v)

	v, _ = SampleValue("Orders", "Unknown", KindNumber, now)
	assert.Equal(t, obj{"number": float64(0)}, v)

	v, _ = SampleValue("Customers", "Tier", KindSelect, now)
	assert.Equal(t, obj{"select": obj{"name": "Gold"}}, v)

	v, _ = SampleValue("Any", "When", KindDate, now)
	assert.Equal(t, obj{"date": obj{"start": "2025-03-04"}}, v)

	_, ok = SampleValue("Any", "Who", KindPeople, now)
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := GetRegistry()
	assert.Len(t, r.GetAll(), 19)
	assert.True(t, r.IsKnown("phone_number"))
	assert.False(t, r.IsKnown("phone"))
	assert.True(t, IsComputed(KindRollup))
	assert.False(t, IsComputed(KindTitle))
	assert.Equal(t, "checkbox", r.Names()[0])
}
