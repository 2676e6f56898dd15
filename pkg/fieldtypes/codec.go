package fieldtypes

import (
	"fmt"
	"sort"
)

// Palette lists the option colors the workspace renders, in assignment order
var Palette = []string{"gray", "brown", "orange", "yellow", "green", "blue", "purple", "pink", "red"}

// NumberFormats lists accepted number display formats
var NumberFormats = []string{"number", "percent", "dollar", "euro", "pound", "yen", "ruble", "rupee", "won", "yuan"}

// DefaultTitleProperty is added when a schema has no title property
const DefaultTitleProperty = "Name"

// Descriptor is a version-agnostic property definition
type Descriptor struct {
	Name   string
	Kind   Kind
	Config map[string]interface{}
}

// Decode resolves a raw property definition into a Descriptor.
// Two input shapes are accepted: the tagged form {"type": kind, kind: {...}}
// and the native form {kind: {...}}.
func Decode(name string, raw interface{}) (Descriptor, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return Descriptor{}, fmt.Errorf("property %q: expected object, got %T", name, raw)
	}

	if tag, ok := m["type"].(string); ok && tag != "" {
		return decodeTagged(name, tag, m), nil
	}

	kinds := recognizedKinds(m)
	switch len(kinds) {
	case 0:
		return Descriptor{}, fmt.Errorf("property %q: no recognized property type", name)
	case 1:
		cfg, _ := m[kinds[0]].(map[string]interface{})
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
		return Descriptor{Name: name, Kind: Kind(kinds[0]), Config: cfg}, nil
	default:
		return Descriptor{}, fmt.Errorf("property %q: ambiguous property types %v", name, kinds)
	}
}

func decodeTagged(name, tag string, m map[string]interface{}) Descriptor {
	kind := Kind(tag)
	if !IsKnown(tag) {
		kind = KindRichText
	}
	section := nestedMap(m, tag)
	cfg := map[string]interface{}{}

	switch kind {
	case KindNumber:
		cfg["format"] = stringOr(section["format"], "number")
	case KindSelect, KindMultiSelect:
		opts, ok := section["options"].([]interface{})
		if !ok {
			opts = []interface{}{}
		}
		cfg["options"] = opts
	case KindFormula:
		cfg["expression"] = stringOr(section["expression"], "1")
	case KindRelation:
		cfg["data_source_id"] = stringOr(section["database_id"], stringOr(section["data_source_id"], ""))
		cfg["type"] = stringOr(section["type"], "single_property")
	case KindRollup:
		cfg["relation_property_name"] = stringOr(section["relation_property_name"], "")
		cfg["rollup_property_name"] = stringOr(section["rollup_property_name"], "")
		cfg["function"] = stringOr(section["function"], "count")
	}
	return Descriptor{Name: name, Kind: kind, Config: cfg}
}

// Encode renders a Descriptor in the native wire shape
func Encode(d Descriptor) map[string]interface{} {
	cfg := d.Config
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	return map[string]interface{}{string(d.Kind): cfg}
}

// NormalizeProperties decodes and re-encodes every property of a schema
func NormalizeProperties(props map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(props))
	for name, raw := range props {
		d, err := Decode(name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = Encode(d)
	}
	return out, nil
}

// KindOf returns the kind of a raw property definition, if it decodes
func KindOf(raw interface{}) (Kind, bool) {
	d, err := Decode("", raw)
	if err != nil {
		return "", false
	}
	return d.Kind, true
}

// HasTitle reports whether any property is a title
func HasTitle(props map[string]interface{}) bool {
	for _, raw := range props {
		if k, ok := KindOf(raw); ok && k == KindTitle {
			return true
		}
	}
	return false
}

// EnsureTitle adds a "Name" title property when none exists
func EnsureTitle(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		props = map[string]interface{}{}
	}
	if !HasTitle(props) {
		props[DefaultTitleProperty] = map[string]interface{}{string(KindTitle): map[string]interface{}{}}
	}
	return props
}

// Validate checks a native property definition against the accepted enums.
// The "type" tag alone does not define a property.
func Validate(name string, raw interface{}) error {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("property %q: expected object", name)
	}
	kinds := recognizedKinds(m)
	if len(kinds) != 1 {
		return fmt.Errorf("property %q: must define exactly one property type, found %d", name, len(kinds))
	}
	section, ok := m[kinds[0]].(map[string]interface{})
	if !ok {
		return fmt.Errorf("property %q: %s configuration must be an object", name, kinds[0])
	}

	switch Kind(kinds[0]) {
	case KindNumber:
		if f, ok := section["format"]; ok {
			s, _ := f.(string)
			if !contains(NumberFormats, s) {
				return fmt.Errorf("property %q: unsupported number format %v", name, f)
			}
		}
	case KindSelect, KindMultiSelect:
		opts, ok := section["options"]
		if !ok {
			return nil
		}
		list, ok := opts.([]interface{})
		if !ok {
			return fmt.Errorf("property %q: options must be a list", name)
		}
		for _, o := range list {
			opt, ok := o.(map[string]interface{})
			if !ok {
				return fmt.Errorf("property %q: option must be an object", name)
			}
			if n, _ := opt["name"].(string); n == "" {
				return fmt.Errorf("property %q: option name is required", name)
			}
			if c, ok := opt["color"]; ok {
				s, _ := c.(string)
				if s != "default" && !contains(Palette, s) {
					return fmt.Errorf("property %q: unsupported option color %v", name, c)
				}
			}
		}
	}
	return nil
}

func recognizedKinds(m map[string]interface{}) []string {
	var kinds []string
	for key := range m {
		if IsKnown(key) {
			kinds = append(kinds, key)
		}
	}
	sort.Strings(kinds)
	return kinds
}

func nestedMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
