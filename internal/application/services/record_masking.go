package services

import (
	"strings"

	"github.com/notionforge/backend/pkg/constants"
	"github.com/notionforge/backend/pkg/utils"
)

const (
	maskedEmail = "******@****.***"
	maskedPhone = "+**-****-******"
	maskedText  = "***"
	maskedURL   = "https://***"
)

// MaskPrivateFields returns a copy of data in which every property whose
// name contains "(Private)" has its value hidden. Any "properties" object at
// any depth is inspected. data itself is never modified.
func MaskPrivateFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if props, ok := value.(map[string]interface{}); ok && key == "properties" {
				out[key] = maskProperties(props)
				continue
			}
			out[key] = MaskPrivateFields(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = MaskPrivateFields(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(v))
		for i, item := range v {
			out[i] = MaskPrivateFields(item).(map[string]interface{})
		}
		return out
	default:
		return v
	}
}

func maskProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for name, value := range props {
		if strings.Contains(name, constants.PrivateMarker) {
			out[name] = maskValue(value)
			continue
		}
		out[name] = utils.DeepCopy(value)
	}
	return out
}

func maskValue(value interface{}) interface{} {
	prop, ok := value.(map[string]interface{})
	if !ok || prop == nil {
		return value
	}
	out := utils.DeepCopyMap(prop)
	kind, _ := prop["type"].(string)

	switch {
	case kind == "email" && utils.Truthy(prop["email"]):
		out["email"] = maskedEmail
	case kind == "phone_number" && utils.Truthy(prop["phone_number"]):
		out["phone_number"] = maskedPhone
	case kind == "number" && numberPresent(prop):
		out["number"] = maskedPhone
	case kind == "rich_text" && utils.Truthy(prop["rich_text"]):
		out["rich_text"] = maskedRuns()
	case kind == "title" && utils.Truthy(prop["title"]):
		out["title"] = maskedRuns()
	case kind == "url" && utils.Truthy(prop["url"]):
		out["url"] = maskedURL
	default:
		out["content"] = maskedText
	}
	return out
}

// numberPresent is true unless the number is an explicit null
func numberPresent(prop map[string]interface{}) bool {
	v, ok := prop["number"]
	return !ok || v != nil
}

func maskedRuns() []interface{} {
	return []interface{}{
		map[string]interface{}{"text": map[string]interface{}{"content": maskedText}},
	}
}
