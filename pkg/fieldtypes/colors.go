package fieldtypes

// EnsureColorVariation spreads palette colors over choice options that all
// share one color. The map is modified in place and returned.
func EnsureColorVariation(props map[string]interface{}) map[string]interface{} {
	for _, raw := range props {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		for _, kind := range []Kind{KindSelect, KindMultiSelect} {
			section, ok := m[string(kind)].(map[string]interface{})
			if !ok {
				continue
			}
			options, ok := section["options"].([]interface{})
			if !ok || len(options) < 2 || !sameColor(options) {
				continue
			}
			for i, o := range options {
				if opt, ok := o.(map[string]interface{}); ok {
					opt["color"] = Palette[i%len(Palette)]
				}
			}
		}
	}
	return props
}

func sameColor(options []interface{}) bool {
	first := optionColor(options[0])
	for _, o := range options[1:] {
		if optionColor(o) != first {
			return false
		}
	}
	return true
}

func optionColor(o interface{}) interface{} {
	if opt, ok := o.(map[string]interface{}); ok {
		return opt["color"]
	}
	return nil
}
