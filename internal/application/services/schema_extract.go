package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/notionforge/backend/internal/domain/schema"
)

var (
	fencedJSON  = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	directObj   = regexp.MustCompile(`\{[\s\S]*\}`)
	directArray = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ExtractMultiSource pulls a multi-source schema out of model output.
// On success content is the text before the schema; otherwise content is
// the whole text and the schema is nil.
func ExtractMultiSource(text string) (string, *schema.MultiSourceSchema) {
	var out *schema.MultiSourceSchema
	content, ok := extract(text, directObj, func(raw string) error {
		var s schema.MultiSourceSchema
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		out = &s
		return nil
	})
	if !ok {
		return text, nil
	}
	return content, out
}

// ExtractIndividual pulls an array of single-database schemas out of model output
func ExtractIndividual(text string) (string, []schema.Definition) {
	var out []schema.Definition
	content, ok := extract(text, directArray, func(raw string) error {
		var defs []schema.Definition
		if err := json.Unmarshal([]byte(raw), &defs); err != nil {
			return err
		}
		if len(defs) == 0 {
			return fmt.Errorf("no schemas in array")
		}
		for i := range defs {
			if err := defs[i].Validate(); err != nil {
				return fmt.Errorf("schemas[%d]: %w", i, err)
			}
		}
		out = defs
		return nil
	})
	if !ok {
		return text, nil
	}
	return content, out
}

// extract tries the fenced json block first, then the widest direct match.
// accept parses and validates a candidate.
func extract(text string, direct *regexp.Regexp, accept func(raw string) error) (string, bool) {
	if loc := fencedJSON.FindStringSubmatchIndex(text); loc != nil {
		if accept(text[loc[2]:loc[3]]) == nil {
			return strings.TrimSpace(text[:loc[0]]), true
		}
	}
	if loc := direct.FindStringIndex(text); loc != nil {
		if accept(text[loc[0]:loc[1]]) == nil {
			return strings.TrimSpace(text[:loc[0]]), true
		}
	}
	return "", false
}
