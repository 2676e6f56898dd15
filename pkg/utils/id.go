package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var trailingHexID = regexp.MustCompile(`([0-9a-fA-F]{32})$`)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		zap.L().Error("failed to generate UUID", zap.Error(err))
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

// NormalizeID turns a workspace id or share URL into a hyphenated UUID.
// Accepts "https://www.notion.so/Title-<32 hex>?v=...", bare 32-hex ids and hyphenated ids.
func NormalizeID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" {
		s = u.Path
	}
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}

	if id, err := uuid.Parse(s); err == nil {
		return id.String(), nil
	}
	if m := trailingHexID.FindString(s); m != "" {
		id, err := uuid.Parse(m)
		if err == nil {
			return id.String(), nil
		}
	}
	return "", fmt.Errorf("no workspace id found in %q", raw)
}
