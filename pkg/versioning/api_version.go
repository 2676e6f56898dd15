package versioning

import (
	"context"
	"net/http"
	"strings"

	"github.com/notionforge/backend/pkg/constants"
)

// Protocol identifies which shape of the workspace API a version speaks
type Protocol int

const (
	// ProtocolContainer: the database itself owns properties and is queried directly
	ProtocolContainer Protocol = iota
	// ProtocolDataSource: properties live on data_sources[] children
	ProtocolDataSource
)

func (p Protocol) String() string {
	if p == ProtocolDataSource {
		return "data_source"
	}
	return "container"
}

// APIVersion is a Notion-Version header value
type APIVersion struct {
	Date     string
	Protocol Protocol
}

// ParseVersion "2022-06-28" -> container protocol; anything newer speaks data sources.
// Empty input yields the current version.
func ParseVersion(header string) APIVersion {
	clean := strings.TrimSpace(header)
	if clean == "" {
		clean = constants.NotionVersionCurrent
	}
	// ISO dates compare lexically
	if clean < constants.NotionVersionCurrent {
		return APIVersion{Date: clean, Protocol: ProtocolContainer}
	}
	return APIVersion{Date: clean, Protocol: ProtocolDataSource}
}

func (v APIVersion) String() string {
	return v.Date
}

type contextKey string

const keyAPIVersion contextKey = "notion_version"

// WithVersion stores a version override in ctx
func WithVersion(ctx context.Context, v APIVersion) context.Context {
	return context.WithValue(ctx, keyAPIVersion, v)
}

// FromContext returns the override stored in ctx, if any
func FromContext(ctx context.Context) (APIVersion, bool) {
	v, ok := ctx.Value(keyAPIVersion).(APIVersion)
	return v, ok
}

// VersionMiddleware lets callers pin the Notion-Version used for their request
func VersionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(constants.HeaderNotionVersion)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := WithVersion(r.Context(), ParseVersion(header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
