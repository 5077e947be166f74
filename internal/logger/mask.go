package logger

import (
	"net/url"
	"strings"
)

// MaskAPIKey keeps only the edges of a key for log display.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return key[:1] + "***" + key[len(key)-1:]
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// FormatBaseURLForLog reduces a base URL to scheme, host and first path
// segment. Credentials and query values are dropped; only api-version is
// kept, masked. Unparseable input is trimmed and shortened.
func FormatBaseURLForLog(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) <= 64 {
			return trimmed
		}
		return trimmed[:32] + "…" + trimmed[len(trimmed)-8:]
	}

	var segments []string
	for _, s := range strings.Split(parsed.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	path := ""
	if len(segments) > 0 {
		path = "/" + segments[0]
		if len(segments) > 1 {
			path += "/..."
		}
	}

	query := ""
	if parsed.Query().Has("api-version") {
		query = "?api-version=***"
	}
	return parsed.Scheme + "://" + parsed.Host + path + query
}
