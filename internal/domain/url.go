package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrEmptyURL         = errors.New("url is required")
	ErrInvalidURLFormat = errors.New("invalid url format")
)

// URLErrorMessage is the inline message shown next to the URL field.
const URLErrorMessage = "Please enter a valid URL (e.g., example.com or https://example.com)"

// hostPattern requires at least one dot-separated label followed by a
// lowercase TLD. Bare IPs and "localhost" do not match; this is a known
// limitation of the pattern, not something to work around here.
var hostPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// HasScheme reports whether raw already starts with http:// or https://.
func HasScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NormalizeURL prefixes https:// when raw carries no http/https scheme.
func NormalizeURL(raw string) string {
	if raw == "" || HasScheme(raw) {
		return raw
	}
	return "https://" + raw
}

// ValidateURL checks raw against the host pattern, then makes sure the
// normalized form parses as an absolute URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrEmptyURL
	}

	if !hostPattern.MatchString(raw) {
		return ErrInvalidURLFormat
	}

	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ErrInvalidURLFormat
	}
	if parsed.Host == "" {
		return ErrInvalidURLFormat
	}

	return nil
}

// IsValidURL is ValidateURL as a predicate.
func IsValidURL(raw string) bool {
	return ValidateURL(raw) == nil
}

// Hostname returns the host part (no port) of an absolute URL, or "" when
// the URL cannot be parsed.
func Hostname(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
