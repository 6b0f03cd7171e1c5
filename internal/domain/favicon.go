package domain

import (
	"net/url"
	"strconv"
)

const (
	DefaultFaviconService = "https://www.google.com/s2/favicons"
	DefaultFaviconSize    = 32
)

// FaviconResolver builds favicon image URLs from a third-party service
// keyed by the bookmark hostname.
type FaviconResolver struct {
	service string
	size    int
}

func NewFaviconResolver(service string, size int) *FaviconResolver {
	if service == "" {
		service = DefaultFaviconService
	}
	if size <= 0 {
		size = DefaultFaviconSize
	}
	return &FaviconResolver{service: service, size: size}
}

// URL returns the favicon URL for bookmarkURL, or "" when no hostname can
// be extracted (the list then renders without an avatar).
func (f *FaviconResolver) URL(bookmarkURL string) string {
	host := Hostname(bookmarkURL)
	if host == "" {
		return ""
	}

	q := url.Values{}
	q.Set("domain", host)
	q.Set("sz", strconv.Itoa(f.size))
	return f.service + "?" + q.Encode()
}
