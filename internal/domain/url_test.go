package domain

import (
	"errors"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		// Valid
		{"bare domain", "example.com", nil},
		{"subdomain", "docs.example.com", nil},
		{"multi-label tld", "bbc.co.uk", nil},
		{"with path", "example.com/path/to_page", nil},
		{"trailing slash", "example.com/", nil},
		{"http scheme", "http://example.com", nil},
		{"https scheme", "https://example.com/docs", nil},
		{"hyphenated host", "my-site.io", nil},

		// Empty
		{"empty string", "", ErrEmptyURL},

		// Fails the host pattern
		{"words with spaces", "not a url", ErrInvalidURLFormat},
		{"no tld", "example", ErrInvalidURLFormat},
		{"localhost", "localhost", ErrInvalidURLFormat},
		{"localhost with scheme", "http://localhost", ErrInvalidURLFormat},
		{"bare ip", "192.168.1.1", ErrInvalidURLFormat},
		{"uppercase host", "EXAMPLE.COM", ErrInvalidURLFormat},
		{"ftp scheme", "ftp://example.com", ErrInvalidURLFormat},
		{"query string", "example.com/search?q=go", ErrInvalidURLFormat},
		{"scheme only", "https://", ErrInvalidURLFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if !errors.Is(err, tt.wantErr) || (err == nil) != (tt.wantErr == nil) {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds https", "example.com", "https://example.com"},
		{"keeps https", "https://example.com", "https://example.com"},
		{"keeps http", "http://example.com", "http://example.com"},
		{"uppercase scheme kept", "HTTPS://example.com", "HTTPS://example.com"},
		{"host starting with http", "httpbin.org/get", "https://httpbin.org/get"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Every scheme-less string that passes validation normalizes to the same
// string with https:// in front.
func TestSchemelessValidURLsNormalizeToHTTPS(t *testing.T) {
	inputs := []string{
		"example.com",
		"go.dev/doc",
		"sub.domain.example.org/a/b/",
		"a-b.io/x_y",
	}

	for _, in := range inputs {
		if !IsValidURL(in) {
			t.Errorf("IsValidURL(%q) = false, want true", in)
			continue
		}
		if got, want := NormalizeURL(in), "https://"+in; got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

// Strings failing the host pattern stay invalid whatever scheme is added.
func TestInvalidHostRejectedRegardlessOfScheme(t *testing.T) {
	inputs := []string{"", "localhost", "nodot", "not a url"}
	prefixes := []string{"", "http://", "https://"}

	for _, in := range inputs {
		for _, p := range prefixes {
			if IsValidURL(p + in) {
				t.Errorf("IsValidURL(%q) = true, want false", p+in)
			}
		}
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/path", "example.com"},
		{"http://example.com:8080", "example.com"},
		{"example.com", ""},
		{"://broken", ""},
	}

	for _, tt := range tests {
		if got := Hostname(tt.in); got != tt.want {
			t.Errorf("Hostname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
