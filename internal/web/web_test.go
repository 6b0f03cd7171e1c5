package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/validation"
)

var testNow = time.Date(2024, time.January, 2, 15, 30, 0, 0, time.UTC)

func TestNewForm(t *testing.T) {
	f := NewForm(testNow)
	if f.Title != "" || f.URL != "" {
		t.Errorf("NewForm() = %+v, want empty title and url", f)
	}
	if f.RememberDate != "2024-01-02" {
		t.Errorf("NewForm().RememberDate = %v, want 2024-01-02", f.RememberDate)
	}
}

func TestFormFromSubmission(t *testing.T) {
	data := domain.BookmarkFormData{Title: "x", URL: "not a url", RememberDate: "2024-01-02"}
	err := validation.New().Form(data)

	f := FormFromSubmission(data, err)
	if f.URL != "not a url" || f.Title != "x" {
		t.Errorf("FormFromSubmission() lost values: %+v", f)
	}
	if !f.Invalid(FieldURL) || f.Error(FieldURL) != domain.URLErrorMessage {
		t.Errorf("url error = %q, want %q", f.Error(FieldURL), domain.URLErrorMessage)
	}
	if f.Invalid(FieldTitle) {
		t.Errorf("title should be valid, got %q", f.Error(FieldTitle))
	}

	plain := FormFromSubmission(data, nil)
	if plain.Invalid(FieldURL) {
		t.Error("FormFromSubmission() without error should carry no messages")
	}
}

func TestParseForm(t *testing.T) {
	form := url.Values{}
	form.Set(FieldTitle, "  Go  ")
	form.Set(FieldURL, " go.dev ")
	form.Set(FieldRememberDate, "2024-01-02")

	req := httptest.NewRequest(http.MethodPost, "/bookmarks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseForm(req)
	if err != nil {
		t.Fatalf("ParseForm() error = %v", err)
	}
	want := domain.BookmarkFormData{Title: "Go", URL: "go.dev", RememberDate: "2024-01-02"}
	if got != want {
		t.Errorf("ParseForm() = %+v, want %+v", got, want)
	}
}

func TestListBuilder(t *testing.T) {
	b := NewListBuilder(domain.NewFaviconResolver("", 32), time.UTC)

	items := b.Build([]domain.Bookmark{
		{ID: 3, Title: "future", URL: "https://example.com/a", RememberDate: "2024-01-03"},
		{ID: 1, Title: "past", URL: "https://past.example.com", RememberDate: "2024-01-01"},
		{ID: 2, Title: "today", URL: "https://go.dev", RememberDate: "2024-01-02T08:00:00"},
		{ID: 4, Title: "broken", URL: "https://x.example.com", RememberDate: "someday"},
	}, testNow)

	if len(items) != 4 {
		t.Fatalf("Build() len = %d, want 4", len(items))
	}

	tests := []struct {
		idx       int
		id        int64
		status    domain.DateStatus
		tint      string
		dateLabel string
	}{
		{0, 3, domain.StatusFuture, "", "January 3rd, 2024"},
		{1, 1, domain.StatusPast, TintPast, "January 1st, 2024"},
		{2, 2, domain.StatusToday, TintToday, "January 2nd, 2024 (Today)"},
		{3, 4, domain.StatusFuture, "", "someday"},
	}

	for _, tt := range tests {
		it := items[tt.idx]
		if it.ID != tt.id {
			t.Errorf("items[%d].ID = %d, want %d (order must be preserved)", tt.idx, it.ID, tt.id)
		}
		if it.Status != tt.status {
			t.Errorf("items[%d].Status = %v, want %v", tt.idx, it.Status, tt.status)
		}
		if it.Tint != tt.tint {
			t.Errorf("items[%d].Tint = %q, want %q", tt.idx, it.Tint, tt.tint)
		}
		if it.DateLabel != tt.dateLabel {
			t.Errorf("items[%d].DateLabel = %q, want %q", tt.idx, it.DateLabel, tt.dateLabel)
		}
	}

	if want := "https://www.google.com/s2/favicons?domain=go.dev&sz=32"; items[2].Favicon != want {
		t.Errorf("Favicon = %q, want %q", items[2].Favicon, want)
	}
	if !items[2].IsToday() || items[0].IsToday() {
		t.Error("IsToday() mismatch")
	}
}

func TestListBuilderUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	b := NewListBuilder(nil, tokyo)

	// 2024-01-02 20:00 UTC is already 2024-01-03 in UTC+9.
	now := time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC)
	items := b.Build([]domain.Bookmark{{ID: 1, URL: "https://a.example.com", RememberDate: "2024-01-03"}}, now)

	if items[0].Status != domain.StatusToday {
		t.Errorf("Status = %v, want today in the configured zone", items[0].Status)
	}
}

func TestRendererRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	items := NewListBuilder(nil, time.UTC).Build([]domain.Bookmark{
		{ID: 7, Title: "Go <docs>", URL: "https://go.dev", RememberDate: "2024-01-02"},
	}, testNow)

	rec := httptest.NewRecorder()
	err = r.Render(rec, http.StatusOK, Page{
		Banner: "Failed to fetch bookmarks",
		Form:   NewForm(testNow),
		Items:  items,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Failed to fetch bookmarks",
		"Go &lt;docs&gt;",
		`action="/bookmarks/7/delete"`,
		"January 2nd, 2024 (Today)",
		"background-color: rgba(76, 175, 80, 0.15)",
		`target="_blank"`,
		`value="2024-01-02"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
	if strings.Contains(body, EmptyMessage) {
		t.Error("empty state rendered with items present")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

func TestRendererTitleLinksWithoutFavicon(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	rec := httptest.NewRecorder()
	err = r.Render(rec, http.StatusOK, Page{
		Form:  NewForm(testNow),
		Items: []ListItem{{ID: 1, Title: "Plain", URL: "https://plain.example.com", DateLabel: "soon"}},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := rec.Body.String()
	want := `<a href="https://plain.example.com" target="_blank" rel="noopener noreferrer">Plain</a>`
	if !strings.Contains(body, want) {
		t.Errorf("rendered page missing title link %q", want)
	}
	if strings.Contains(body, "<img") {
		t.Error("favicon rendered for an item without one")
	}
}

func TestRendererEmptyAndErrors(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	data := domain.BookmarkFormData{Title: "t", URL: "nope", RememberDate: "2024-01-02"}
	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusUnprocessableEntity, Page{
		Form: FormFromSubmission(data, validation.New().Form(data)),
	}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, EmptyMessage) {
		t.Errorf("rendered page missing empty state %q", EmptyMessage)
	}
	if !strings.Contains(body, `value="nope"`) {
		t.Error("entered url not retained")
	}
	if !strings.Contains(body, `id="url-error">Please enter a valid URL`) {
		t.Error("inline url error missing")
	}
	if n := strings.Count(body, `class="invalid"`); n != 1 {
		t.Errorf("invalid inputs = %d, want only the url input", n)
	}
	if !strings.Contains(body, `id="submit" type="submit" disabled`) {
		t.Error("submit not disabled while the url is invalid")
	}
	if strings.Contains(body, `role="alert"`) {
		t.Error("banner rendered without a failure")
	}
}
