package web

import (
	"time"

	"github.com/MrSnakeDoc/recall/internal/domain"
)

const (
	TintToday = "rgba(76, 175, 80, 0.15)"
	TintPast  = "rgba(244, 67, 54, 0.15)"
)

// ListItem is one bookmark as displayed.
type ListItem struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	Favicon   string            `json:"favicon,omitempty"`
	Date      string            `json:"remember_date"`
	DateLabel string            `json:"date_label"`
	Status    domain.DateStatus `json:"status"`
	Tint      string            `json:"tint,omitempty"`
}

// IsToday is used by the template for the "(Today)" suffix.
func (i ListItem) IsToday() bool { return i.Status == domain.StatusToday }

// ListBuilder turns bookmarks into list items.
type ListBuilder struct {
	favicons *domain.FaviconResolver
	loc      *time.Location
}

func NewListBuilder(favicons *domain.FaviconResolver, loc *time.Location) *ListBuilder {
	if favicons == nil {
		favicons = domain.NewFaviconResolver("", 0)
	}
	if loc == nil {
		loc = time.Local
	}
	return &ListBuilder{favicons: favicons, loc: loc}
}

// Build keeps the input order. Classification only affects styling.
func (b *ListBuilder) Build(bookmarks []domain.Bookmark, now time.Time) []ListItem {
	now = now.In(b.loc)

	items := make([]ListItem, 0, len(bookmarks))
	for _, bm := range bookmarks {
		items = append(items, b.item(bm, now))
	}
	return items
}

func (b *ListBuilder) item(bm domain.Bookmark, now time.Time) ListItem {
	it := ListItem{
		ID:      bm.ID,
		Title:   bm.Title,
		URL:     bm.URL,
		Favicon: b.favicons.URL(bm.URL),
		Date:    bm.RememberDate,
		Status:  domain.StatusFuture,
	}

	date, err := domain.ParseRememberDate(bm.RememberDate, b.loc)
	if err != nil {
		it.DateLabel = bm.RememberDate
		return it
	}

	it.Status = domain.Classify(date, now)
	it.DateLabel = domain.FormatLongDate(date)
	switch it.Status {
	case domain.StatusToday:
		it.Tint = TintToday
		it.DateLabel += " (Today)"
	case domain.StatusPast:
		it.Tint = TintPast
	}
	return it
}
