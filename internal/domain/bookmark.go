package domain

// Bookmark is a saved URL as owned by the bookmark API.
// The client never edits a Bookmark in place: every change goes through
// the API and is followed by a full refetch of the collection.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (server-assigned)
	// ─────────────────────────────

	// ID is unique and assigned by the API on create.
	ID int64 `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the user-facing label.
	Title string `json:"title"`

	// URL always carries an explicit http/https scheme.
	// Example: https://go.dev/doc
	URL string `json:"url"`

	// RememberDate is an ISO calendar date (YYYY-MM-DD). The API may
	// return a full timestamp, only the date part is meaningful.
	RememberDate string `json:"remember_date"`
}

// BookmarkFormData is what the add form composes before submitting.
// It is discarded (reset to empty fields and today's date) once submitted.
type BookmarkFormData struct {
	Title        string `json:"title" validate:"required,max=512"`
	URL          string `json:"url" validate:"bookmarkurl"`
	RememberDate string `json:"remember_date" validate:"required,rememberdate"`
}

// Normalized returns a copy of the form data with the URL scheme enforced.
func (f BookmarkFormData) Normalized() BookmarkFormData {
	f.URL = NormalizeURL(f.URL)
	return f
}
