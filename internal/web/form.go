package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/validation"
)

// Form field names, shared by the template and ParseForm.
const (
	FieldTitle        = "title"
	FieldURL          = "url"
	FieldRememberDate = "remember_date"
)

// FormView is the add form as rendered.
type FormView struct {
	Title        string
	URL          string
	RememberDate string
	Errors       map[string]string
}

// NewForm returns an empty form with today's date preselected.
func NewForm(now time.Time) FormView {
	return FormView{RememberDate: domain.Today(now)}
}

// FormFromSubmission keeps what the user typed and attaches err's field
// messages when err is a *validation.Error.
func FormFromSubmission(data domain.BookmarkFormData, err error) FormView {
	f := FormView{
		Title:        data.Title,
		URL:          data.URL,
		RememberDate: data.RememberDate,
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		f.Errors = verr.Fields
	}
	return f
}

// Error returns the inline message for field.
func (f FormView) Error(field string) string {
	return f.Errors[field]
}

// Invalid reports whether field has an inline message.
func (f FormView) Invalid(field string) bool {
	return f.Errors[field] != ""
}

// ParseForm reads the submitted fields. Values are trimmed but otherwise
// untouched; normalization happens in the state container.
func ParseForm(r *http.Request) (domain.BookmarkFormData, error) {
	if err := r.ParseForm(); err != nil {
		return domain.BookmarkFormData{}, err
	}
	return domain.BookmarkFormData{
		Title:        strings.TrimSpace(r.PostForm.Get(FieldTitle)),
		URL:          strings.TrimSpace(r.PostForm.Get(FieldURL)),
		RememberDate: strings.TrimSpace(r.PostForm.Get(FieldRememberDate)),
	}, nil
}
