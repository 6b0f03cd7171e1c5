// Package validation checks bookmark payloads with go-playground/validator
// and reports failures as a field -> message map suitable for inline display.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/recall/internal/domain"
)

// Error carries per-field messages keyed by json field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field returns the message for field, or "".
func (e *Error) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// Validator wraps validator.Validate with the bookmark-specific tags.
type Validator struct {
	v *validator.Validate
}

// New registers the "bookmarkurl" and "rememberdate" tags.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("bookmarkurl", func(fl validator.FieldLevel) bool {
		return domain.IsValidURL(fl.Field().String())
	})
	_ = v.RegisterValidation("rememberdate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseRememberDate(fl.Field().String(), time.UTC)
		return err == nil
	})

	return &Validator{v: v}
}

// Validate returns nil or an *Error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Form validates a bookmark form without touching its values.
func (v *Validator) Form(data domain.BookmarkFormData) error {
	return v.Validate(data)
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "bookmarkurl":
		return domain.URLErrorMessage
	case "rememberdate":
		return "Please pick a valid date"
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Must not exceed %s characters", e.Param())
	default:
		return "Invalid value"
	}
}
