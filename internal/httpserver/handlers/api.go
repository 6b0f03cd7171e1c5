package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/recall/internal/bookmarkapi"
	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/state"
	"github.com/MrSnakeDoc/recall/internal/validation"
	"github.com/MrSnakeDoc/recall/internal/web"
)

const maxBodyBytes = 1 << 20

type listResponse struct {
	Bookmarks []web.ListItem `json:"bookmarks"`
}

type statusResponse struct {
	Operations []state.OpState `json:"operations"`
	Loading    bool            `json:"loading"`
	Banner     string          `json:"banner,omitempty"`
	Ready      bool            `json:"ready"`
}

type validateURLResponse struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized,omitempty"`
	Message    string `json:"message,omitempty"`
}

func list(d deps.Deps) listResponse {
	return listResponse{Bookmarks: d.List.Build(d.Bookmarks.Bookmarks(), d.Now())}
}

// APIListBookmarks returns the current collection. ?refresh=true refetches first.
func APIListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") == "true" {
			if err := d.Bookmarks.FetchBookmarks(r.Context()); err != nil {
				writeError(w, http.StatusBadGateway, state.ReasonFetchFailed, d.Logger)
				return
			}
		}
		writeJSON(w, http.StatusOK, list(d), d.Logger)
	}
}

// APICreateBookmark adds a bookmark from a JSON BookmarkFormData and answers
// with the refetched collection.
func APICreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data domain.BookmarkFormData
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body", d.Logger)
			return
		}

		err := d.Bookmarks.AddBookmark(r.Context(), data)
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields}, d.Logger)
		case err != nil:
			writeError(w, http.StatusBadGateway, state.ReasonAddFailed, d.Logger)
		default:
			writeJSON(w, http.StatusCreated, list(d), d.Logger)
		}
	}
}

// APIDeleteBookmark deletes by id. An id unknown to the API is a 404.
func APIDeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookmarkID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid bookmark id", d.Logger)
			return
		}

		err := d.Bookmarks.DeleteBookmark(r.Context(), id)
		switch {
		case bookmarkapi.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Bookmark not found", d.Logger)
		case err != nil:
			writeError(w, http.StatusBadGateway, state.ReasonDeleteFailed, d.Logger)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// Status reports every operation's state plus the derived loading flag and banner.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Bookmarks.Snapshot(r.Context())
		writeJSON(w, http.StatusOK, statusResponse{
			Operations: snap.States,
			Loading:    snap.Loading,
			Banner:     snap.Banner,
			Ready:      d.Bookmarks.Ready(),
		}, d.Logger)
	}
}

// ValidateURL backs the live validation of the URL field.
func ValidateURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")

		resp := validateURLResponse{Valid: domain.IsValidURL(raw)}
		if resp.Valid {
			resp.Normalized = domain.NormalizeURL(raw)
		} else {
			resp.Message = domain.URLErrorMessage
		}
		writeJSON(w, http.StatusOK, resp, d.Logger)
	}
}
