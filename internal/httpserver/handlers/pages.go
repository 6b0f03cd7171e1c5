package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/validation"
	"github.com/MrSnakeDoc/recall/internal/web"
)

// doneParam marks the redirect after a mutation. The mutation already
// refetched, so the page renders without fetching again and keeps the
// mutation's banner. Only honored when the browser came from this host.
const doneParam = "done"

// followsMutation reports whether r is the redirect issued by a mutation
// handler. A reload or a bookmarked "/?done=" link fetches as usual.
func followsMutation(r *http.Request) bool {
	if r.URL.Query().Get(doneParam) == "" {
		return false
	}
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host == "" {
		return false
	}
	return ref.Host == r.Host
}

func redirectHome(w http.ResponseWriter, r *http.Request, op string) {
	http.Redirect(w, r, "/?"+url.Values{doneParam: {op}}.Encode(), http.StatusSeeOther)
}

func renderPage(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, form web.FormView) {
	snap := d.Bookmarks.Snapshot(r.Context())

	page := web.Page{
		Banner:  snap.Banner,
		Loading: snap.Loading,
		Form:    form,
		Items:   d.List.Build(snap.Bookmarks, d.Now()),
		Version: d.Version,
	}
	if err := d.Renderer.Render(w, status, page); err != nil {
		d.Logger.Error("failed to render page", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Index fetches the collection and renders the page.
func Index(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !followsMutation(r) {
			// Failure is recorded in the fetch state and shown as the banner.
			_ = d.Bookmarks.FetchBookmarks(r.Context())
		}
		renderPage(w, r, d, http.StatusOK, web.NewForm(d.Now()))
	}
}

// SubmitBookmark handles the add form. Invalid input re-renders the form with
// the typed values and inline errors and sends nothing to the API. Anything
// else redirects home with a fresh form, whether or not the add succeeded.
func SubmitBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := web.ParseForm(r)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		err = d.Bookmarks.AddBookmark(r.Context(), data)
		var verr *validation.Error
		if errors.As(err, &verr) {
			renderPage(w, r, d, http.StatusUnprocessableEntity, web.FormFromSubmission(data, err))
			return
		}

		redirectHome(w, r, "add")
	}
}

// DeleteBookmark handles the per-item delete button.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookmarkID(r)
		if !ok {
			http.Error(w, "invalid bookmark id", http.StatusBadRequest)
			return
		}

		_ = d.Bookmarks.DeleteBookmark(r.Context(), id)
		redirectHome(w, r, "delete")
	}
}
