// Package apitest provides an in-memory bookmark API for tests.
// It mimics the external API: ids are assigned on create, the list is kept
// sorted by remember date, and deleting an unknown id answers 404.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/recall/internal/domain"
)

// Request is one call received by the fake server.
type Request struct {
	Method string
	Path   string
	Body   string
}

// Server is a fake bookmark API backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	bookmarks []domain.Bookmark
	nextID    int64
	requests  []Request
	failures  map[string]int // "METHOD path-prefix" -> status to answer with
}

// NewServer starts a fake API preloaded with seed.
func NewServer(seed ...domain.Bookmark) *Server {
	s := &Server{
		nextID:   1,
		failures: make(map[string]int),
	}
	for _, b := range seed {
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
		s.bookmarks = append(s.bookmarks, b)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// FailWith makes every request matching method and path prefix answer status.
func (s *Server) FailWith(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+pathPrefix] = status
}

// Heal removes every configured failure.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Requests returns a copy of the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Bookmarks returns a copy of the server-side collection.
func (s *Server) Bookmarks() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Bookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	body := string(raw)

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	for key, status := range s.failures {
		method, prefix, _ := strings.Cut(key, " ")
		if r.Method == method && strings.HasPrefix(r.URL.Path, prefix) {
			s.mu.Unlock()
			http.Error(w, `{"detail":"injected failure"}`, status)
			return
		}
	}
	s.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/bookmarks":
		writeJSON(w, http.StatusOK, s.Bookmarks())

	case r.Method == http.MethodPost && r.URL.Path == "/bookmark":
		var in domain.BookmarkFormData
		if err := json.Unmarshal(raw, &in); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s.create(in))

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/bookmark/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/bookmark/"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid id"})
			return
		}
		removed, ok := s.remove(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Bookmark not found"})
			return
		}
		writeJSON(w, http.StatusOK, removed)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) create(in domain.BookmarkFormData) domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := domain.Bookmark{
		ID:           s.nextID,
		Title:        in.Title,
		URL:          in.URL,
		RememberDate: in.RememberDate,
	}
	s.nextID++
	s.bookmarks = append(s.bookmarks, b)
	sort.SliceStable(s.bookmarks, func(i, j int) bool {
		return s.bookmarks[i].RememberDate < s.bookmarks[j].RememberDate
	})
	return b
}

func (s *Server) remove(id int64) (domain.Bookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.bookmarks {
		if b.ID == id {
			s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
			return b, true
		}
	}
	return domain.Bookmark{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
