// Package seed imports an optional YAML list of bookmarks into the API at
// startup, going through the same add path as the form.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/validation"
)

// Target is where seed entries go.
type Target interface {
	FetchBookmarks(ctx context.Context) error
	AddBookmark(ctx context.Context, data domain.BookmarkFormData) error
	Bookmarks() []domain.Bookmark
}

// Result counts what an import did.
type Result struct {
	Added     int
	Duplicate int
	Invalid   int
	Failed    int
}

// Importer adds seed entries that are not already present.
type Importer struct {
	loader *Loader
	target Target
	logger logger.Logger
	now    func() time.Time
}

func NewImporter(filePath string, target Target, log logger.Logger, now func() time.Time) *Importer {
	if now == nil {
		now = time.Now
	}
	return &Importer{
		loader: NewLoader(filePath),
		target: target,
		logger: log,
		now:    now,
	}
}

// Import loads the file and adds every valid entry whose normalized URL is
// not in the collection yet. An entry without a date gets today's date.
// Per-entry failures are counted, not returned.
func (im *Importer) Import(ctx context.Context) (Result, error) {
	var res Result

	file, err := im.loader.Load()
	if err != nil {
		return res, err
	}
	if len(file.Bookmarks) == 0 {
		return res, nil
	}

	if err := im.target.FetchBookmarks(ctx); err != nil {
		return res, fmt.Errorf("fetch existing bookmarks: %w", err)
	}

	seen := make(map[string]bool)
	for _, b := range im.target.Bookmarks() {
		seen[domain.NormalizeURL(b.URL)] = true
	}

	today := domain.Today(im.now())
	for i, e := range file.Bookmarks {
		data := domain.BookmarkFormData{Title: e.Title, URL: e.URL, RememberDate: e.RememberDate}
		if data.RememberDate == "" {
			data.RememberDate = today
		}
		data = data.Normalized()

		if seen[data.URL] {
			res.Duplicate++
			im.logger.Debug("seed entry already present", logger.String("url", data.URL))
			continue
		}

		err := im.target.AddBookmark(ctx, data)
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			res.Invalid++
			im.logger.Warn("skipping invalid seed entry",
				logger.Int("index", i),
				logger.String("title", e.Title),
				logger.String("reason", verr.Error()))
		case err != nil:
			res.Failed++
			im.logger.Error("failed to import seed entry",
				logger.Int("index", i),
				logger.String("url", data.URL),
				logger.Error(err))
		default:
			res.Added++
			seen[data.URL] = true
		}

		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}

	im.logger.Info("seed import finished",
		logger.Int("added", res.Added),
		logger.Int("duplicate", res.Duplicate),
		logger.Int("invalid", res.Invalid),
		logger.Int("failed", res.Failed))
	return res, nil
}
