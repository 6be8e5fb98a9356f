package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lector/internal/archive"
	"lector/internal/config"
	"lector/internal/images"
	"lector/internal/lector"
	"lector/internal/mangadex"
	"lector/internal/model"
	"lector/internal/worker"
)

// App is the application layer between the CLI and the Service. It
// constructs all components from config, exposes high-level operations that
// accept raw string identifiers, and releases the session's resources
// (connection pool, worker pool, store handle) on Close.
type App struct {
	cfg     *config.Config
	gateway *mangadex.Client
	store   lector.Archive
	images  *images.Fetcher
	pool    *worker.Pool
	service *lector.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Search", "ReadChapter").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := archive.NewArchiveFromConfig(cfg.Store, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	gateway := mangadex.NewClient(mangadex.Options{
		BaseURL:    cfg.API.BaseURL,
		UploadsURL: cfg.API.UploadsURL,
		Timeout:    timeout,
		RetryMax:   cfg.API.RetryMax,
		MaxPerHost: cfg.API.MaxPerHost,
	})

	fetcher := images.NewFetcher(timeout, cfg.Archiver.JPEGQuality)
	pool := worker.NewPool(cfg.Archiver.Workers)
	svc := lector.NewService(gateway, store, fetcher, pool, &slogAdapter{l: logger})

	return &App{
		cfg:     cfg,
		gateway: gateway,
		store:   store,
		images:  fetcher,
		pool:    pool,
		service: svc,
		logFile: logFile,
	}, nil
}

// Close waits for in-flight archive runs and releases all session resources.
func (a *App) Close() {
	a.pool.Wait()
	a.gateway.Close()
	a.images.Close()
	a.store.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// ListLimit returns the configured default catalog page size.
func (a *App) ListLimit() int {
	if a.cfg.API.ListLimit > 0 {
		return a.cfg.API.ListLimit
	}
	return 20
}

// Search queries the remote catalog by title.
func (a *App) Search(ctx context.Context, query string, limit int) ([]model.Work, error) {
	return a.service.SearchWorks(ctx, query, limit)
}

// Popular lists the remote catalog's most-followed works.
func (a *App) Popular(ctx context.Context, limit int) ([]model.Work, error) {
	return a.service.PopularWorks(ctx, limit)
}

// Chapters lists a work's chapters from the given origin.
func (a *App) Chapters(ctx context.Context, workID string, origin lector.Origin, limit int) ([]model.Chapter, error) {
	return a.service.Chapters(ctx, workID, origin, limit)
}

// Pages lists a chapter's page URLs from the given origin.
func (a *App) Pages(ctx context.Context, chapterID string, origin lector.Origin) ([]string, error) {
	return a.service.Pages(ctx, chapterID, origin)
}

// ArchiveNotice is the completion report of a background archive run.
type ArchiveNotice struct {
	Result *lector.ArchiveResult
	Err    error
}

// ReadChapter performs the online chapter-view flow: it resolves the work
// and chapter records, fetches the page URLs, and kicks off a detached
// archive run for them. The page URLs are returned immediately; the archive
// outcome arrives later on the returned channel.
func (a *App) ReadChapter(ctx context.Context, workID, chapterID string, progress lector.ProgressFunc) ([]string, <-chan ArchiveNotice, error) {
	work, err := a.service.GetWork(ctx, workID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching work: %w", err)
	}

	chapters, err := a.service.Chapters(ctx, workID, lector.OriginOnline, a.ListLimit())
	if err != nil {
		return nil, nil, fmt.Errorf("fetching chapters: %w", err)
	}
	var ch *model.Chapter
	for i := range chapters {
		if chapters[i].ID == chapterID {
			ch = &chapters[i]
			break
		}
	}
	if ch == nil {
		return nil, nil, fmt.Errorf("chapter %s not found in work %s", chapterID, workID)
	}

	pages, err := a.service.Pages(ctx, chapterID, lector.OriginOnline)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching pages: %w", err)
	}

	notice := make(chan ArchiveNotice, 1)
	a.service.ArchiveChapterAsync(*work, *ch, pages, progress, func(res *lector.ArchiveResult, err error) {
		notice <- ArchiveNotice{Result: res, Err: err}
	})

	return pages, notice, nil
}

// Library lists archived works together with their reading state.
func (a *App) Library() ([]model.Work, map[string]*model.StatusInfo, error) {
	works, err := a.service.Library()
	if err != nil {
		return nil, nil, err
	}

	info := make(map[string]*model.StatusInfo, len(works))
	for _, w := range works {
		si, err := a.service.StatusInfo(w.ID)
		if err != nil {
			return nil, nil, err
		}
		info[w.ID] = si
	}
	return works, info, nil
}

// Remove deletes a work and its archived chapters and pages.
func (a *App) Remove(workID string) error {
	return a.service.RemoveWork(workID)
}

// Mark sets the reading state of an archived work.
func (a *App) Mark(workID, status string) error {
	return a.service.MarkStatus(workID, model.Status(status))
}

// ExportCover writes the stored cover image of a work to path.
func (a *App) ExportCover(workID, path string) error {
	img, err := a.service.CoverImage(workID)
	if err != nil {
		return err
	}
	if len(img) == 0 {
		return fmt.Errorf("no cover stored for work %s", workID)
	}
	return os.WriteFile(path, img, 0644)
}

// ExportChapter writes an archived chapter's pages into dir as numbered JPEG
// files. It returns how many pages were written.
func (a *App) ExportChapter(chapterID, dir string) (int, error) {
	pages, err := a.service.PageImages(chapterID)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("no archived pages for chapter %s", chapterID)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating export directory: %w", err)
	}
	for i, img := range pages {
		name := filepath.Join(dir, fmt.Sprintf("%03d.jpg", i+1))
		if err := os.WriteFile(name, img, 0644); err != nil {
			return i, fmt.Errorf("writing page %d: %w", i+1, err)
		}
	}
	return len(pages), nil
}

// LibraryStats counts library works per reading state.
type LibraryStats struct {
	Reading   int
	Completed int
	Paused    int
}

// SchemaVersion reports the archive's migration version when the store
// backend exposes one.
func (a *App) SchemaVersion() (uint, bool) {
	s, ok := a.store.(*archive.SQLiteArchive)
	if !ok {
		return 0, false
	}
	v, err := s.SchemaVersion()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Stats reports how many library works are in each reading state.
func (a *App) Stats() (*LibraryStats, error) {
	var stats LibraryStats
	for _, c := range []struct {
		status model.Status
		dst    *int
	}{
		{model.StatusReading, &stats.Reading},
		{model.StatusCompleted, &stats.Completed},
		{model.StatusPaused, &stats.Paused},
	} {
		n, err := a.service.CountByStatus(c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &stats, nil
}
