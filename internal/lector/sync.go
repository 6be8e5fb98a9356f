package lector

import (
	"context"
	"fmt"

	"lector/internal/model"
)

// ArchiveOutcome classifies how an archive run ended.
type ArchiveOutcome int

const (
	// OutcomeArchived means the chapter and all its pages were persisted.
	OutcomeArchived ArchiveOutcome = iota
	// OutcomeSkipped means the chapter already had pages in the archive and
	// no download was attempted.
	OutcomeSkipped
)

// ArchiveResult summarizes a completed archive run.
type ArchiveResult struct {
	Outcome       ArchiveOutcome
	PagesArchived int
	PagesTotal    int
	ChapterCount  int // archived chapters for the work after this run
}

// ProgressFunc receives incremental progress while pages are persisted.
type ProgressFunc func(done, total int)

// ArchiveChapter persists a viewed chapter for offline reading.
//
// The work is registered in the library first: a work not yet present is
// upserted with status "reading"; a work already present only has its
// last-chapter pointer and timestamp refreshed, so a status like "completed"
// survives re-reads. If the chapter already has any archived page the run
// stops there (the idempotence guard; note that a prior partial failure also
// satisfies it). Otherwise the chapter row is written and each page is
// downloaded, re-encoded and inserted strictly in ordinal order.
//
// Nothing is rolled back on failure. An interrupted run leaves the work and
// chapter rows plus whatever pages completed; persistence is at-least-once.
func (s *Service) ArchiveChapter(ctx context.Context, work model.Work, ch model.Chapter, pageURLs []string, progress ProgressFunc) (*ArchiveResult, error) {
	archived, err := s.archive.IsArchived(work.ID)
	if err != nil {
		return nil, fmt.Errorf("checking library: %w", err)
	}

	if !archived {
		if work.CoverURL != "" && work.CoverImage == nil {
			// Best effort: a missing cover never blocks archiving.
			img, err := s.images.Fetch(ctx, work.CoverURL)
			if err != nil {
				s.logger.Warn("cover download failed", "work", work.ID, "error", err)
			} else {
				work.CoverImage = img
			}
		}
		if err := s.archive.UpsertWork(work, ch.Label, model.StatusReading); err != nil {
			return nil, fmt.Errorf("registering work: %w", err)
		}
		s.logger.Info("work registered", "work", work.ID, "title", work.Title)
	} else {
		if err := s.archive.UpdateLastChapter(work.ID, ch.Label); err != nil {
			return nil, fmt.Errorf("updating last chapter: %w", err)
		}
	}

	hasPages, err := s.archive.HasArchivedPages(ch.ID)
	if err != nil {
		return nil, fmt.Errorf("checking archived pages: %w", err)
	}
	if hasPages {
		s.logger.Debug("chapter already archived", "chapter", ch.ID)
		count, err := s.archive.CountChapters(work.ID)
		if err != nil {
			return nil, fmt.Errorf("counting chapters: %w", err)
		}
		return &ArchiveResult{Outcome: OutcomeSkipped, ChapterCount: count}, nil
	}

	if ch.Pages == 0 {
		ch.Pages = len(pageURLs)
	}
	if err := s.archive.InsertChapter(ch); err != nil {
		return nil, fmt.Errorf("persisting chapter: %w", err)
	}

	total := len(pageURLs)
	done := 0
	for i, url := range pageURLs {
		img, err := s.images.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("downloading page %d of %d: %w", i+1, total, err)
		}
		page := model.Page{ChapterID: ch.ID, Ordinal: i + 1, ImageURL: url, ImageData: img}
		if err := s.archive.InsertPage(page); err != nil {
			return nil, fmt.Errorf("persisting page %d of %d: %w", i+1, total, err)
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	count, err := s.archive.CountChapters(work.ID)
	if err != nil {
		return nil, fmt.Errorf("counting chapters: %w", err)
	}

	s.logger.Info("chapter archived",
		"work", work.ID, "chapter", ch.ID, "label", ch.Label,
		"pages", done, "chapters_archived", count)
	return &ArchiveResult{
		Outcome:       OutcomeArchived,
		PagesArchived: done,
		PagesTotal:    total,
		ChapterCount:  count,
	}, nil
}

// ArchiveChapterAsync runs ArchiveChapter as a detached task on the pool.
// The run uses its own context: it cannot be canceled once started and
// outlives the caller. Completion, including any swallowed failure, is
// reported through done; the task never panics out into the host process.
func (s *Service) ArchiveChapterAsync(work model.Work, ch model.Chapter, pageURLs []string, progress ProgressFunc, done func(*ArchiveResult, error)) {
	s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("archive run panicked", "chapter", ch.ID, "panic", r)
				if done != nil {
					done(nil, fmt.Errorf("archiving chapter %s: %v", ch.ID, r))
				}
			}
		}()

		res, err := s.ArchiveChapter(context.Background(), work, ch, pageURLs, progress)
		if err != nil {
			s.logger.Error("archive run failed", "chapter", ch.ID, "error", err)
		}
		if done != nil {
			done(res, err)
		}
	})
}
