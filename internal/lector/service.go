package lector

import (
	"context"
	"fmt"

	"lector/internal/model"
)

// TaskPool runs detached background tasks with bounded concurrency.
type TaskPool interface {
	Submit(task func())
}

// Service is the orchestration layer between the CLI and the catalog data.
// It routes reads to the gateway or the archive based on the caller's origin
// flag, and runs the archive-for-offline sequence for viewed chapters.
type Service struct {
	gateway Gateway
	archive Archive
	images  ImageFetcher
	pool    TaskPool
	logger  Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(gateway Gateway, archive Archive, images ImageFetcher, pool TaskPool, logger Logger) *Service {
	return &Service{
		gateway: gateway,
		archive: archive,
		images:  images,
		pool:    pool,
		logger:  logger,
	}
}

// SearchWorks queries the remote catalog by title.
func (s *Service) SearchWorks(ctx context.Context, query string, limit int) ([]model.Work, error) {
	return s.gateway.SearchWorks(ctx, query, limit)
}

// PopularWorks lists the remote catalog's most-followed works.
func (s *Service) PopularWorks(ctx context.Context, limit int) ([]model.Work, error) {
	return s.gateway.PopularWorks(ctx, limit)
}

// GetWork fetches a single work record from the remote catalog.
func (s *Service) GetWork(ctx context.Context, workID string) (*model.Work, error) {
	return s.gateway.GetWork(ctx, workID)
}

// Chapters returns the chapter list for a work, from the remote catalog or
// the local archive depending on origin. An offline read of a work that was
// never archived returns an empty list, not an error.
func (s *Service) Chapters(ctx context.Context, workID string, origin Origin, limit int) ([]model.Chapter, error) {
	if origin == OriginOffline {
		return s.archive.ListChapters(workID)
	}
	return s.gateway.Chapters(ctx, workID, limit)
}

// Pages returns the ordered page URLs for a chapter, from the remote catalog
// or the local archive depending on origin. An offline read of a chapter that
// was never archived returns an empty list, not an error.
func (s *Service) Pages(ctx context.Context, chapterID string, origin Origin) ([]string, error) {
	if origin == OriginOffline {
		return s.archive.ListPageURLs(chapterID)
	}
	return s.gateway.Pages(ctx, chapterID)
}

// Library lists archived works, most recently touched first.
func (s *Service) Library() ([]model.Work, error) {
	return s.archive.ListWorks()
}

// StatusInfo returns the reading state for an archived work, or nil if the
// work is not in the library.
func (s *Service) StatusInfo(workID string) (*model.StatusInfo, error) {
	return s.archive.StatusInfo(workID)
}

// MarkStatus sets the reading state of an archived work. Only the known
// states are accepted; the unknown fallback exists for reading foreign data,
// not writing it.
func (s *Service) MarkStatus(workID string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q (want reading, completed or paused)", status)
	}
	if err := s.archive.SetStatus(workID, status); err != nil {
		return err
	}
	s.logger.Info("work status changed", "work", workID, "status", status)
	return nil
}

// CountByStatus counts library works in the given reading state.
func (s *Service) CountByStatus(status model.Status) (int, error) {
	return s.archive.CountByStatus(status)
}

// CoverImage returns the stored cover blob for an archived work, or nil if
// none was ever fetched.
func (s *Service) CoverImage(workID string) ([]byte, error) {
	return s.archive.CoverImage(workID)
}

// PageImages returns an archived chapter's image blobs in reading order.
func (s *Service) PageImages(chapterID string) ([][]byte, error) {
	return s.archive.ListPageImages(chapterID)
}

// RemoveWork deletes a work from the library. Its chapters and pages go with
// it via foreign-key cascade.
func (s *Service) RemoveWork(workID string) error {
	if err := s.archive.RemoveWork(workID); err != nil {
		return fmt.Errorf("removing work: %w", err)
	}
	s.logger.Info("work removed from library", "work", workID)
	return nil
}
