package lector

import (
	"context"

	"lector/internal/model"
)

// Origin selects where a catalog read is served from.
type Origin int

const (
	// OriginOnline routes reads to the remote catalog gateway.
	OriginOnline Origin = iota
	// OriginOffline routes reads to the local archive.
	OriginOffline
)

func (o Origin) String() string {
	if o == OriginOffline {
		return "offline"
	}
	return "online"
}

// Gateway fetches typed records from the remote catalog.
// Implementations do not retry; transport-level retry is a client concern.
type Gateway interface {
	SearchWorks(ctx context.Context, query string, limit int) ([]model.Work, error)
	GetWork(ctx context.Context, workID string) (*model.Work, error)
	PopularWorks(ctx context.Context, limit int) ([]model.Work, error)
	Chapters(ctx context.Context, workID string, limit int) ([]model.Chapter, error)
	Pages(ctx context.Context, chapterID string) ([]string, error)
}

// Archive is the persistent local store for works, chapters and pages.
// Every method is a self-contained transaction.
type Archive interface {
	UpsertWork(work model.Work, lastChapter string, status model.Status) error
	IsArchived(workID string) (bool, error)
	ListWorks() ([]model.Work, error)
	StatusInfo(workID string) (*model.StatusInfo, error)
	UpdateLastChapter(workID, label string) error
	SetStatus(workID string, status model.Status) error
	CountByStatus(status model.Status) (int, error)

	InsertChapter(ch model.Chapter) error
	ListChapters(workID string) ([]model.Chapter, error)
	CountChapters(workID string) (int, error)

	HasArchivedPages(chapterID string) (bool, error)
	CountPages(chapterID string) (int, error)
	InsertPage(p model.Page) error
	ListPageURLs(chapterID string) ([]string, error)
	ListPageImages(chapterID string) ([][]byte, error)

	CoverImage(workID string) ([]byte, error)
	RemoveWork(workID string) error

	Close() error
}

// ImageFetcher downloads an image and returns it re-encoded as JPEG at the
// configured quality, bounding local storage size.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
