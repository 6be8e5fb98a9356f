package model

import "time"

// Work represents a titled catalog entry (a manga series). The ID is the
// remote catalog identifier and is stable across the remote API and the
// local archive.
type Work struct {
	ID          string // Remote catalog UUID (not locally generated)
	Title       string
	Description string // Truncated to 200 runes at parse time
	CoverURL    string // Empty when the record carried no cover_art relationship
	CoverImage  []byte // JPEG blob, populated only for archived works
}

// Chapter represents one installment of a Work.
type Chapter struct {
	ID          string // Remote chapter UUID, globally unique
	WorkID      string // Foreign key to Work
	Label       string // Chapter number as published; may be fractional ("10.5")
	Title       string // May be empty; display fallback is a presentation concern
	Pages       int
	PublishedAt string // Remote-sourced RFC 3339 string; may be empty
}

// Page represents one archived image of a Chapter.
type Page struct {
	ID        string // UUID
	ChapterID string // Foreign key to Chapter
	Ordinal   int    // 1-based position within the chapter
	ImageURL  string
	ImageData []byte // JPEG blob; nil if the image was never persisted
}

// StatusInfo is the per-Work reading state tracked by the archive.
type StatusInfo struct {
	LastChapter string // Label of the most recently read chapter
	Status      Status
	LastTouched time.Time
}
