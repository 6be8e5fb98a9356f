// Package archive implements the persistent local store for works, chapters
// and pages on SQLite.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"lector/internal/archive/migrations"
	"lector/internal/lector"
	"lector/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// timeLayout is the storage format for last_touched.
const timeLayout = time.RFC3339

// SQLiteArchive implements the lector.Archive interface using SQLite.
// Every method runs as its own implicit transaction; cross-call consistency
// relies on SQLite's single-writer serialization.
type SQLiteArchive struct {
	db    *sql.DB
	path  string
	clock lector.Clock
	idgen lector.IDGenerator
}

// NewSQLiteArchive opens (or creates) the archive at path and brings its
// schema up to date. path can be a file path or ":memory:".
// clock and idgen may be nil, in which case real implementations are used.
func NewSQLiteArchive(path string, clock lector.Clock, idgen lector.IDGenerator) (*SQLiteArchive, error) {
	if clock == nil {
		clock = lector.RealClock{}
	}
	if idgen == nil {
		idgen = lector.UUIDGenerator{}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating archive schema: %w", err)
	}

	return &SQLiteArchive{db: db, path: path, clock: clock, idgen: idgen}, nil
}

// OpenConnection opens and configures a SQLite connection. Foreign-key
// enforcement is opt-in per connection in SQLite, and the cascade semantics
// of RemoveWork depend on it, so it is switched on here.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Close releases the database handle.
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the current migration version of the archive file.
func (s *SQLiteArchive) SchemaVersion() (uint, error) {
	version, dirty, err := migrations.Version(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("archive schema is dirty at version %d", version)
	}
	return version, nil
}

// Work operations

// UpsertWork inserts or replaces a work keyed by its remote identifier and
// refreshes the last-touched timestamp. A nil incoming cover blob never
// overwrites a stored one.
func (s *SQLiteArchive) UpsertWork(work model.Work, lastChapter string, status model.Status) error {
	if lastChapter == "" {
		lastChapter = "1"
	}
	if status == "" {
		status = model.StatusReading
	}

	_, err := s.db.Exec(`
		INSERT INTO works (id, title, description, cover_url, cover_image, last_chapter, status, last_touched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			cover_url = excluded.cover_url,
			cover_image = COALESCE(excluded.cover_image, works.cover_image),
			last_chapter = excluded.last_chapter,
			status = excluded.status,
			last_touched = excluded.last_touched`,
		work.ID, work.Title, work.Description, work.CoverURL, work.CoverImage,
		lastChapter, status.String(), s.clock.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upserting work: %w", err)
	}
	return nil
}

// IsArchived reports whether the work has a row in the library.
func (s *SQLiteArchive) IsArchived(workID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM works WHERE id = ?", workID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking work: %w", err)
	}
	return true, nil
}

// ListWorks lists library works, most recently touched first. Cover blobs
// are not loaded here; use CoverImage for a single work's image.
func (s *SQLiteArchive) ListWorks() ([]model.Work, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, cover_url
		FROM works
		ORDER BY last_touched DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing works: %w", err)
	}
	defer rows.Close()

	var works []model.Work
	for rows.Next() {
		var w model.Work
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.CoverURL); err != nil {
			return nil, fmt.Errorf("scanning work: %w", err)
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing works: %w", err)
	}
	return works, nil
}

// StatusInfo returns the reading state for a work, or nil if the work is not
// in the library.
func (s *SQLiteArchive) StatusInfo(workID string) (*model.StatusInfo, error) {
	var (
		lastChapter string
		status      string
		touched     string
	)
	err := s.db.QueryRow(`
		SELECT last_chapter, status, last_touched
		FROM works WHERE id = ?`, workID).Scan(&lastChapter, &status, &touched)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading work status: %w", err)
	}

	ts, err := time.Parse(timeLayout, touched)
	if err != nil {
		return nil, fmt.Errorf("parsing last-touched timestamp: %w", err)
	}
	return &model.StatusInfo{
		LastChapter: lastChapter,
		Status:      model.ParseStatus(status),
		LastTouched: ts,
	}, nil
}

// UpdateLastChapter refreshes the last-chapter pointer and timestamp of a
// work without touching its status.
func (s *SQLiteArchive) UpdateLastChapter(workID, label string) error {
	_, err := s.db.Exec(`
		UPDATE works SET last_chapter = ?, last_touched = ?
		WHERE id = ?`,
		label, s.clock.Now().UTC().Format(timeLayout), workID)
	if err != nil {
		return fmt.Errorf("updating last chapter: %w", err)
	}
	return nil
}

// SetStatus changes the reading state of a library work and refreshes its
// timestamp. Unknown works are reported as an error.
func (s *SQLiteArchive) SetStatus(workID string, status model.Status) error {
	res, err := s.db.Exec(`
		UPDATE works SET status = ?, last_touched = ?
		WHERE id = ?`,
		status.String(), s.clock.Now().UTC().Format(timeLayout), workID)
	if err != nil {
		return fmt.Errorf("setting status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("work %s is not in the library", workID)
	}
	return nil
}

// CountByStatus counts library works in the given reading state.
func (s *SQLiteArchive) CountByStatus(status model.Status) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM works WHERE status = ?", status.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting works: %w", err)
	}
	return count, nil
}

// CoverImage returns the stored cover blob for a work, or nil if the work
// has none.
func (s *SQLiteArchive) CoverImage(workID string) ([]byte, error) {
	var img []byte
	err := s.db.QueryRow("SELECT cover_image FROM works WHERE id = ?", workID).Scan(&img)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cover image: %w", err)
	}
	return img, nil
}

// RemoveWork deletes a work; its chapters and pages follow via cascade.
func (s *SQLiteArchive) RemoveWork(workID string) error {
	if _, err := s.db.Exec("DELETE FROM works WHERE id = ?", workID); err != nil {
		return fmt.Errorf("removing work: %w", err)
	}
	return nil
}

// Chapter operations

// InsertChapter inserts or replaces a chapter keyed by its remote identifier.
func (s *SQLiteArchive) InsertChapter(ch model.Chapter) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO chapters (id, work_id, label, title, pages, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.WorkID, ch.Label, ch.Title, ch.Pages, ch.PublishedAt)
	if err != nil {
		return fmt.Errorf("inserting chapter: %w", err)
	}
	return nil
}

// ListChapters lists a work's archived chapters ordered by the numeric value
// of their label, so "10" sorts after "9.5", not before "2".
func (s *SQLiteArchive) ListChapters(workID string) ([]model.Chapter, error) {
	rows, err := s.db.Query(`
		SELECT id, work_id, label, title, pages, published_at
		FROM chapters
		WHERE work_id = ?
		ORDER BY CAST(label AS REAL) ASC`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.WorkID, &ch.Label, &ch.Title, &ch.Pages, &ch.PublishedAt); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	return chapters, nil
}

// CountChapters counts the archived chapters of a work.
func (s *SQLiteArchive) CountChapters(workID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chapters WHERE work_id = ?", workID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chapters: %w", err)
	}
	return count, nil
}

// Page operations

// HasArchivedPages reports whether any page row exists for the chapter.
// Note this is satisfied by a partially archived chapter as well.
func (s *SQLiteArchive) HasArchivedPages(chapterID string) (bool, error) {
	count, err := s.CountPages(chapterID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountPages counts the persisted pages of a chapter.
func (s *SQLiteArchive) CountPages(chapterID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pages WHERE chapter_id = ?", chapterID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return count, nil
}

// InsertPage persists one page of a chapter at its ordinal position. A page
// without an ID gets a generated one.
func (s *SQLiteArchive) InsertPage(p model.Page) error {
	id := p.ID
	if id == "" {
		id = s.idgen.New()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO pages (id, chapter_id, ordinal, image_url, image_data)
		VALUES (?, ?, ?, ?, ?)`,
		id, p.ChapterID, p.Ordinal, p.ImageURL, p.ImageData)
	if err != nil {
		return fmt.Errorf("inserting page %d: %w", p.Ordinal, err)
	}
	return nil
}

// ListPageURLs returns a chapter's page URLs in ordinal order.
func (s *SQLiteArchive) ListPageURLs(chapterID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT image_url FROM pages
		WHERE chapter_id = ?
		ORDER BY ordinal ASC`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("listing page urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning page url: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing page urls: %w", err)
	}
	return urls, nil
}

// ListPageImages returns a chapter's stored image blobs in ordinal order,
// skipping pages whose blob was never persisted.
func (s *SQLiteArchive) ListPageImages(chapterID string) ([][]byte, error) {
	rows, err := s.db.Query(`
		SELECT image_data FROM pages
		WHERE chapter_id = ?
		ORDER BY ordinal ASC`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("listing page images: %w", err)
	}
	defer rows.Close()

	var images [][]byte
	for rows.Next() {
		var img []byte
		if err := rows.Scan(&img); err != nil {
			return nil, fmt.Errorf("scanning page image: %w", err)
		}
		if len(img) > 0 {
			images = append(images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing page images: %w", err)
	}
	return images, nil
}
