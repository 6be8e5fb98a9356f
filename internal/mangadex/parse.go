package mangadex

import (
	"encoding/json"
	"sort"

	"lector/internal/lector"
	"lector/internal/model"
)

const (
	placeholderTitle       = "Untitled"
	placeholderDescription = "No description"

	descriptionLimit = 200
)

// localePreference is the ordered fallback for multi-locale text maps:
// English, romanized Japanese, Japanese, then any remaining locale.
var localePreference = []string{"en", "ja-ro", "ja"}

type workListPayload struct {
	Data []workPayload `json:"data"`
}

type workPayload struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string `json:"title"`
		Description map[string]string `json:"description"`
	} `json:"attributes"`
	Relationships []struct {
		Type       string `json:"type"`
		Attributes struct {
			FileName string `json:"fileName"`
		} `json:"attributes"`
	} `json:"relationships"`
}

type chapterFeedPayload struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Chapter   string `json:"chapter"`
			Title     string `json:"title"`
			Pages     int    `json:"pages"`
			PublishAt string `json:"publishAt"`
		} `json:"attributes"`
	} `json:"data"`
}

type atHomePayload struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}

func (c *Client) parseWorks(body []byte) ([]model.Work, error) {
	var payload workListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &lector.ParseError{Reason: "work list", Err: err}
	}
	if payload.Data == nil {
		return nil, &lector.ParseError{Reason: "work list missing data array"}
	}

	works := make([]model.Work, 0, len(payload.Data))
	for _, rec := range payload.Data {
		w, err := c.workFromPayload(rec)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, nil
}

func (c *Client) parseWork(body []byte) (*model.Work, error) {
	var payload struct {
		Data workPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &lector.ParseError{Reason: "work record", Err: err}
	}
	w, err := c.workFromPayload(payload.Data)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) workFromPayload(rec workPayload) (model.Work, error) {
	if rec.ID == "" {
		return model.Work{}, &lector.ParseError{Reason: "work record missing id"}
	}
	if rec.Attributes.Title == nil {
		return model.Work{}, &lector.ParseError{Reason: "work record missing title map"}
	}

	w := model.Work{
		ID:          rec.ID,
		Title:       pickLocale(rec.Attributes.Title, placeholderTitle),
		Description: truncate(pickLocale(rec.Attributes.Description, placeholderDescription), descriptionLimit),
	}

	for _, rel := range rec.Relationships {
		if rel.Type != "cover_art" {
			continue
		}
		if rel.Attributes.FileName != "" {
			w.CoverURL = c.uploadsURL + "/covers/" + rec.ID + "/" + rel.Attributes.FileName + ".256.jpg"
		}
		break
	}
	return w, nil
}

func parseChapters(body []byte, workID string) ([]model.Chapter, error) {
	var payload chapterFeedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &lector.ParseError{Reason: "chapter feed", Err: err}
	}
	if payload.Data == nil {
		return nil, &lector.ParseError{Reason: "chapter feed missing data array"}
	}

	chapters := make([]model.Chapter, 0, len(payload.Data))
	for _, rec := range payload.Data {
		// Oneshots and broken records carry no chapter number; they are
		// filtered here and never surface.
		if rec.Attributes.Chapter == "" || rec.Attributes.Chapter == "null" {
			continue
		}
		if rec.ID == "" {
			return nil, &lector.ParseError{Reason: "chapter record missing id"}
		}
		chapters = append(chapters, model.Chapter{
			ID:          rec.ID,
			WorkID:      workID,
			Label:       rec.Attributes.Chapter,
			Title:       rec.Attributes.Title,
			Pages:       rec.Attributes.Pages,
			PublishedAt: rec.Attributes.PublishAt,
		})
	}
	return chapters, nil
}

func parsePages(body []byte) ([]string, error) {
	var payload atHomePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &lector.ParseError{Reason: "at-home response", Err: err}
	}
	if payload.BaseURL == "" {
		return nil, &lector.ParseError{Reason: "at-home response missing baseUrl"}
	}
	if payload.Chapter.Hash == "" {
		return nil, &lector.ParseError{Reason: "at-home response missing chapter hash"}
	}

	// The data-saver list wins whenever the server offers one; full
	// resolution is the fallback, not the preference.
	files := payload.Chapter.Data
	endpoint := "/data/"
	if payload.Chapter.DataSaver != nil {
		files = payload.Chapter.DataSaver
		endpoint = "/data-saver/"
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, payload.BaseURL+endpoint+payload.Chapter.Hash+"/"+f)
	}
	return urls, nil
}

// pickLocale applies the ordered locale fallback to a text map. When none of
// the preferred locales is present the lexicographically first key is used so
// the choice is deterministic; an empty map yields the placeholder.
func pickLocale(m map[string]string, placeholder string) string {
	for _, loc := range localePreference {
		if v := m[loc]; v != "" {
			return v
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if m[k] != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return placeholder
	}
	sort.Strings(keys)
	return m[keys[0]]
}

// truncate clips s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
