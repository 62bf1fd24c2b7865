package domain

import "time"

// MentionType classifies an incoming interaction. Types are mutually
// exclusive; detection priority lives in the extractor.
type MentionType string

const (
	TypeLike     MentionType = "like"
	TypeRepost   MentionType = "repost"
	TypeReply    MentionType = "reply"
	TypeBookmark MentionType = "bookmark"
	TypeMention  MentionType = "mention"
)

// KnownType reports whether t is one of the five mention types.
func KnownType(t MentionType) bool {
	switch t {
	case TypeLike, TypeRepost, TypeReply, TypeBookmark, TypeMention:
		return true
	}
	return false
}

// Author is the person behind a mention, any field may be empty.
type Author struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Photo string `json:"photo"`
}

// Webmention is one stored interaction for a local page.
// Dedup within a page's document is by Source, not ID.
type Webmention struct {
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	Target      string      `json:"target"`
	Type        MentionType `json:"type"`
	Author      Author      `json:"author"`
	Content     string      `json:"content"`
	Published   string      `json:"published,omitempty"`
	Received    string      `json:"received"`
	OriginalURL string      `json:"original_url,omitempty"`
}

// SortTime returns the timestamp used for display ordering: the
// source-claimed published time when parseable, else the receipt time,
// else the zero time.
func (w Webmention) SortTime() time.Time {
	if w.Published != "" {
		if t, err := ParseTimestamp(w.Published); err == nil {
			return t
		}
	}
	if w.Received != "" {
		if t, err := ParseTimestamp(w.Received); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseTimestamp accepts the timestamp shapes sources actually emit.
func ParseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Counts aggregates a page's interactions by type.
type Counts struct {
	Likes     int `json:"likes"`
	Reposts   int `json:"reposts"`
	Replies   int `json:"replies"`
	Bookmarks int `json:"bookmarks"`
	Mentions  int `json:"mentions"`
	Total     int `json:"total"`
}

// Interaction is the normalized output of microformat extraction,
// before sanitization and storage.
type Interaction struct {
	Type        MentionType
	Author      Author
	Content     string
	Published   string
	OriginalURL string
}

// SendResult is the outcome of one outbound send attempt. It is a
// value, never an error: the caller branches on Success.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
