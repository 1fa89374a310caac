// Package extraction turns message text into candidate entities.
//
// The ingestion pipeline only sees the Extractor interface, so the rule set in
// this package can be replaced by a model-backed classifier without touching
// callers.
package extraction

import (
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/weave-backend/internal/domain"
)

const (
	MaxTitleRunes       = 50
	MaxDescriptionRunes = 200
	titleEllipsis       = "..."
)

// Candidate is an entity proposed for a message before it is persisted.
type Candidate struct {
	Type        types.EntityType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Importance  float64          `json:"importance"`
}

// Extractor must be deterministic and side-effect free. It never fails: text
// with no recognizable markers yields an empty slice.
type Extractor interface {
	Extract(content string) []Candidate
}

// Func adapts a plain function to Extractor.
type Func func(content string) []Candidate

func (f Func) Extract(content string) []Candidate {
	if f == nil {
		return nil
	}
	return f(content)
}

// Title is the first MaxTitleRunes runes of content, with an ellipsis when
// cut. Whitespace at the cut is trimmed before the ellipsis.
func Title(content string) string {
	if utf8.RuneCountInString(content) <= MaxTitleRunes {
		return content
	}
	return strings.TrimSpace(string([]rune(content)[:MaxTitleRunes])) + titleEllipsis
}

// Description is content truncated to MaxDescriptionRunes runes.
func Description(content string) string {
	if utf8.RuneCountInString(content) <= MaxDescriptionRunes {
		return content
	}
	return string([]rune(content)[:MaxDescriptionRunes])
}
