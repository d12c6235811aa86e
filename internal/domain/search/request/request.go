package request

import "github.com/kailas-cloud/refdex/internal/domain/search/mode"

// Query limits.
const (
	// DefaultMaxTextChars is the default maximum query text length in characters.
	DefaultMaxTextChars = 500
)

// DefaultAllowedExtensions lists the image formats accepted by default.
var DefaultAllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Query is a validated, normalized search query.
type Query struct {
	image         []byte
	text          string
	textFilter    bool
	includeDigits bool
}

// New creates a Query from already validated parts. text must be normalized.
func New(image []byte, text string, textFilter, includeDigits bool) Query {
	return Query{
		image:         image,
		text:          text,
		textFilter:    textFilter,
		includeDigits: includeDigits,
	}
}

// Image returns the raw query image bytes (nil when absent).
func (q Query) Image() []byte { return q.image }

// HasImage reports whether an image was supplied.
func (q Query) HasImage() bool { return len(q.image) > 0 }

// Text returns the normalized query text.
func (q Query) Text() string { return q.text }

// HasText reports whether normalized text is present.
func (q Query) HasText() bool { return q.text != "" }

// TextFilter reports whether results must contain every query token.
func (q Query) TextFilter() bool { return q.textFilter }

// IncludeDigits reports whether digits were kept during text normalization.
func (q Query) IncludeDigits() bool { return q.includeDigits }

// Mode returns the ranking mode implied by the query inputs.
func (q Query) Mode() mode.Mode { return mode.Select(q.HasImage(), q.HasText()) }
