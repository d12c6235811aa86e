// Package query validates raw search input and turns it into a normalized request.Query.
package query

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	// Registered image decoders; format detection relies on them.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/search/request"
	"github.com/kailas-cloud/refdex/internal/domain/text"
)

// Upload is a file field received with a search request.
type Upload struct {
	Filename string
	Data     []byte
	// ReadErr is set when the payload could not be read from the request.
	ReadErr error
}

// Raw holds the unvalidated search request fields.
type Raw struct {
	// Image is nil when the request carried no file field.
	Image         *Upload
	Text          string
	TextFilter    bool
	IncludeDigits bool
}

// Processor validates raw input. It holds configuration only and is safe for concurrent use.
type Processor struct {
	maxTextChars int
	allowed      map[string]struct{}
	requireQuery bool
}

// New creates a processor. allowedExtensions are matched case-insensitively
// with or without the leading dot. requireQuery rejects input with neither image nor text.
func New(maxTextChars int, allowedExtensions []string, requireQuery bool) *Processor {
	if maxTextChars <= 0 {
		maxTextChars = request.DefaultMaxTextChars
	}
	if len(allowedExtensions) == 0 {
		allowedExtensions = request.DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[normalizeExt(ext)] = struct{}{}
	}
	return &Processor{maxTextChars: maxTextChars, allowed: allowed, requireQuery: requireQuery}
}

// Process validates raw and returns the normalized query, or every validation
// failure found as a domain.Errors value.
func (p *Processor) Process(raw Raw) (request.Query, error) {
	var errs domain.Errors

	var img []byte
	if raw.Image != nil {
		data, err := p.processImage(raw.Image)
		if err != nil {
			errs = append(errs, err)
		}
		img = data
	}

	cleaned := ""
	textPresent := false
	if raw.Text != "" {
		if n := utf8.RuneCountInString(raw.Text); n > p.maxTextChars {
			errs = append(errs, domain.NewValidationError(domain.ReasonTooManyCharacters,
				fmt.Sprintf("%d characters, max %d", n, p.maxTextChars)))
			// the text is still present, only too long
			textPresent = true
		} else {
			cleaned = text.Clean(raw.Text, raw.IncludeDigits)
			textPresent = cleaned != ""
		}
	}

	if p.requireQuery && len(img) == 0 && !textPresent {
		errs = append(errs, domain.NewValidationError(domain.ReasonMissingQueryData, ""))
	}

	if err := errs.Err(); err != nil {
		return request.Query{}, err
	}
	return request.New(img, cleaned, raw.TextFilter, raw.IncludeDigits), nil
}

func (p *Processor) processImage(u *Upload) ([]byte, error) {
	if u.ReadErr != nil {
		return nil, domain.NewValidationError(domain.ReasonFileReadFailure, u.ReadErr.Error())
	}
	if u.Filename == "" && len(u.Data) == 0 {
		// browsers submit an empty part without a filename when no file is chosen
		return nil, domain.NewValidationError(domain.ReasonEmptyFile, "")
	}
	if len(u.Data) == 0 {
		return nil, domain.NewValidationError(domain.ReasonEmptyFile, u.Filename)
	}
	format, ok := p.detectFormat(u.Data)
	if !ok {
		return u.Data, domain.NewValidationError(domain.ReasonInvalidFileFormat, format)
	}
	return u.Data, nil
}

// detectFormat decodes the image header and checks the format against the allow-list.
// The file name is ignored: the format comes from the content.
func (p *Processor) detectFormat(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	if _, ok := p.allowed[normalizeExt(format)]; ok {
		return format, true
	}
	// jpeg files are commonly listed as .jpg
	if format == "jpeg" {
		_, ok := p.allowed[".jpg"]
		return format, ok
	}
	return format, false
}

// Allowed reports whether ext is on the allow-list.
func (p *Processor) Allowed(ext string) bool {
	_, ok := p.allowed[normalizeExt(ext)]
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
