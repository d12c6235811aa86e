package query

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/search/mode"
)

func encoded(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown format %q", format)
	}
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func reasons(err error) []domain.Reason {
	var out []domain.Reason
	for _, cause := range domain.Flatten(err) {
		if r, ok := domain.ReasonOf(cause); ok {
			out = append(out, r)
		}
	}
	return out
}

func equalReasons(got []domain.Reason, want ...domain.Reason) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProcess_Image(t *testing.T) {
	p := New(0, nil, true)
	data := encoded(t, "png")
	q, err := p.Process(Raw{Image: &Upload{Filename: "bird.png", Data: data}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(q.Image(), data) || q.Mode() != mode.Image {
		t.Errorf("query = %+v", q)
	}
}

func TestProcess_FormatFromContent(t *testing.T) {
	p := New(0, []string{"png", "JPG"}, true)

	// misleading name, real jpeg content
	if _, err := p.Process(Raw{Image: &Upload{Filename: "bird.png", Data: encoded(t, "jpeg")}}); err != nil {
		t.Errorf("jpeg listed as .jpg rejected: %v", err)
	}

	_, err := p.Process(Raw{Image: &Upload{Filename: "bird.png", Data: encoded(t, "gif")}})
	if !equalReasons(reasons(err), domain.ReasonInvalidFileFormat) {
		t.Errorf("gif: reasons = %v", reasons(err))
	}

	_, err = p.Process(Raw{Image: &Upload{Filename: "notes.png", Data: []byte("plain text")}})
	if !equalReasons(reasons(err), domain.ReasonInvalidFileFormat) {
		t.Errorf("garbage: reasons = %v", reasons(err))
	}
}

func TestProcess_Text(t *testing.T) {
	p := New(20, nil, true)
	q, err := p.Process(Raw{Text: "  Crème Brûlée 42 ", TextFilter: true})
	if err != nil {
		t.Fatal(err)
	}
	if q.Text() != "creme brulee" || !q.TextFilter() || q.Mode() != mode.Text {
		t.Errorf("query = %q filter=%v mode=%s", q.Text(), q.TextFilter(), q.Mode())
	}

	q, err = p.Process(Raw{Text: "R2D2", IncludeDigits: true})
	if err != nil {
		t.Fatal(err)
	}
	if q.Text() != "r2d2" || !q.IncludeDigits() {
		t.Errorf("digits: %q", q.Text())
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    *Processor
		raw  Raw
		want []domain.Reason
	}{
		{
			name: "nothing supplied",
			p:    New(0, nil, true),
			raw:  Raw{},
			want: []domain.Reason{domain.ReasonMissingQueryData},
		},
		{
			name: "text cleans to empty",
			p:    New(0, nil, true),
			raw:  Raw{Text: "123 !!"},
			want: []domain.Reason{domain.ReasonMissingQueryData},
		},
		{
			name: "empty file part without name",
			p:    New(0, nil, true),
			raw:  Raw{Image: &Upload{}},
			want: []domain.Reason{domain.ReasonEmptyFile, domain.ReasonMissingQueryData},
		},
		{
			name: "empty file with name",
			p:    New(0, nil, true),
			raw:  Raw{Image: &Upload{Filename: "a.png"}, Text: "robin"},
			want: []domain.Reason{domain.ReasonEmptyFile},
		},
		{
			name: "read failure",
			p:    New(0, nil, true),
			raw:  Raw{Image: &Upload{Filename: "a.png", ReadErr: errors.New("connection reset")}, Text: "robin"},
			want: []domain.Reason{domain.ReasonFileReadFailure},
		},
		{
			name: "bad format and long text accumulate",
			p:    New(5, nil, true),
			raw:  Raw{Image: &Upload{Filename: "a.txt", Data: []byte("hello")}, Text: "far too long"},
			want: []domain.Reason{domain.ReasonInvalidFileFormat, domain.ReasonTooManyCharacters},
		},
		{
			name: "too long text still counts as present",
			p:    New(3, nil, true),
			raw:  Raw{Text: "robin"},
			want: []domain.Reason{domain.ReasonTooManyCharacters},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Process(tt.raw)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if got := reasons(err); !equalReasons(got, tt.want...) {
				t.Errorf("reasons = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcess_CharacterLimitCountsRunes(t *testing.T) {
	p := New(5, nil, true)
	if _, err := p.Process(Raw{Text: strings.Repeat("é", 5)}); err != nil {
		t.Errorf("5 runes rejected: %v", err)
	}
}

func TestProcess_BrowseAllowed(t *testing.T) {
	q, err := New(0, nil, false).Process(Raw{})
	if err != nil {
		t.Fatal(err)
	}
	if q.Mode() != mode.Browse {
		t.Errorf("Mode() = %s", q.Mode())
	}
}

func TestAllowed(t *testing.T) {
	p := New(0, []string{".PNG", "gif"}, true)
	for _, ext := range []string{"png", ".png", " .Gif "} {
		if !p.Allowed(ext) {
			t.Errorf("Allowed(%q) = false", ext)
		}
	}
	if p.Allowed(".jpg") {
		t.Error("Allowed(.jpg) = true")
	}
}
