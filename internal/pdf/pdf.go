package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/katakuxiko/pdfqa/internal/model"
	rscpdf "rsc.io/pdf"
)

// Extractor turns a stored PDF into per-page text.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]model.PageText, error)
}

// NewExtractor returns the extractor registered under name: "native" or "pdftotext".
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "native", "":
		return NativeExtractor{}, nil
	case "pdftotext":
		return PopplerExtractor{Bin: "pdftotext"}, nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", name)
	}
}

// NativeExtractor reads text runs with rsc.io/pdf. Pages without a content
// stream produce an empty PageText so numbering stays aligned.
type NativeExtractor struct{}

func (NativeExtractor) Extract(ctx context.Context, path string) (pages []model.PageText, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// rsc.io/pdf panics on malformed objects.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := rscpdf.NewReader(f, st.Size())
	if err != nil {
		return nil, err
	}

	n := r.NumPage()
	pages = make([]model.PageText, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, model.PageText{Page: i})
			continue
		}
		pages = append(pages, model.PageText{Page: i, Text: Sanitize(pageText(p))})
	}
	return pages, nil
}

// pageText joins the glyph runs of a page. rsc.io/pdf drops space glyphs, so
// word breaks are recovered from horizontal gaps and line breaks from
// baseline changes.
func pageText(p rscpdf.Page) string {
	var sb strings.Builder
	var prev rscpdf.Text
	for i, t := range p.Content().Text {
		if i > 0 {
			switch {
			case t.Y != prev.Y:
				sb.WriteString("\n")
			case t.X-(prev.X+advance(prev)) > prev.FontSize*0.15:
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
		prev = t
	}
	return sb.String()
}

// advance is the horizontal extent of a glyph. Fonts without /Widths report
// zero, so half the font size stands in.
func advance(t rscpdf.Text) float64 {
	if t.W > 0 {
		return t.W
	}
	return t.FontSize * 0.5
}

// PopplerExtractor shells out to poppler's pdftotext, which copes with more
// font encodings than the native reader. Pages are separated by form feeds.
type PopplerExtractor struct {
	Bin string
}

func (e PopplerExtractor) Extract(ctx context.Context, path string) ([]model.PageText, error) {
	cmd := exec.CommandContext(ctx, e.Bin, "-enc", "UTF-8", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Bin, err)
	}

	raw := strings.Split(string(out), "\f")
	if len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	pages := make([]model.PageText, len(raw))
	for i, s := range raw {
		pages[i] = model.PageText{Page: i + 1, Text: Sanitize(s)}
	}
	return pages, nil
}

// Sanitize normalises line endings, drops NUL bytes and tabs, and trims
// trailing blanks on every line. Paragraph breaks survive for the splitter.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// HasText reports whether any page produced non-blank text.
func HasText(pages []model.PageText) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
