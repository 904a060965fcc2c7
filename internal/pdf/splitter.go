package pdf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/katakuxiko/pdfqa/internal/model"
)

// DefaultSeparators are tried in order: paragraph, line, word, character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into windows of at most Size runes. Consecutive windows
// share at most Overlap runes of trailing pieces. It prefers the earliest
// separator in Separators that occurs in the text and recurses with the
// remaining ones into pieces that are still too long.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

// SplitPages splits every page on its own so each chunk keeps its page
// number. Chunk IDs are "<docID>_chunk_<n>" with n counting across pages.
func (s *Splitter) SplitPages(docID string, pages []model.PageText) []model.Chunk {
	var chunks []model.Chunk
	for _, p := range pages {
		for _, text := range s.Split(p.Text) {
			idx := len(chunks)
			chunks = append(chunks, model.Chunk{
				ID:    fmt.Sprintf("%s_chunk_%d", docID, idx),
				Page:  p.Page,
				Index: idx,
				Text:  text,
			})
		}
	}
	return chunks
}

func (s *Splitter) Split(text string) []string {
	var out []string
	for _, c := range s.split(text, s.Separators) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var next []string
	for i, cand := range separators {
		if cand == "" {
			sep = ""
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			next = separators[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range splitKeep(text, sep) {
		if runeLen(piece) < s.Size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, s.merge(small)...)
			small = nil
		}
		if len(next) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, next)...)
		}
	}
	if len(small) > 0 {
		out = append(out, s.merge(small)...)
	}
	return out
}

// merge packs pieces into windows. When a window is full it is emitted and
// pieces are dropped from its front until what remains fits the overlap.
func (s *Splitter) merge(pieces []string) []string {
	var (
		docs  []string
		cur   []string
		total int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.Size && len(cur) > 0 {
			if doc := strings.TrimSpace(strings.Join(cur, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.Overlap || (total+n > s.Size && total > 0) {
				total -= runeLen(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(cur, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeep splits on sep and keeps sep at the start of every piece after
// the first. An empty sep splits into runes. Empty pieces are dropped.
func splitKeep(text, sep string) []string {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for i, p := range strings.Split(text, sep) {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
