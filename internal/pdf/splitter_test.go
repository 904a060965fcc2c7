package pdf

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return strings.Join(words, " ")
}

// overlap returns the longest suffix of a that is also a prefix of b.
func overlap(a, b string) int {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for n := limit; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Equal(t, []string{"The capital of France is Paris."}, s.Split("  The capital of France is Paris.  "))
}

func TestSplitter_Empty(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split(" \n\n \n"))
}

func TestSplitter_SizeAndOverlapBounds(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split(numberedWords(2000))
	require.Greater(t, len(chunks), 10)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000, "chunk %d", i)
		if i > 0 {
			ov := overlap(chunks[i-1], c)
			assert.LessOrEqual(t, ov, 200, "overlap %d", i)
			assert.Greater(t, ov, 0, "consecutive chunks share trailing words")
		}
	}
}

func TestSplitter_Deterministic(t *testing.T) {
	text := numberedWords(500) + "\n\n" + numberedWords(300)
	a := NewSplitter(1000, 200).Split(text)
	b := NewSplitter(1000, 200).Split(text)
	assert.Equal(t, a, b)
}

func TestSplitter_PrefersParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 60)
	p2 := strings.Repeat("b", 60)
	s := NewSplitter(100, 0)

	assert.Equal(t, []string{p1, p2}, s.Split(p1+"\n\n"+p2))
}

func TestSplitter_FallsBackToWords(t *testing.T) {
	s := NewSplitter(20, 5)
	chunks := s.Split("one two three four five six seven eight nine ten")

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
		assert.False(t, strings.HasPrefix(c, " "))
	}
	assert.Equal(t, "one two three four", chunks[0])
}

func TestSplitter_HardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(10, 2)
	chunks := s.Split(strings.Repeat("x", 25))

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
	assert.Equal(t, strings.Repeat("x", 10), chunks[0])
}

func TestSplitter_CountsRunes(t *testing.T) {
	s := NewSplitter(10, 0)
	chunks := s.Split(strings.Repeat("é", 25))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, 25, utf8.RuneCountInString(strings.Join(chunks, "")))
}

func TestNewSplitter_Clamps(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 1000, s.Size)
	assert.Equal(t, 0, s.Overlap)

	s = NewSplitter(100, 100)
	assert.Equal(t, 20, s.Overlap)
}

func TestSplitter_SplitPages(t *testing.T) {
	s := NewSplitter(1000, 200)
	pages := []model.PageText{
		{Page: 1, Text: "first page"},
		{Page: 2, Text: ""},
		{Page: 3, Text: "third page"},
	}

	chunks := s.SplitPages("doc1", pages)
	require.Len(t, chunks, 2)

	assert.Equal(t, model.Chunk{ID: "doc1_chunk_0", Page: 1, Index: 0, Text: "first page"}, chunks[0])
	assert.Equal(t, model.Chunk{ID: "doc1_chunk_1", Page: 3, Index: 1, Text: "third page"}, chunks[1])
}
