package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words counts whitespace-separated words, which keeps window math readable.
type words struct{}

func (words) Count(s string) int { return len(strings.Fields(s)) }

func TestSplit_BasicHeaders(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	chunks, err := NewChunker(nil, 0, -1).Split("guide.md", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "# Getting Started", chunks[0].HeaderPath)
	assert.Contains(t, chunks[0].RawContent, "Introduction text here")
	assert.NotContains(t, chunks[0].RawContent, "Install steps here")

	assert.Equal(t, "# Getting Started > ## Installation", chunks[1].HeaderPath)
	assert.Contains(t, chunks[1].RawContent, "Install steps here")
	assert.NotContains(t, chunks[1].RawContent, "Config details here")

	assert.Equal(t, "# Getting Started > ## Configuration", chunks[2].HeaderPath)
	assert.Contains(t, chunks[2].RawContent, "Config details here")

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.True(t, strings.HasPrefix(c.Content, c.HeaderPath+"\n\n"))
		assert.Positive(t, c.Tokens)
	}
}

func TestSplit_Preamble(t *testing.T) {
	input := "Notes taken before any heading.\n\n# Title\n\nBody text.\n"

	chunks, err := NewChunker(words{}, 0, -1).Split("notes.md", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "", chunks[0].HeaderPath)
	assert.Equal(t, "Notes taken before any heading.", chunks[0].Content)
	assert.Equal(t, "# Title", chunks[1].HeaderPath)
	assert.Contains(t, chunks[1].RawContent, "Body text.")
}

func TestSplit_DeepHeadingsStayInSection(t *testing.T) {
	input := "# A\n\n## B\n\n### C\n\ndeep text\n\n#### D\n\ndeeper\n"

	chunks, err := NewChunker(words{}, 0, -1).Split("doc.md", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "# A > ## B", chunks[1].HeaderPath)
	assert.Contains(t, chunks[1].RawContent, "### C")
	assert.Contains(t, chunks[1].RawContent, "deeper")
}

func TestSplit_CodeBlockHashIsNotHeading(t *testing.T) {
	input := "# Script\n\n```bash\n# not a heading\necho hi\n```\n"

	chunks, err := NewChunker(words{}, 0, -1).Split("doc.md", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].RawContent, "# not a heading")
}

func TestSplit_PlainTextIgnoresMarkdown(t *testing.T) {
	input := "# looks like a heading\n\nbut this is a .txt file\n"

	chunks, err := NewChunker(words{}, 0, -1).Split("notes.txt", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].HeaderPath)
	assert.Equal(t, strings.TrimSpace(input), chunks[0].Content)
}

func TestSplit_EmptyDocument(t *testing.T) {
	chunks, err := NewChunker(words{}, 0, -1).Split("empty.md", []byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_WindowsWithOverlap(t *testing.T) {
	var lines []string
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf("line%d word", i))
	}
	input := strings.Join(lines, "\n")

	chunks, err := NewChunker(words{}, 10, 3).Split("log.txt", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 8)

	for i, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 10)
		if i == 0 {
			continue
		}
		prev := strings.Split(chunks[i-1].Content, "\n")
		cur := strings.Split(c.Content, "\n")
		assert.Equal(t, prev[len(prev)-1], cur[0], "window %d should start with the previous window's last line", i)
	}
	assert.True(t, strings.HasPrefix(chunks[0].Content, "line1 word"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Content, "line30 word"))
}

func TestSplit_LongLineIsBroken(t *testing.T) {
	var ws []string
	for i := 0; i < 12; i++ {
		ws = append(ws, fmt.Sprintf("w%d", i))
	}
	input := strings.Join(ws, " ")

	chunks, err := NewChunker(words{}, 5, 0).Split("one-line.txt", []byte(input))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	var rebuilt []string
	for _, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 5)
		rebuilt = append(rebuilt, strings.Fields(c.Content)...)
	}
	assert.Equal(t, ws, rebuilt)
}

func TestSplit_HeaderPathCountsAgainstBudget(t *testing.T) {
	body := strings.Repeat("alpha beta gamma\n", 20)
	input := "# Title\n\n" + body

	chunks, err := NewChunker(words{}, 12, 0).Split("doc.md", []byte(input))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "# Title", c.HeaderPath)
		assert.LessOrEqual(t, c.Tokens, 12)
	}
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("README.md"))
	assert.True(t, IsMarkdown("a/b.MARKDOWN"))
	assert.False(t, IsMarkdown("notes.txt"))
	assert.False(t, IsMarkdown("md"))
}

func TestFormatHeaderPath(t *testing.T) {
	assert.Equal(t, "# Installation > ## Prerequisites", formatHeaderPath([]string{"Installation", "Prerequisites"}))
	assert.Equal(t, "", formatHeaderPath(nil))
}
