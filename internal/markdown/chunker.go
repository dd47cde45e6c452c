// Package markdown splits ingested documents into embeddable chunks:
// markdown is cut at H1/H2 boundaries with the heading path kept as
// context, and any section larger than the token limit is cut again into
// overlapping windows.
package markdown

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/tokens"
)

// Window sizes, in tokens.
const (
	DefaultMaxTokens     = 4000
	DefaultOverlapTokens = 200
)

// Chunk is one embeddable slice of a document.
type Chunk struct {
	Index      int    // Position in document (0, 1, 2...)
	HeaderPath string // "# Doc Title > ## Section Name", empty for plain text
	Content    string // RawContent with HeaderPath prepended
	RawContent string
	Tokens     int // token count of Content
}

// Chunker splits documents into chunks no larger than maxTokens.
type Chunker struct {
	parser    goldmark.Markdown
	tok       tokens.Tokenizer
	maxTokens int
	overlap   int
}

// NewChunker creates a chunker. A non-positive maxTokens or a negative
// overlap selects the default; overlap is kept below maxTokens.
func NewChunker(tok tokens.Tokenizer, maxTokens, overlap int) *Chunker {
	if tok == nil {
		tok = tokens.Estimator{}
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlap < 0 {
		overlap = DefaultOverlapTokens
	}
	if overlap >= maxTokens {
		overlap = maxTokens / 2
	}
	return &Chunker{
		parser:    goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID())),
		tok:       tok,
		maxTokens: maxTokens,
		overlap:   overlap,
	}
}

// IsMarkdown reports whether a file name looks like markdown.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return false
}

// Split chunks a document, treating it as markdown when name says so.
func (c *Chunker) Split(name string, source []byte) ([]Chunk, error) {
	var sections []section
	if IsMarkdown(name) {
		var err error
		sections, err = c.sections(source)
		if err != nil {
			return nil, err
		}
	} else {
		sections = []section{{body: strings.TrimSpace(string(source))}}
	}

	var chunks []Chunk
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		budget := c.maxTokens
		if s.path != "" {
			// Leave room for the prepended header path.
			budget = max(1, c.maxTokens-c.tok.Count(s.path+"\n\n"))
		}
		for _, window := range c.windows(s.body, budget) {
			content := window
			if s.path != "" {
				content = fmt.Sprintf("%s\n\n%s", s.path, window)
			}
			chunks = append(chunks, Chunk{
				Index:      len(chunks),
				HeaderPath: s.path,
				Content:    content,
				RawContent: window,
				Tokens:     c.tok.Count(content),
			})
		}
	}
	return chunks, nil
}

type section struct {
	path string
	body string
}

type heading struct {
	path  string
	start int
}

// sections cuts markdown into non-overlapping spans, one per H1/H2 plus
// any preamble before the first heading.
func (c *Chunker) sections(source []byte) ([]section, error) {
	doc := c.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	nodes := headingsByID(doc)
	var heads []heading
	var walk func(items toc.Items, ancestors []string)
	walk = func(items toc.Items, ancestors []string) {
		for _, item := range items {
			path := append(append([]string(nil), ancestors...), string(item.Title))
			if node, ok := nodes[string(item.ID)]; ok && node.Lines().Len() > 0 {
				heads = append(heads, heading{
					path:  formatHeaderPath(path),
					start: lineStart(source, node.Lines().At(0).Start),
				})
			}
			walk(item.Items, path)
		}
	}
	walk(tree.Items, nil)

	if len(heads) == 0 {
		return []section{{body: strings.TrimSpace(string(source))}}, nil
	}
	sort.SliceStable(heads, func(i, j int) bool { return heads[i].start < heads[j].start })

	out := []section{{body: strings.TrimSpace(string(source[:heads[0].start]))}}
	for i, h := range heads {
		end := len(source)
		if i+1 < len(heads) {
			end = heads[i+1].start
		}
		out = append(out, section{path: h.path, body: strings.TrimSpace(string(source[h.start:end]))})
	}
	return out, nil
}

// formatHeaderPath renders ["Install", "Prereqs"] as "# Install > ## Prereqs".
func formatHeaderPath(path []string) string {
	parts := make([]string, len(path))
	for i, segment := range path {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", i+1), segment)
	}
	return strings.Join(parts, " > ")
}

// headingsByID indexes every heading by its auto-generated ID.
func headingsByID(doc ast.Node) map[string]*ast.Heading {
	out := make(map[string]*ast.Heading)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		h := n.(*ast.Heading)
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				out[string(b)] = h
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

// lineStart returns the offset of the first byte of the line holding pos.
func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}
