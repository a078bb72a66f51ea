package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"pharmarag/internal/domain"
)

// MarkdownChunker splits a leaflet markdown file into chunks along its
// heading structure: the first h1 names the document, every h2 opens a
// section, and oversized sections are cut into multiple indexed chunks.
type MarkdownChunker struct {
	maxChars int
}

// NewMarkdownChunker creates a chunker; non-positive maxChars defaults
// to 2000.
func NewMarkdownChunker(maxChars int) *MarkdownChunker {
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &MarkdownChunker{maxChars: maxChars}
}

// Chunk parses content into ordered chunks. The source path is carried on
// every chunk. Returns nil when the file has no h1 heading and no content.
func (c *MarkdownChunker) Chunk(source, content string) ([]domain.Chunk, error) {
	lines := strings.Split(content, "\n")

	name := ""
	section := ""
	var body strings.Builder
	var chunks []domain.Chunk
	sectionIndex := 0

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if text == "" {
			return
		}
		for _, part := range splitByLength(text, c.maxChars) {
			chunks = append(chunks, domain.Chunk{
				ID:      chunkID(source, name, section, sectionIndex),
				Name:    name,
				Section: section,
				Index:   sectionIndex,
				Source:  source,
				Content: part,
			})
			sectionIndex++
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && name == "":
			name = strings.TrimSpace(trimmed[2:])
		case strings.HasPrefix(trimmed, "## "):
			flush()
			section = strings.TrimSpace(trimmed[3:])
			sectionIndex = 0
		default:
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	if name == "" {
		return nil, fmt.Errorf("no h1 heading found in %s", source)
	}
	return chunks, nil
}

// splitByLength cuts text at paragraph boundaries so no part exceeds max
// bytes; a single oversized paragraph is cut hard, backed up to the nearest
// rune start so multibyte characters stay intact.
func splitByLength(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var parts []string
	var current strings.Builder

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p)+2 > max {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if len(p) > max {
			for len(p) > max {
				cut := max
				for cut > 0 && !utf8.RuneStart(p[cut]) {
					cut--
				}
				if cut == 0 {
					cut = max
				}
				parts = append(parts, p[:cut])
				p = p[cut:]
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func chunkID(source, name, section string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", source, name, section, index)))
	return hex.EncodeToString(sum[:16])
}
