// backend/internal/seeder/processor.go
package seeder

import (
	"regexp"
	"strings"
)

// ContentProcessor handles text processing and cleanup before chunking
type ContentProcessor struct {
	multiWhitespace *regexp.Regexp
	htmlTags        *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		multiWhitespace: regexp.MustCompile(`[ \t]+`),
		htmlTags:        regexp.MustCompile(`<[^>]*>`),
	}
}

// CleanContent removes markup leftovers and normalizes whitespace
func (cp *ContentProcessor) CleanContent(content string) string {
	content = cp.htmlTags.ReplaceAllString(content, "")
	content = cp.multiWhitespace.ReplaceAllString(content, " ")

	// Collapse runs of blank lines
	lines := strings.Split(content, "\n")
	var cleaned []string
	emptyLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			emptyLines++
			if emptyLines <= 2 {
				cleaned = append(cleaned, "")
			}
		} else {
			emptyLines = 0
			cleaned = append(cleaned, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// Chunker splits cleaned documents into overlapping pieces sized for
// embedding. Overlap keeps sentences that straddle a boundary retrievable
// from both sides.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Chunk splits text into overlapping segments of at most Size runes,
// preferring to break at whitespace near the boundary.
func (ch *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= ch.Size {
		return []string{text}
	}

	var chunks []string
	step := ch.Size - ch.Overlap

	for start := 0; start < len(runes); start += step {
		end := start + ch.Size
		if end > len(runes) {
			end = len(runes)
		}

		// Back off to the last whitespace so words stay intact, unless
		// that would shrink the chunk too aggressively.
		cut := end
		if end < len(runes) {
			for i := end; i > start+step; i-- {
				if isSpace(runes[i-1]) {
					cut = i
					break
				}
			}
		}

		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
