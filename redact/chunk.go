package redact

import (
	"bytes"
	"strings"
)

// DefaultChunkSize is the target chunk size used when none is configured.
const DefaultChunkSize = 64 * 1024

// Chunk is a half-open byte range [Start, End) of some content. Index is the chunk's position in its plan and is
// what output order is reconstructed from.
type Chunk struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Bytes returns the chunk's view of content. The returned slice aliases content and must not be modified.
func (c Chunk) Bytes(content []byte) []byte {
	return content[c.Start:c.End:c.End]
}

// PlanRedaction splits content into chunks of roughly size bytes for redaction. Every boundary directly follows an
// ASCII whitespace byte, so it never splits a UTF-8 sequence, and no occurrence of any of the patterns crosses it.
// The boundary nearest before the target is preferred; failing that the chunk is extended forward to the next safe
// position, or to the end of content.
func PlanRedaction(content []byte, size int, patterns *PatternSet) []Chunk {
	return plan(content, size, func(start, target int) int {
		safe := func(b int) bool {
			if strings.IndexByte(asciiSpace, content[b-1]) < 0 {
				return false
			}
			return patterns == nil || !patterns.Crosses(content, b)
		}
		for b := target; b > start; b-- {
			if safe(b) {
				return b
			}
		}
		for b := target + 1; b < len(content); b++ {
			if safe(b) {
				return b
			}
		}
		return len(content)
	})
}

// PlanLines splits content into chunks of at least size bytes whose boundaries fall directly after a newline, or at
// the end of content. Placeholders never contain a newline, so no chunk can split one.
func PlanLines(content []byte, size int) []Chunk {
	return plan(content, size, func(_, target int) int {
		if i := bytes.IndexByte(content[target:], '\n'); i >= 0 {
			return target + i + 1
		}
		return len(content)
	})
}

// plan walks content and asks boundary for the end of each chunk whose target end lies before the end of content.
// boundary must return a position in (start, len(content)].
func plan(content []byte, size int, boundary func(start, target int) int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([]Chunk, 0, len(content)/size+1)
	for start := 0; start < len(content); {
		end := len(content)
		if target := start + size; target < len(content) {
			end = boundary(start, target)
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Start: start, End: end})
		start = end
	}
	return chunks
}
