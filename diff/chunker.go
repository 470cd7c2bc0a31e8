package diff

import (
	"strings"
)

// Chunk is an ordered run of sections concatenated into one transmittable
// unit. Concatenating all chunks' Text, in order, reproduces the input diff.
type Chunk struct {
	Sections  []Section
	Text      string
	SizeBytes int
	Index     int
	Total     int
}

// Paths returns the file paths covered by this chunk, in order.
func (c *Chunk) Paths() []string {
	return Paths(c.Sections)
}

// ChunkDiff splits a diff into chunks no larger than maxBytes.
//
// A diff that fits within maxBytes passes through as a single chunk, which
// also lets zero-file diffs (pure metadata) through whole. Larger diffs are
// packed greedily along section boundaries. A single section bigger than
// maxBytes is emitted alone as an oversized chunk rather than split, since
// truncating it would corrupt line numbers. A diff with no recognizable
// headers that still exceeds maxBytes degrades to one oversized chunk.
func ChunkDiff(diffText string, maxBytes int) []Chunk {
	if diffText == "" {
		return nil
	}

	if len(diffText) <= maxBytes {
		return finalize([]Chunk{{
			Sections:  Segment(diffText),
			Text:      diffText,
			SizeBytes: len(diffText),
		}})
	}

	prefix, sections := segment(diffText)
	if len(sections) == 0 {
		// No section boundaries to split on; whole-text fallback.
		return finalize([]Chunk{{
			Text:      diffText,
			SizeBytes: len(diffText),
		}})
	}

	// Text before the first header is packed as its own pathless piece so
	// the size bound holds for every chunk and concatenation stays lossless.
	pieces := sections
	if prefix != "" {
		pieces = append([]Section{{Raw: prefix}}, sections...)
	}

	var chunks []Chunk
	var current []Section
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, newChunk(current))
			current = nil
			currentSize = 0
		}
	}

	for _, s := range pieces {
		size := len(s.Raw)

		// Oversized section gets its own chunk, never split or dropped.
		if size > maxBytes {
			flush()
			chunks = append(chunks, newChunk([]Section{s}))
			continue
		}

		if currentSize+size > maxBytes && len(current) > 0 {
			flush()
		}

		current = append(current, s)
		currentSize += size
	}
	flush()

	return finalize(chunks)
}

func newChunk(pieces []Section) Chunk {
	var builder strings.Builder
	var sections []Section
	for _, s := range pieces {
		builder.WriteString(s.Raw)
		// The preamble piece carries no path and is not a file section.
		if s.Path != "" {
			sections = append(sections, s)
		}
	}
	text := builder.String()
	return Chunk{
		Sections:  sections,
		Text:      text,
		SizeBytes: len(text),
	}
}

func finalize(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Total = len(chunks)
	}
	return chunks
}
