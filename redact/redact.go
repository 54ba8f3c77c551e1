// Package redact reversibly replaces configured substrings in text with random placeholders of the same length.
//
// Content is split into chunks whose boundaries never split a UTF-8 sequence or a match, chunks are processed
// concurrently by a bounded worker pool, and a single Allocator shared by every worker guarantees that no two
// originals ever receive the same placeholder. The resulting Mapping reverses the operation through an Unredactor.
package redact

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
)

// Options tune how content is chunked and processed.
type Options struct {
	// ChunkSize is the target chunk size in bytes. Values <= 0 use DefaultChunkSize.
	ChunkSize int

	// Workers is the number of chunks processed concurrently. Values < 1 mean a single worker.
	Workers int

	Logger hclog.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	return o
}

// maxRounds bounds how often a redaction is redone with fresh placeholders after verification found a conflict.
const maxRounds = 8

// ChunkResult is the outcome of redacting a single chunk.
type ChunkResult struct {
	Chunk Chunk

	// Data is the redacted chunk.
	Data []byte

	// Mapping holds the entries for the originals found in this chunk.
	Mapping Mapping

	// Spans lists the replaced matches, relative to the chunk, with the original text. Placeholders have the byte
	// length of the text they replace, so the same offsets locate them in Data.
	Spans []Match
}

// Redactor applies a PatternSet to content.
type Redactor struct {
	patterns *PatternSet
	opts     Options
	log      hclog.Logger
}

// NewRedactor returns a Redactor for patterns.
func NewRedactor(patterns *PatternSet, opts Options) *Redactor {
	opts = opts.withDefaults()
	return &Redactor{
		patterns: patterns,
		opts:     opts,
		log:      opts.Logger,
	}
}

// Patterns returns the PatternSet the Redactor applies.
func (r *Redactor) Patterns() *PatternSet {
	return r.patterns
}

// Plan splits content into redaction chunks.
func (r *Redactor) Plan(content []byte) []Chunk {
	return PlanRedaction(content, r.opts.ChunkSize, r.patterns)
}

// Redact redacts content, writing the result to w at the same offsets it was read from, and returns the merged
// mapping. Placeholders have the byte length of the text they replace, so the output is exactly len(content) bytes.
// Nothing is written until the whole output has been verified. On error, w may hold partial output and must be
// discarded.
func (r *Redactor) Redact(ctx context.Context, content []byte, w io.WriterAt) (Mapping, error) {
	chunks := r.Plan(content)
	results, m, err := r.redact(ctx, content, chunks)
	if err != nil {
		return nil, err
	}

	err = runChunks(ctx, r.opts.Workers, chunks, func(_ context.Context, i int, c Chunk) error {
		_, err := w.WriteAt(results[i].Data, int64(c.Start))
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RedactBytes redacts content in memory and returns the redacted copy along with the mapping.
func (r *Redactor) RedactBytes(ctx context.Context, content []byte) ([]byte, Mapping, error) {
	results, m, err := r.redact(ctx, content, r.Plan(content))
	if err != nil {
		return nil, nil, err
	}

	out := make([]byte, 0, len(content))
	for _, res := range results {
		out = append(out, res.Data...)
	}
	return out, m, nil
}

// redact processes chunks and verifies the result. Originals whose placeholders conflict with the text around them
// are given fresh placeholders and every chunk is redone, for at most maxRounds rounds.
func (r *Redactor) redact(ctx context.Context, content []byte, chunks []Chunk) ([]ChunkResult, Mapping, error) {
	r.log.Debug("redacting content", "bytes", len(content), "chunks", len(chunks), "workers", r.opts.Workers)
	alloc := r.newAllocator(content)

	for round := 1; ; round++ {
		results, err := r.Process(ctx, content, chunks, alloc)
		if err != nil {
			return nil, nil, err
		}
		m, err := mergeResults(results)
		if err != nil {
			return nil, nil, err
		}
		conflicts, err := r.Verify(ctx, results, m)
		if err != nil {
			return nil, nil, err
		}
		if len(conflicts) == 0 {
			return results, m, nil
		}
		if round == maxRounds {
			return nil, nil, newError(KindPlaceholderExhausted, nil, "placeholders keep conflicting with the surrounding text, originals=%d, rounds=%d", len(conflicts), round)
		}

		r.log.Debug("reassigning placeholders", "round", round, "originals", len(conflicts))
		for _, original := range conflicts {
			if _, err := alloc.Reassign(original); err != nil {
				return nil, nil, err
			}
		}
	}
}

// Process redacts every chunk on the worker pool. The returned results are index-aligned with chunks, regardless of
// the order in which the chunks completed.
func (r *Redactor) Process(ctx context.Context, content []byte, chunks []Chunk, alloc *Allocator) ([]ChunkResult, error) {
	results := make([]ChunkResult, len(chunks))
	err := runChunks(ctx, r.opts.Workers, chunks, func(_ context.Context, i int, c Chunk) error {
		res, err := r.redactChunk(content, c, alloc)
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		r.log.Error("redaction failed", "error", err)
		return nil, err
	}
	return results, nil
}

func (r *Redactor) newAllocator(content []byte) *Allocator {
	return NewAllocator(AllocatorOptions{
		Patterns: r.patterns,
		Source:   content,
		Logger:   r.log.Named("allocator"),
	})
}

func (r *Redactor) redactChunk(content []byte, c Chunk, alloc *Allocator) (ChunkResult, error) {
	text := c.Bytes(content)
	if off := invalidUTF8(text); off >= 0 {
		return ChunkResult{}, newError(KindEncoding, nil, "chunk is not valid UTF-8, index=%d, offset=%d", c.Index, c.Start+off)
	}

	out := make([]byte, len(text))
	copy(out, text)
	partial := make(Mapping)
	var spans []Match
	for m := range r.patterns.Matches(text) {
		p, ok := partial[m.Text]
		if !ok {
			var err error
			p, err = alloc.Assign(m.Text)
			if err != nil {
				return ChunkResult{}, err
			}
			partial[m.Text] = p
		}
		copy(out[m.Start:m.End], p)
		spans = append(spans, m)
	}

	r.log.Trace("redacted chunk", "index", c.Index, "start", c.Start, "end", c.End, "originals", len(partial))
	return ChunkResult{Chunk: c, Data: out, Mapping: partial, Spans: spans}, nil
}

func mergeResults(results []ChunkResult) (Mapping, error) {
	partials := make([]Mapping, len(results))
	for i, res := range results {
		partials[i] = res.Mapping
	}
	return Merge(partials)
}

// invalidUTF8 returns the offset of the first byte of b that is not part of a valid UTF-8 sequence, or -1.
func invalidUTF8(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
