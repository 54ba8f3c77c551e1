package redact

import (
	"context"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Unredactor restores original text from a mapping produced by a Redactor.
type Unredactor struct {
	inverse Mapping
	re      *regexp.Regexp
	opts    Options
	log     hclog.Logger

	// preserving is true when every placeholder has the byte length of its original, which lets workers write
	// straight to the chunk's own offset.
	preserving bool

	// multiline is true when some placeholder contains a newline, in which case line-aligned chunks could split it.
	multiline bool
}

// NewUnredactor builds an Unredactor from a forward mapping (original -> placeholder), as written by redaction.
func NewUnredactor(m Mapping, opts Options) (*Unredactor, error) {
	if len(m) == 0 {
		return nil, newError(KindEmptyMapping, nil, "mapping has no entries, nothing to unredact")
	}
	inverse, err := m.Invert()
	if err != nil {
		return nil, err
	}

	u := &Unredactor{
		inverse:    inverse,
		opts:       opts.withDefaults(),
		preserving: true,
	}
	u.log = u.opts.Logger

	for p, original := range inverse {
		if p == "" {
			return nil, newError(KindDictionaryLoad, nil, "mapping contains an empty placeholder")
		}
		if len(p) != len(original) {
			u.preserving = false
		}
		if strings.IndexByte(p, '\n') >= 0 {
			u.multiline = true
		}
	}
	re, err := placeholderRegexp(inverse.Keys())
	if err != nil {
		return nil, newError(KindDictionaryLoad, err, "unable to compile placeholders")
	}
	u.re = re
	return u, nil
}

// placeholderRegexp compiles placeholders into one case-sensitive alternation. Longer placeholders come first, so one
// that is a prefix of another cannot win at the same position.
func placeholderRegexp(placeholders []string) (*regexp.Regexp, error) {
	sorted := make([]string, len(placeholders))
	copy(sorted, placeholders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	for i, p := range sorted {
		sorted[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile(strings.Join(sorted, "|"))
}

// Plan splits content into line-aligned chunks.
func (u *Unredactor) Plan(content []byte) []Chunk {
	if u.multiline {
		return plan(content, len(content)+1, nil)
	}
	return PlanLines(content, u.opts.ChunkSize)
}

// Unredact restores content and writes it to w. When every placeholder is as long as its original the output has the
// same length as content and workers write to their chunk's offset directly; otherwise the offsets are computed
// once every chunk is done. On error, w may hold partial output and must be discarded.
func (u *Unredactor) Unredact(ctx context.Context, content []byte, w io.WriterAt) error {
	chunks := u.Plan(content)
	u.log.Debug("unredacting content", "bytes", len(content), "chunks", len(chunks), "workers", u.opts.Workers)

	var sink io.WriterAt
	if u.preserving {
		sink = w
	}
	outs, err := u.Process(ctx, content, chunks, sink)
	if err != nil {
		return err
	}
	if u.preserving {
		return nil
	}

	var off int64
	for _, out := range outs {
		if _, err := w.WriteAt(out, off); err != nil {
			return err
		}
		off += int64(len(out))
	}
	return nil
}

// UnredactBytes restores content in memory.
func (u *Unredactor) UnredactBytes(ctx context.Context, content []byte) ([]byte, error) {
	outs, err := u.Process(ctx, content, u.Plan(content), nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(content))
	for _, o := range outs {
		out = append(out, o...)
	}
	return out, nil
}

// Process unredacts every chunk on the worker pool and returns the restored chunks index-aligned with chunks. When
// sink is non-nil, each chunk is written to sink at its start offset and its slot in the result is left nil; this is
// only correct for length-preserving mappings.
func (u *Unredactor) Process(ctx context.Context, content []byte, chunks []Chunk, sink io.WriterAt) ([][]byte, error) {
	outs := make([][]byte, len(chunks))
	err := runChunks(ctx, u.opts.Workers, chunks, func(_ context.Context, i int, c Chunk) error {
		out, err := u.unredactChunk(content, c)
		if err != nil {
			return err
		}
		if sink != nil {
			_, err := sink.WriteAt(out, int64(c.Start))
			return err
		}
		outs[i] = out
		return nil
	})
	if err != nil {
		u.log.Error("unredaction failed", "error", err)
		return nil, err
	}
	return outs, nil
}

func (u *Unredactor) unredactChunk(content []byte, c Chunk) ([]byte, error) {
	text := c.Bytes(content)
	if off := invalidUTF8(text); off >= 0 {
		return nil, newError(KindEncoding, nil, "chunk is not valid UTF-8, index=%d, offset=%d", c.Index, c.Start+off)
	}

	out := make([]byte, 0, len(text))
	last := 0
	restored := 0
	for _, loc := range u.re.FindAllIndex(text, -1) {
		original, ok := u.inverse[string(text[loc[0]:loc[1]])]
		if !ok {
			continue
		}
		out = append(out, text[last:loc[0]]...)
		out = append(out, original...)
		last = loc[1]
		restored++
	}
	out = append(out, text[last:]...)

	u.log.Trace("unredacted chunk", "index", c.Index, "start", c.Start, "end", c.End, "restored", restored)
	return out, nil
}
