package redact

import (
	"context"
	"regexp"
	"sort"
	"sync"
)

// Verify checks redacted chunks, as returned by Process, against their merged mapping m. The redacted output must not
// match any substring, and scanning it for placeholders the way an Unredactor does must find exactly the replaced
// spans. Verify returns, sorted, the originals whose placeholders break either rule.
func (r *Redactor) Verify(ctx context.Context, results []ChunkResult, m Mapping) ([]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	inverse, err := m.Invert()
	if err != nil {
		return nil, err
	}
	re, err := placeholderRegexp(inverse.Keys())
	if err != nil {
		return nil, newError(KindInconsistentMapping, err, "unable to compile placeholders")
	}

	chunks := make([]Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}

	var mu sync.Mutex
	conflicts := make(map[string]struct{})
	err = runChunks(ctx, r.opts.Workers, chunks, func(_ context.Context, i int, _ Chunk) error {
		found, err := r.verifyChunk(results, i, re, inverse)
		if err != nil {
			return err
		}
		mu.Lock()
		for original := range found {
			conflicts[original] = struct{}{}
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(conflicts))
	for original := range conflicts {
		out = append(out, original)
	}
	sort.Strings(out)
	if len(out) > 0 {
		r.log.Trace("placeholders conflict with the surrounding text", "originals", len(out))
	}
	return out, nil
}

// verifyChunk checks the matches that start in chunk i. The following chunks are appended as far as such a match
// could reach, so matches spanning a chunk boundary are found too.
func (r *Redactor) verifyChunk(results []ChunkResult, i int, placeholders *regexp.Regexp, inverse Mapping) (map[string]struct{}, error) {
	res := results[i]
	head := res.Data
	window := head
	spans := res.Spans
	if reach := r.patterns.MaxMatchLen(); i+1 < len(results) && reach > 0 {
		window = append([]byte(nil), head...)
		spans = append([]Match(nil), spans...)
		for j := i + 1; j < len(results) && len(window)-len(head) < reach; j++ {
			off := len(window)
			window = append(window, results[j].Data...)
			for _, s := range results[j].Spans {
				spans = append(spans, Match{Start: s.Start + off, End: s.End + off, Text: s.Text})
			}
		}
	}

	conflicts := make(map[string]struct{})
	// overlap marks the originals of every span overlapping [start, end) and reports how many there were.
	overlap := func(start, end int) int {
		n := 0
		for _, s := range spans {
			if s.Start >= end {
				break
			}
			if s.End > start {
				conflicts[s.Text] = struct{}{}
				n++
			}
		}
		return n
	}

	// Every match left in the output was formed by a placeholder and its neighbours.
	for leak := range r.patterns.Matches(window) {
		if leak.Start >= len(head) {
			break
		}
		if overlap(leak.Start, leak.End) == 0 {
			return nil, newError(KindInconsistentMapping, nil, "redacted output matches a substring outside any placeholder, index=%d, offset=%d", res.Chunk.Index, res.Chunk.Start+leak.Start)
		}
	}

	at := make(map[int]int, len(spans))
	for k, s := range spans {
		at[s.Start] = k
	}
	found := make([]bool, len(res.Spans))
	for _, loc := range placeholders.FindAllIndex(window, -1) {
		if loc[0] >= len(head) {
			break
		}
		if k, ok := at[loc[0]]; ok && spans[k].End == loc[1] {
			if k < len(found) {
				found[k] = true
			}
			continue
		}
		// Unredaction would rewrite text that was never replaced here, or restore the wrong span.
		conflicts[inverse[string(window[loc[0]:loc[1]])]] = struct{}{}
		overlap(loc[0], loc[1])
	}
	for k, s := range res.Spans {
		if !found[k] {
			conflicts[s.Text] = struct{}{}
		}
	}
	return conflicts, nil
}
