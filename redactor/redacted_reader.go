package redactor

import (
	"io"

	"github.com/hashicorp/hcredact/redact"
)

var _ io.Reader = &RedactedReader{}

// RedactedReader is the output of a Redactor. Because it implements the io.Reader interface, it can be used as input
// into other redactors, which allows for chaining redactions.
type RedactedReader struct {
	reader io.Reader
	result *result
}

// result is filled in by the goroutine feeding a RedactedReader before any output is written, so waiting on it never
// depends on the reader being drained.
type result struct {
	done    chan struct{}
	mapping redact.Mapping
	err     error
}

func newResult() *result {
	return &result{done: make(chan struct{})}
}

func (r *result) finish(m redact.Mapping, err error) {
	r.mapping = m
	r.err = err
	close(r.done)
}

func (rr RedactedReader) Read(p []byte) (int, error) {
	return rr.reader.Read(p)
}

// Mapping waits until the whole input has been processed and returns the mapping that was produced or applied.
func (rr RedactedReader) Mapping() (redact.Mapping, error) {
	if rr.result == nil {
		return nil, nil
	}
	<-rr.result.done
	return rr.result.mapping, rr.result.err
}
