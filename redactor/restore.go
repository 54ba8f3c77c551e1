package redactor

import (
	"context"
	"io"

	"github.com/hashicorp/hcredact/redact"
)

var _ Redactor = &MappingRestorer{}

// MappingRestorer reverses a SubstringRedactor: it replaces the placeholders of a mapping with their original text.
type MappingRestorer struct {
	u *redact.Unredactor
	m redact.Mapping
}

func NewMappingRestorer(m redact.Mapping, opts redact.Options) (MappingRestorer, error) {
	u, err := redact.NewUnredactor(m, opts)
	if err != nil {
		return MappingRestorer{}, err
	}
	return MappingRestorer{u: u, m: m}, nil
}

// Redact reads all of in and streams it back with every placeholder restored.
func (mr MappingRestorer) Redact(in io.Reader) (RedactedReader, error) {
	r, w := io.Pipe()
	rr := RedactedReader{
		reader: r,
		result: newResult(),
	}
	go func() {
		content, err := io.ReadAll(in)
		if err != nil {
			rr.result.finish(nil, err)
			_ = w.CloseWithError(err)
			return
		}

		restored, err := mr.u.UnredactBytes(context.Background(), content)
		rr.result.finish(mr.m, err)
		if err != nil {
			_ = w.CloseWithError(err)
			return
		}
		_, err = w.Write(restored)
		_ = w.CloseWithError(err)
	}()

	return rr, nil
}
