package redactor

import (
	"context"
	"io"

	"github.com/hashicorp/hcredact/redact"
)

var _ Redactor = &SubstringRedactor{}

// SubstringRedactor replaces every configured substring in its input with a placeholder of the same length.
type SubstringRedactor struct {
	r *redact.Redactor
}

func NewSubstringRedactor(patterns *redact.PatternSet, opts redact.Options) SubstringRedactor {
	return SubstringRedactor{r: redact.NewRedactor(patterns, opts)}
}

// Redact reads all of in, redacts it, and streams the result. The mapping is available from the returned reader's
// Mapping method; a redaction failure is reported both there and as the reader's error.
func (s SubstringRedactor) Redact(in io.Reader) (RedactedReader, error) {
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

		redacted, m, err := s.r.RedactBytes(context.Background(), content)
		rr.result.finish(m, err)
		if err != nil {
			_ = w.CloseWithError(err)
			return
		}
		_, err = w.Write(redacted)
		_ = w.CloseWithError(err)
	}()

	return rr, nil
}
