package redact

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// Mapping associates original text, exactly as matched, with its placeholder. An inverted Mapping associates
// placeholders with original text.
type Mapping map[string]string

// Merge combines per-chunk mappings, in chunk order, into one Mapping. The same original carrying two different
// placeholders means the allocator was not shared between workers; it is reported rather than resolved.
func Merge(partials []Mapping) (Mapping, error) {
	merged := make(Mapping)
	for i, partial := range partials {
		for original, placeholder := range partial {
			if existing, ok := merged[original]; ok && existing != placeholder {
				return nil, newError(KindInconsistentMapping, nil, "original has more than one placeholder, chunk=%d", i)
			}
			merged[original] = placeholder
		}
	}
	return merged, nil
}

// Invert swaps keys and values. Two originals sharing a placeholder make the inverse ambiguous and are reported.
func (m Mapping) Invert() (Mapping, error) {
	inverse := make(Mapping, len(m))
	for original, placeholder := range m {
		if other, ok := inverse[placeholder]; ok && other != original {
			return nil, newError(KindAmbiguousMapping, nil, "placeholder is shared by more than one original, length=%d", len(placeholder))
		}
		inverse[placeholder] = original
	}
	return inverse, nil
}

// Keys returns the mapping's keys, sorted.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode writes m to w as a JSON object. HTML escaping is disabled so keys are stored as written.
func (m Mapping) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(map[string]string(m))
}

// Decode reads a Mapping from a JSON object of strings.
func Decode(r io.Reader) (Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindDictionaryLoad, err, "unable to read mapping")
	}
	return decode(data)
}

func decode(data []byte) (Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newError(KindDictionaryLoad, nil, "mapping is empty")
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, newError(KindDictionaryLoad, err, "mapping is not a JSON object of strings")
	}
	if m == nil {
		return nil, newError(KindDictionaryLoad, nil, "mapping is not a JSON object of strings")
	}
	for original, placeholder := range m {
		if original == "" || placeholder == "" {
			return nil, newError(KindDictionaryLoad, nil, "mapping contains an empty key or value")
		}
	}
	return m, nil
}

// Save writes m to path.
func Save(m Mapping, path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// Load reads the Mapping stored at path. Every failure is a KindDictionaryLoad error; the underlying filesystem error
// stays reachable through errors.Is and errors.As.
func Load(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindDictionaryLoad, err, "unable to read mapping file, path=%s", path)
	}
	m, err := decode(data)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Msg += ", path=" + path
		}
		return nil, err
	}
	return m, nil
}
