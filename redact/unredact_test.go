package redact

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnredactorErrors(t *testing.T) {
	testTable := []struct {
		name    string
		mapping Mapping
		is      error
	}{
		{name: "nil mapping", mapping: nil, is: ErrEmptyMapping},
		{name: "empty mapping", mapping: Mapping{}, is: ErrEmptyMapping},
		{name: "shared placeholder", mapping: Mapping{"a": "X", "b": "X"}, is: ErrAmbiguousMapping},
		{name: "empty placeholder", mapping: Mapping{"a": ""}, is: ErrDictionaryLoad},
	}

	for _, tc := range testTable {
		t.Run(tc.name, func(t *testing.T) {
			u, err := NewUnredactor(tc.mapping, Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)
			assert.Nil(t, u)
		})
	}
}

func TestUnredact(t *testing.T) {
	testTable := []struct {
		name    string
		mapping Mapping
		input   string
		expect  string
		opts    Options
	}{
		{
			name:    "restores every placeholder",
			mapping: Mapping{"test": "Ab1Z", "Test": "q9Rt"},
			input:   "q9Rt and Ab1Z, Ab1Z again\n",
			expect:  "Test and test, test again\n",
		},
		{
			name:    "unknown text is left alone",
			mapping: Mapping{"test": "Ab1Z"},
			input:   "ab1z AB1Z Ab1 nothing\n",
			expect:  "ab1z AB1Z Ab1 nothing\n",
		},
		{
			name:    "longest placeholder wins",
			mapping: Mapping{"ab": "XY", "abcd": "XYZW"},
			input:   "XYZW XY\n",
			expect:  "abcd ab\n",
		},
		{
			name:    "placeholders that are not length preserving",
			mapping: Mapping{"secret": "S1", "x": "LONGPLACEHOLDER"},
			input:   "a S1 b\nLONGPLACEHOLDER c S1\nend\n",
			expect:  "a secret b\nx c secret\nend\n",
			opts:    Options{ChunkSize: 2, Workers: 3},
		},
		{
			name:    "placeholder spanning lines",
			mapping: Mapping{"one two": "ab\ncd"},
			input:   "x ab\ncd y\nab\ncd\n",
			expect:  "x one two y\none two\n",
			opts:    Options{ChunkSize: 1, Workers: 2},
		},
		{
			name:    "many chunks",
			mapping: Mapping{"secret": "Q1w2E3"},
			input:   strings.Repeat("the Q1w2E3 line\n", 100),
			expect:  strings.Repeat("the secret line\n", 100),
			opts:    Options{ChunkSize: 10, Workers: 4},
		},
	}

	for _, tc := range testTable {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			u, err := NewUnredactor(tc.mapping, tc.opts)
			require.NoError(t, err)

			got, err := u.UnredactBytes(ctx, []byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expect, string(got))

			w := &writerAt{}
			require.NoError(t, u.Unredact(ctx, []byte(tc.input), w))
			assert.Equal(t, tc.expect, string(w.buf))
		})
	}
}

func TestUnredactPlan(t *testing.T) {
	u, err := NewUnredactor(Mapping{"secret": "Q1w2E3"}, Options{ChunkSize: 3})
	require.NoError(t, err)
	assert.Len(t, u.Plan([]byte("aaaa\nbbbb\ncccc\n")), 3)

	multi, err := NewUnredactor(Mapping{"one two": "ab\ncd"}, Options{ChunkSize: 3})
	require.NoError(t, err)
	assert.Len(t, multi.Plan([]byte("aaaa\nbbbb\ncccc\n")), 1)
}

func TestUnredactInvalidUTF8(t *testing.T) {
	u, err := NewUnredactor(Mapping{"test": "Ab1Z"}, Options{})
	require.NoError(t, err)
	_, err = u.UnredactBytes(context.Background(), []byte("Ab1Z \xff\n"))
	assert.ErrorIs(t, err, ErrEncoding)
}
