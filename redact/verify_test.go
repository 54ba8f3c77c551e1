package redact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processWith redacts content using the placeholders in m instead of random ones.
func processWith(t *testing.T, r *Redactor, content string, m Mapping) []ChunkResult {
	t.Helper()
	a := NewAllocator(AllocatorOptions{})
	for original, p := range m {
		a.assigned[original] = p
		a.issued[p] = struct{}{}
	}
	results, err := r.Process(context.Background(), []byte(content), r.Plan([]byte(content)), a)
	require.NoError(t, err)
	return results
}

func TestVerify(t *testing.T) {
	testTable := []struct {
		name       string
		substrings []string
		chunkSize  int
		content    string
		mapping    Mapping
		expect     []string
	}{
		{
			name:       "no conflicts",
			substrings: []string{"ab"},
			content:    "xx ab\n",
			mapping:    Mapping{"ab": "Q7"},
		},
		{
			name:       "placeholder and next character spell a substring",
			substrings: []string{"ab"},
			content:    "ABb",
			mapping:    Mapping{"AB": "yA"},
			expect:     []string{"AB"},
		},
		{
			name:       "previous character and placeholder spell a substring",
			substrings: []string{"ab"},
			content:    "aAB",
			mapping:    Mapping{"AB": "bQ"},
			expect:     []string{"AB"},
		},
		{
			name:       "substring spelled across a chunk boundary",
			substrings: []string{"a b"},
			chunkSize:  1,
			content:    "a b a b",
			mapping:    Mapping{"a b": "bRa"},
			expect:     []string{"a b"},
		},
		{
			name:       "placeholder occurs in the text",
			substrings: []string{"secret"},
			content:    "K3p9Zq secret\n",
			mapping:    Mapping{"secret": "K3p9Zq"},
			expect:     []string{"secret"},
		},
		{
			name:       "placeholder found across text and another placeholder",
			substrings: []string{"ab"},
			content:    "xab",
			mapping:    Mapping{"ab": "Q7", "cd": "xQ"},
			expect:     []string{"ab", "cd"},
		},
	}

	for _, tc := range testTable {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRedactor(t, Options{ChunkSize: tc.chunkSize, Workers: 2}, tc.substrings...)
			results := processWith(t, r, tc.content, tc.mapping)
			if tc.chunkSize == 1 {
				require.Greater(t, len(results), 1)
			}

			conflicts, err := r.Verify(context.Background(), results, tc.mapping)
			require.NoError(t, err)
			if tc.expect == nil {
				assert.Empty(t, conflicts)
				return
			}
			assert.Equal(t, tc.expect, conflicts)
		})
	}
}

func TestVerifyEmptyMapping(t *testing.T) {
	r := newTestRedactor(t, Options{}, "ab")
	results := processWith(t, r, "nothing\n", nil)
	conflicts, err := r.Verify(context.Background(), results, Mapping{})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
