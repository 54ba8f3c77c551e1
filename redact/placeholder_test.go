package redact

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	for _, length := range []int{1, 4, 16, 200} {
		p, err := a.Allocate(length)
		require.NoError(t, err)
		assert.Len(t, p, length)
		for _, r := range p {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected character %q", r)
		}
	}
	assert.Equal(t, 4, a.Issued())
}

func TestAllocateInvalidLength(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})
	_, err := a.Allocate(0)
	assert.ErrorIs(t, err, ErrPlaceholderExhausted)
}

func TestAllocateExhausted(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	seen := make(map[string]struct{})
	for i := 0; i < len(Alphabet); i++ {
		p, err := a.Allocate(1)
		require.NoError(t, err)
		seen[p] = struct{}{}
	}
	assert.Len(t, seen, len(Alphabet))

	_, err := a.Allocate(1)
	require.Error(t, err)
	assert.Equal(t, KindPlaceholderExhausted, KindOf(err))

	// Other lengths are unaffected.
	_, err = a.Allocate(2)
	assert.NoError(t, err)
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	const workers = 16
	const perWorker = 150
	results := make([][]string, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Length 2 has only 3844 values, so collisions between workers are certain to be attempted.
				p, err := a.Allocate(2)
				if err != nil {
					t.Errorf("allocate: %v", err)
					return
				}
				results[w] = append(results[w], p)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for _, ps := range results {
		for _, p := range ps {
			_, dup := seen[p]
			assert.False(t, dup, "placeholder %q issued twice", p)
			seen[p] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, a.Issued())
}

func TestAssign(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	first, err := a.Assign("Test")
	require.NoError(t, err)
	again, err := a.Assign("Test")
	require.NoError(t, err)
	upper, err := a.Assign("TEST")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, upper)
	assert.Len(t, first, 4)
	assert.Len(t, upper, 4)
	assert.Equal(t, 2, a.Issued())
}

func TestAssignByteLength(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})
	p, err := a.Assign("日本")
	require.NoError(t, err)
	assert.Len(t, p, len("日本"))
}

func TestAssignConcurrent(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	const workers = 8
	got := make([]string, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p, err := a.Assign("shared")
			if err != nil {
				t.Errorf("assign: %v", err)
				return
			}
			got[w] = p
		}(w)
	}
	wg.Wait()

	for _, p := range got {
		assert.Equal(t, got[0], p)
	}
	assert.Equal(t, 1, a.Issued())
}

func TestAllocateAvoidsPatterns(t *testing.T) {
	// Every single character but "z" matches a pattern, so "z" and "Z" are the only possible placeholders.
	var substrings []string
	for _, r := range strings.ToLower(Alphabet) {
		if r != 'z' {
			substrings = append(substrings, string(r))
		}
	}
	ps, err := NewPatternSet(substrings)
	require.NoError(t, err)

	a := NewAllocator(AllocatorOptions{Patterns: ps})
	p, err := a.Allocate(1)
	require.NoError(t, err)
	assert.Contains(t, []string{"z", "Z"}, p)
}

func TestAllocateAvoidsSource(t *testing.T) {
	// The source holds every character but "q". Without source checks "q" would be picked 1 time in 62; with them
	// it is picked whenever one of the first sourceCheckAttempts candidates is "q", about 40% of the time.
	source := []byte(strings.ReplaceAll(Alphabet, "q", ""))

	const runs = 200
	picked := 0
	for i := 0; i < runs; i++ {
		a := NewAllocator(AllocatorOptions{Source: source})
		p, err := a.Allocate(1)
		require.NoError(t, err)
		if p == "q" {
			picked++
		}
	}
	assert.Greater(t, picked, runs/10)
}

func TestAllocateLongWithSingleCharacterPattern(t *testing.T) {
	ps, err := NewPatternSet([]string{"e", "q1"})
	require.NoError(t, err)
	a := NewAllocator(AllocatorOptions{Patterns: ps})

	for i := 0; i < 20; i++ {
		p, err := a.Allocate(1000)
		require.NoError(t, err)
		assert.Len(t, p, 1000)
		assert.False(t, ps.re.MatchString(p), "placeholder matches a pattern")
	}
}

func TestAllocateNoCharactersLeft(t *testing.T) {
	substrings := make([]string, 0, len(Alphabet))
	for _, r := range strings.ToLower(Alphabet) {
		substrings = append(substrings, string(r))
	}
	ps, err := NewPatternSet(substrings)
	require.NoError(t, err)

	a := NewAllocator(AllocatorOptions{Patterns: ps})
	_, err = a.Allocate(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlaceholderExhausted)
}

func TestReassign(t *testing.T) {
	a := NewAllocator(AllocatorOptions{})

	first, err := a.Assign("secret")
	require.NoError(t, err)
	second, err := a.Reassign("secret")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, second, len("secret"))

	again, err := a.Assign("secret")
	require.NoError(t, err)
	assert.Equal(t, second, again)

	// The replaced placeholder stays issued.
	assert.Equal(t, 2, a.Issued())
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 62, capacity(1, 62))
	assert.Equal(t, 62*62, capacity(2, 62))
	assert.Equal(t, 60*60, capacity(2, 60))
	assert.Equal(t, int(^uint(0)>>1), capacity(64, 62))
}
