package redact

import (
	"bytes"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Alphabet is the set of characters placeholders are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// maxAttempts bounds how many candidates are generated for one placeholder before giving up.
	maxAttempts = 4096

	// sourceCheckMaxLen is the longest placeholder that is checked against the source content. Longer random
	// strings are vanishingly unlikely to occur in it by chance.
	sourceCheckMaxLen = 8

	// sourceCheckAttempts is how many candidates may be rejected for occurring in the source before the allocator
	// settles for a candidate that is only globally unique.
	sourceCheckAttempts = 32

	// maxRepairs bounds, on top of the candidate length, how often pattern matches inside one candidate are redrawn.
	maxRepairs = 64
)

// AllocatorOptions configures an Allocator.
type AllocatorOptions struct {
	// Patterns, when set, keeps candidates from matching a configured substring. Characters that match a substring
	// on their own are left out of the alphabet.
	Patterns *PatternSet

	// Source, when set, is the content being redacted; short candidates that already occur in it are avoided so
	// that unredaction does not rewrite text that was never a placeholder.
	Source []byte

	Logger hclog.Logger
}

// Allocator hands out random, fixed-length placeholders that are unique for its whole lifetime. One Allocator is
// shared by every worker of a redact operation; all of its state is guarded by a single mutex.
type Allocator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	issued   map[string]struct{}
	assigned map[string]string
	perLen   map[int]int
	alphabet []byte

	patterns *PatternSet
	source   []byte
	log      hclog.Logger
}

// NewAllocator returns an Allocator seeded from crypto/rand.
func NewAllocator(opts AllocatorOptions) *Allocator {
	l := opts.Logger
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Allocator{
		rng:      rand.New(rand.NewChaCha8(newSeed())),
		issued:   make(map[string]struct{}),
		assigned: make(map[string]string),
		perLen:   make(map[int]int),
		alphabet: alphabetFor(opts.Patterns),
		patterns: opts.Patterns,
		source:   opts.Source,
		log:      l,
	}
}

// alphabetFor returns the characters of Alphabet that do not match p by themselves.
func alphabetFor(p *PatternSet) []byte {
	if p == nil {
		return []byte(Alphabet)
	}
	out := make([]byte, 0, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		if !p.re.Match([]byte{Alphabet[i]}) {
			out = append(out, Alphabet[i])
		}
	}
	return out
}

func newSeed() [32]byte {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		for i := 0; i < len(seed); i += 8 {
			binary.LittleEndian.PutUint64(seed[i:], rand.Uint64())
		}
	}
	return seed
}

// Allocate returns a placeholder of exactly length characters that no earlier call returned.
func (a *Allocator) Allocate(length int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocate(length)
}

// Assign returns the placeholder for original, allocating one of len(original) bytes the first time original is
// seen. Keys are case-sensitive, so "Test" and "TEST" receive independent placeholders.
func (a *Allocator) Assign(original string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.assigned[original]; ok {
		return p, nil
	}
	p, err := a.allocate(len(original))
	if err != nil {
		return "", err
	}
	a.assigned[original] = p
	return p, nil
}

// Reassign gives original a fresh placeholder in place of the one it was assigned. The replaced placeholder stays
// issued and is never handed out again.
func (a *Allocator) Reassign(original string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := a.allocate(len(original))
	if err != nil {
		return "", err
	}
	a.assigned[original] = p
	return p, nil
}

// Issued returns the number of placeholders handed out so far.
func (a *Allocator) Issued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.issued)
}

// allocate must be called with a.mu held.
func (a *Allocator) allocate(length int) (string, error) {
	if length <= 0 {
		return "", newError(KindPlaceholderExhausted, nil, "invalid placeholder length, length=%d", length)
	}
	if len(a.alphabet) == 0 {
		return "", newError(KindPlaceholderExhausted, nil, "every placeholder character matches a substring, length=%d", length)
	}
	if a.perLen[length] >= capacity(length, len(a.alphabet)) {
		return "", newError(KindPlaceholderExhausted, nil, "all placeholders issued, length=%d", length)
	}

	buf := make([]byte, length)
	sourceRejects := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		for i := range buf {
			buf[i] = a.draw()
		}
		if !a.repair(buf) {
			continue
		}
		if _, taken := a.issued[string(buf)]; taken {
			continue
		}
		if length <= sourceCheckMaxLen && sourceRejects < sourceCheckAttempts && bytes.Contains(a.source, buf) {
			sourceRejects++
			if sourceRejects == sourceCheckAttempts {
				a.log.Debug("placeholder also occurs in the source text", "length", length)
			}
			continue
		}

		p := string(buf)
		a.issued[p] = struct{}{}
		a.perLen[length]++
		return p, nil
	}
	return "", newError(KindPlaceholderExhausted, nil, "no free placeholder found, length=%d, attempts=%d", length, maxAttempts)
}

func (a *Allocator) draw() byte {
	return a.alphabet[a.rng.IntN(len(a.alphabet))]
}

// repair redraws the characters of every pattern match inside buf, so that a long candidate is not thrown away for
// one bad spot. It reports false if matches keep reappearing.
func (a *Allocator) repair(buf []byte) bool {
	if a.patterns == nil {
		return true
	}
	for i := 0; i < len(buf)+maxRepairs; i++ {
		loc := a.patterns.re.FindIndex(buf)
		if loc == nil {
			return true
		}
		for j := loc[0]; j < loc[1]; j++ {
			buf[j] = a.draw()
		}
	}
	return false
}

// capacity is the number of distinct placeholders of the given length over an alphabet of size characters,
// saturating at math.MaxInt.
func capacity(length, size int) int {
	n := 1
	for i := 0; i < length; i++ {
		if n > math.MaxInt/size {
			return math.MaxInt
		}
		n *= size
	}
	return n
}
