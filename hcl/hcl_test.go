package hcl

import (
	"io/fs"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/hcredact/redact"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		expect Config
	}{
		{
			name:   "Minimal JSON config",
			path:   "../tests/resources/config/config.json",
			expect: Config{Substrings: []string{"test"}, Workers: DefaultWorkers},
		},
		{
			name: "HCL config with every field",
			path: "../tests/resources/config/full.hcl",
			expect: Config{
				Substrings: []string{"test", "John Smith", "a.b"},
				ChunkSize:  1024,
				Workers:    4,
			},
		},
		{
			name: "YAML config with every field",
			path: "../tests/resources/config/full.yaml",
			expect: Config{
				Substrings: []string{"test", "John Smith", "a.b"},
				ChunkSize:  1024,
				Workers:    4,
			},
		},
		{
			name:   "Explicit zero workers is kept for automatic resolution",
			path:   "../tests/resources/config/auto_workers.yml",
			expect: Config{Substrings: []string{"secret"}, Workers: 0},
		},
		{
			name:   "JSON strings are literal and unknown fields are ignored",
			path:   "../tests/resources/config/literal.json",
			expect: Config{Substrings: []string{"${HOME}", "%{ if x }", "tab\there"}, Workers: DefaultWorkers},
		},
		{
			name:   "Unknown extensions are read as JSON",
			path:   "../tests/resources/config/legacy.conf",
			expect: Config{Substrings: []string{"password", "token"}, ChunkSize: 2048, Workers: DefaultWorkers},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, cfg)
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		errMsg string
	}{
		{name: "Missing substrings", path: "../tests/resources/config/missing.json", errMsg: "missing substrings"},
		{name: "Null substrings", path: "../tests/resources/config/null.json", errMsg: "missing substrings"},
		{name: "Empty substrings", path: "../tests/resources/config/empty_list.yaml", errMsg: "missing substrings"},
		{name: "JSON substrings not a list", path: "../tests/resources/config/not_list.json", errMsg: "substrings must be a list"},
		{name: "YAML substrings not a list", path: "../tests/resources/config/not_list.yaml", errMsg: "substrings must be a list"},
		{name: "HCL element not a string", path: "../tests/resources/config/bad_element.hcl", errMsg: "substring 1 must be a string"},
		{name: "YAML element not a string", path: "../tests/resources/config/bad_element.yaml", errMsg: "substring 1 must be a string"},
		{name: "Negative workers", path: "../tests/resources/config/negative_workers.hcl", errMsg: "workers must not be negative"},
		{name: "Invalid HCL", path: "../tests/resources/config/invalid.hcl", errMsg: "unable to parse config"},
		{name: "Invalid JSON", path: "../tests/resources/config/invalid.json", errMsg: "unable to parse config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, redact.ErrConfig)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse("../tests/resources/config/does_not_exist.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, redact.KindUnknown, redact.KindOf(err))
}

func TestConfigPatterns(t *testing.T) {
	cfg, err := Parse("../tests/resources/config/full.hcl")
	require.NoError(t, err)

	ps, err := cfg.Patterns()
	require.NoError(t, err)
	assert.Equal(t, cfg.Substrings, ps.Substrings())

	opts := cfg.Options(hclog.NewNullLogger())
	assert.Equal(t, 1024, opts.ChunkSize)
	assert.Equal(t, 4, opts.Workers)
}

func TestResolveWorkers(t *testing.T) {
	assert.Equal(t, 3, ResolveWorkers(3))

	assert.GreaterOrEqual(t, ResolveWorkers(0), 1)
}
