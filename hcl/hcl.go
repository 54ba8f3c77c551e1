// Package hcl loads the pattern configuration. Despite the name it reads three formats: HCL native syntax (.hcl),
// HCL's JSON syntax (.json and any unrecognised extension) and YAML (.yaml, .yml).
package hcl

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"
	hcl2 "github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsimple"
	hcljson "github.com/hashicorp/hcl/v2/json"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp/hcredact/redact"
)

// DefaultWorkers is used when a config does not set workers.
const DefaultWorkers = 1

// Config is a parsed pattern configuration.
type Config struct {
	// Substrings are the literal, case-insensitive substrings to redact, in priority order.
	Substrings []string `json:"substrings"`

	// ChunkSize is the target chunk size in bytes; 0 means redact.DefaultChunkSize.
	ChunkSize int `json:"chunk_size"`

	// Workers is the number of chunks processed concurrently; 0 means one per logical CPU.
	Workers int `json:"workers"`
}

// file is the decoding target for both HCL syntaxes. substrings is kept as a raw attribute so that its type can be
// checked, and reported, before conversion.
type file struct {
	Substrings *hcl2.Attribute `hcl:"substrings,optional"`
	ChunkSize  *int            `hcl:"chunk_size,optional"`
	Workers    *int            `hcl:"workers,optional"`
	Remain     hcl2.Body       `hcl:",remain"`
}

// yamlFile is the decoding target for YAML configs.
type yamlFile struct {
	Substrings any  `yaml:"substrings"`
	ChunkSize  *int `yaml:"chunk_size"`
	Workers    *int `yaml:"workers"`
}

// Parse reads the configuration at path. Filesystem errors are returned as they are; everything else is a
// redact.KindConfig error.
func Parse(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return parseYAML(src)
	case ".hcl", ".json":
		// hclsimple picks the syntax from a case-sensitive suffix.
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ext
		var f file
		if err := hclsimple.Decode(name, src, nil, &f); err != nil {
			return Config{}, &redact.Error{Kind: redact.KindConfig, Msg: "unable to parse config, path=" + path, Err: err}
		}
		return f.config()
	default:
		// The original tool's configs are plain JSON regardless of their name.
		return parseJSON(path, src)
	}
}

func parseJSON(path string, src []byte) (Config, error) {
	hf, diags := hcljson.Parse(src, path)
	if diags.HasErrors() {
		return Config{}, &redact.Error{Kind: redact.KindConfig, Msg: "unable to parse config, path=" + path, Err: diags}
	}
	var f file
	if diags := gohcl.DecodeBody(hf.Body, nil, &f); diags.HasErrors() {
		return Config{}, &redact.Error{Kind: redact.KindConfig, Msg: "unable to parse config, path=" + path, Err: diags}
	}
	return f.config()
}

func (f file) config() (Config, error) {
	if f.Substrings == nil {
		return Config{}, redact.ConfigError("missing substrings")
	}
	// No EvalContext: configs cannot reference variables or call functions, and JSON strings stay literal.
	val, diags := f.Substrings.Expr.Value(nil)
	if diags.HasErrors() {
		return Config{}, &redact.Error{Kind: redact.KindConfig, Msg: "unable to evaluate substrings", Err: diags}
	}
	if val.IsNull() {
		return Config{}, redact.ConfigError("missing substrings")
	}
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return Config{}, redact.ConfigError("substrings must be a list")
	}

	c := Config{Substrings: make([]string, 0, val.LengthInt())}
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.IsNull() || !v.Type().Equals(cty.String) {
			return Config{}, redact.ConfigError(fmt.Sprintf("substring %d must be a string", len(c.Substrings)))
		}
		c.Substrings = append(c.Substrings, v.AsString())
	}
	return c.withSizes(f.ChunkSize, f.Workers)
}

func parseYAML(src []byte) (Config, error) {
	var f yamlFile
	if err := yaml.Unmarshal(src, &f); err != nil {
		return Config{}, &redact.Error{Kind: redact.KindConfig, Msg: "unable to parse config", Err: err}
	}
	if f.Substrings == nil {
		return Config{}, redact.ConfigError("missing substrings")
	}
	items, ok := f.Substrings.([]any)
	if !ok {
		return Config{}, redact.ConfigError("substrings must be a list")
	}

	c := Config{Substrings: make([]string, 0, len(items))}
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return Config{}, redact.ConfigError(fmt.Sprintf("substring %d must be a string", i))
		}
		c.Substrings = append(c.Substrings, s)
	}
	return c.withSizes(f.ChunkSize, f.Workers)
}

func (c Config) withSizes(chunkSize, workers *int) (Config, error) {
	if len(c.Substrings) == 0 {
		return Config{}, redact.ConfigError("missing substrings")
	}
	c.Workers = DefaultWorkers
	if chunkSize != nil {
		if *chunkSize < 0 {
			return Config{}, redact.ConfigError("chunk_size must not be negative")
		}
		c.ChunkSize = *chunkSize
	}
	if workers != nil {
		if *workers < 0 {
			return Config{}, redact.ConfigError("workers must not be negative")
		}
		c.Workers = *workers
	}
	return c, nil
}

// Patterns compiles the configured substrings.
func (c Config) Patterns() (*redact.PatternSet, error) {
	return redact.NewPatternSet(c.Substrings)
}

// Options converts the config into engine options, resolving an automatic worker count.
func (c Config) Options(l hclog.Logger) redact.Options {
	return redact.Options{
		ChunkSize: c.ChunkSize,
		Workers:   ResolveWorkers(c.Workers),
		Logger:    l,
	}
}

// ResolveWorkers returns n when it is positive, or the number of logical CPUs when n is 0.
func ResolveWorkers(n int) int {
	if n > 0 {
		return n
	}
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		hclog.L().Debug("unable to count CPUs, falling back to the Go runtime", "error", err)
		return runtime.NumCPU()
	}
	return count
}
