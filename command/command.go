// Package command holds the hcredact CLI commands.
package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/util"
)

// stdio is the input name that streams stdin to stdout.
const stdio = "-"

const (
	dictUsageText      = "Path to the mapping `file`. Redaction defaults to the output path plus \".dict\"; unredaction defaults to the input path plus \".dict\". Required when the input is \"-\"."
	outputUsageText    = "Path to the output `file`. Defaults to the input name with a \"_redacted\" or \"_unredacted\" marker before its extension."
	chunkSizeUsageText = "Target chunk size in `bytes`. Overrides the configuration; 0 keeps the configured value, or 64 KiB."
	workersUsageText   = "Number of chunks processed concurrently. Overrides the configuration; 0 uses one worker per logical CPU."
)

// engineFlags are the flags shared by redact and unredact.
type engineFlags struct {
	dict      string
	output    string
	chunkSize int
	workers   int
}

func (e *engineFlags) register(f *flag.FlagSet) {
	f.StringVar(&e.dict, "dict", "", dictUsageText)
	f.StringVar(&e.output, "output", "", outputUsageText)
	f.IntVar(&e.chunkSize, "chunk-size", 0, chunkSizeUsageText)
	// -1 means the flag was not given.
	f.IntVar(&e.workers, "workers", -1, workersUsageText)
}

// merge merges flags into the configured engine options, prioritizing flags.
func (e *engineFlags) merge(cfg hcl.Config, l hclog.Logger) redact.Options {
	if e.chunkSize > 0 {
		cfg.ChunkSize = e.chunkSize
	}
	if e.workers >= 0 {
		cfg.Workers = e.workers
	}
	return cfg.Options(l)
}

// expand resolves "~" in every path flag.
func (e *engineFlags) expand() error {
	var err error
	if e.dict, err = util.ExpandPath(e.dict); err != nil {
		return err
	}
	e.output, err = util.ExpandPath(e.output)
	return err
}

// newFlagSet creates a flag set that reports errors instead of exiting and leaves usage output to Help.
func newFlagSet(name string) *flag.FlagSet {
	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	f.SetOutput(io.Discard)
	return f
}

// parseInput parses args and returns the single positional input path.
func parseInput(f *flag.FlagSet, args []string) (string, error) {
	if err := f.Parse(args); err != nil {
		return "", err
	}
	switch f.NArg() {
	case 0:
		return "", errors.New("missing input file")
	case 1:
		if f.Arg(0) == stdio {
			return stdio, nil
		}
		return util.ExpandPath(f.Arg(0))
	default:
		return "", fmt.Errorf("expected one input file, got %d: %s", f.NArg(), strings.Join(f.Args(), " "))
	}
}

// configureLogging takes a logger name, sets the default configuration, grabs the LOG_LEVEL from our ENV vars, and
// returns a configured and usable logger. Logs go to stderr so that they never mix with streamed output.
func configureLogging(loggerName string) hclog.Logger {
	// Create logger, set default and log level
	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:   loggerName,
		Color:  hclog.AutoColor,
		Output: os.Stderr,
	})
	hclog.SetDefault(appLogger)
	if logStr := os.Getenv("LOG_LEVEL"); logStr != "" {
		if level := hclog.LevelFromString(logStr); level != hclog.NoLevel {
			appLogger.SetLevel(level)
			appLogger.Debug("Logger configuration change", "LOG_LEVEL", hclog.Fmt("%s", logStr))
		}
	}
	return hclog.Default()
}

// describe turns filesystem errors into a short message naming the path; other errors are returned as they are.
func describe(err error) string {
	var pe *fs.PathError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("file not found: %s", pe.Path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("permission denied: %s", pe.Path)
	default:
		return err.Error()
	}
}

// fail reports err on ui and returns the matching return code.
func fail(ui cli.Ui, l hclog.Logger, msg string, err error, fallback int) int {
	l.Debug(msg, "error", err)
	ui.Error(fmt.Sprintf("%s: %s", msg, describe(err)))
	return returnCode(err, fallback)
}

type CSVFlag struct {
	Values *[]string
}

func (s CSVFlag) String() string {
	if s.Values == nil {
		return ""
	}
	return strings.Join(*s.Values, ",")
}

func (s CSVFlag) Set(v string) error {
	*s.Values = strings.Split(v, ",")
	return nil
}
