package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/redactor"
	"github.com/hashicorp/hcredact/util"
)

// DefaultConfig is the configuration file read when -config is not given.
const DefaultConfig = "config.json"

var _ cli.Command = &RedactCommand{}

type RedactCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// stdin and stdout are used when the input is "-".
	stdin  io.Reader
	stdout io.Writer

	engineFlags

	// config is the pattern configuration file.
	config string

	// substrings, when given, replace the configured substrings.
	substrings []string
}

func (c *RedactCommand) init() {
	const (
		configUsageText     = "Path to the pattern configuration `file` (.json, .hcl, .yaml or .yml)."
		substringsUsageText = "Comma-separated `substrings` to redact. When given, the configuration file is optional and its substrings are ignored."
	)

	c.flags = newFlagSet("redact")
	c.flags.StringVar(&c.config, "config", DefaultConfig, configUsageText)
	c.flags.Var(CSVFlag{&c.substrings}, "substrings", substringsUsageText)
	c.engineFlags.register(c.flags)
}

// NewRedactCommand produces a new *RedactCommand, initialized for use in a CLI application.
func NewRedactCommand(ui cli.Ui) *RedactCommand {
	c := &RedactCommand{ui: ui, stdin: os.Stdin, stdout: os.Stdout}
	c.init()
	return c
}

// RedactCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *RedactCommand.
func RedactCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewRedactCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *RedactCommand) Help() string {
	helpText := `Usage: hcredact redact [options] <input>

Replaces every case-insensitive occurrence of the configured substrings in the input with a random placeholder of the
same length, and saves the mapping needed to reverse it with "hcredact unredact".
`
	args := [][2]string{
		{"<input>", `The text file to redact, or "-" to read stdin and write the redacted text to stdout.`},
	}
	return Usage(helpText, args, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *RedactCommand) Synopsis() string {
	return "Redact configured substrings from a text file"
}

// Run executes the command.
func (c *RedactCommand) Run(args []string) int {
	input, err := parseInput(c.flags, args)
	if err == nil {
		err = c.engineFlags.expand()
	}
	if err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}
	if input == stdio && c.dict == "" {
		c.ui.Warn(`-dict is required when the input is "-"`)
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("hcredact")

	cfg, err := c.loadConfig()
	if err != nil {
		return fail(c.ui, l, "Failed to load configuration", err, ConfigError)
	}
	patterns, err := cfg.Patterns()
	if err != nil {
		return fail(c.ui, l, "Invalid configuration", err, ConfigError)
	}
	opts := c.merge(cfg, l)
	l.Debug("configuration loaded", "config", c.config, "substrings", len(cfg.Substrings), "chunk_size", opts.ChunkSize, "workers", opts.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if input == stdio {
		return c.redactStream(patterns, opts, l)
	}

	if _, err := os.Stat(input); err != nil {
		return fail(c.ui, l, "Failed to read input", err, InputError)
	}
	output := c.output
	if output == "" {
		output = util.RedactedName(input)
	}
	dict := c.dict
	if dict == "" {
		dict = util.MappingName(output)
	}

	m, err := redact.RedactFile(ctx, patterns, opts, input, output, dict)
	if err != nil {
		return fail(c.ui, l, "Failed to redact "+input, err, OutputError)
	}

	if err := writeSummary(c.stdout, [][2]string{
		{"input", input},
		{"output", output},
		{"mapping", dict},
		{"entries", fmt.Sprint(len(m))},
	}); err != nil {
		l.Warn("failed to write summary", "error", err)
	}
	return Success
}

// loadConfig reads the configuration file, unless substrings were given as a flag and the file was left at its
// default and does not exist.
func (c *RedactCommand) loadConfig() (hcl.Config, error) {
	path, err := util.ExpandPath(c.config)
	if err != nil {
		return hcl.Config{}, err
	}

	if len(c.substrings) > 0 {
		cfg, err := hcl.Parse(path)
		if err != nil {
			if c.config != DefaultConfig || !errors.Is(err, os.ErrNotExist) {
				return hcl.Config{}, err
			}
			cfg = hcl.Config{Workers: hcl.DefaultWorkers}
		}
		cfg.Substrings = c.substrings
		return cfg, nil
	}
	return hcl.Parse(path)
}

func (c *RedactCommand) redactStream(patterns *redact.PatternSet, opts redact.Options, l hclog.Logger) int {
	rr, err := redactor.NewSubstringRedactor(patterns, opts).Redact(c.stdin)
	if err != nil {
		return fail(c.ui, l, "Failed to redact stdin", err, InputError)
	}
	// The mapping is complete before any output is produced, so nothing is written on failure.
	m, err := rr.Mapping()
	if err != nil {
		return fail(c.ui, l, "Failed to redact stdin", err, InputError)
	}
	if err := redact.Save(m, c.dict); err != nil {
		return fail(c.ui, l, "Failed to write mapping", err, OutputError)
	}
	if _, err := io.Copy(c.stdout, rr); err != nil {
		return fail(c.ui, l, "Failed to write output", err, OutputError)
	}
	l.Info("redacted stdin", "mapping", c.dict, "entries", len(m))
	return Success
}

// writeSummary prints aligned key/value rows.
func writeSummary(w io.Writer, rows [][2]string) error {
	t := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintf(t, "%s\t%s\n", row[0], strings.TrimSpace(row[1])); err != nil {
			return err
		}
	}
	return t.Flush()
}
