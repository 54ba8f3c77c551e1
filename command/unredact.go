package command

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/redactor"
	"github.com/hashicorp/hcredact/util"
)

var _ cli.Command = &UnredactCommand{}

type UnredactCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// stdin and stdout are used when the input is "-".
	stdin  io.Reader
	stdout io.Writer

	engineFlags
}

func (c *UnredactCommand) init() {
	c.flags = newFlagSet("unredact")
	c.engineFlags.register(c.flags)
}

// NewUnredactCommand produces a new *UnredactCommand, initialized for use in a CLI application.
func NewUnredactCommand(ui cli.Ui) *UnredactCommand {
	c := &UnredactCommand{ui: ui, stdin: os.Stdin, stdout: os.Stdout}
	c.init()
	return c
}

// UnredactCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *UnredactCommand.
func UnredactCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewUnredactCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *UnredactCommand) Help() string {
	helpText := `Usage: hcredact unredact [options] <input>

Restores the original text of a file produced by "hcredact redact", using the mapping saved alongside it.
`
	args := [][2]string{
		{"<input>", `The redacted file, or "-" to read stdin and write the restored text to stdout.`},
	}
	return Usage(helpText, args, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *UnredactCommand) Synopsis() string {
	return "Restore a redacted text file from its mapping"
}

// Run executes the command.
func (c *UnredactCommand) Run(args []string) int {
	input, err := parseInput(c.flags, args)
	if err == nil {
		err = c.engineFlags.expand()
	}
	if err != nil {
		c.ui.Warn(err.Error())
		c.ui.Warn(c.Help())
		return FlagParseError
	}
	if input == stdio && c.dict == "" {
		c.ui.Warn(`-dict is required when the input is "-"`)
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("hcredact")
	opts := c.merge(hcl.Config{Workers: hcl.DefaultWorkers}, l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if input == stdio {
		return c.unredactStream(opts, l)
	}

	if _, err := os.Stat(input); err != nil {
		return fail(c.ui, l, "Failed to read input", err, InputError)
	}
	output := c.output
	if output == "" {
		output = util.UnredactedName(input)
	}
	dict := c.dict
	if dict == "" {
		dict = util.MappingName(input)
	}

	if err := redact.UnredactFile(ctx, opts, input, output, dict); err != nil {
		return fail(c.ui, l, "Failed to unredact "+input, err, OutputError)
	}

	if err := writeSummary(c.stdout, [][2]string{
		{"input", input},
		{"output", output},
		{"mapping", dict},
	}); err != nil {
		l.Warn("failed to write summary", "error", err)
	}
	return Success
}

func (c *UnredactCommand) unredactStream(opts redact.Options, l hclog.Logger) int {
	m, err := redact.Load(c.dict)
	if err != nil {
		return fail(c.ui, l, "Failed to load mapping", err, DictionaryLoadError)
	}
	restorer, err := redactor.NewMappingRestorer(m, opts)
	if err != nil {
		return fail(c.ui, l, "Failed to load mapping", err, DictionaryLoadError)
	}
	rr, err := restorer.Redact(c.stdin)
	if err != nil {
		return fail(c.ui, l, "Failed to unredact stdin", err, InputError)
	}
	if _, err := rr.Mapping(); err != nil {
		return fail(c.ui, l, "Failed to unredact stdin", err, InputError)
	}
	if _, err := io.Copy(c.stdout, rr); err != nil {
		return fail(c.ui, l, "Failed to write output", err, OutputError)
	}
	l.Info("unredacted stdin", "mapping", c.dict, "entries", len(m))
	return Success
}
