package main

import (
	"os"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/command"
	"github.com/hashicorp/hcredact/version"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := cli.NewCLI("hcredact", version.GetVersion().SemanticVersion())
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"redact":   command.RedactCommandFactory(ui),
		"unredact": command.UnredactCommandFactory(ui),
		"version":  command.VersionCommandFactory(ui),
	}

	exitStatus, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitStatus
}
