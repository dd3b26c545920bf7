// Command finreport prints and exports finboard reports from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&kpisCmd{}, "reports")
	commander.Register(&channelsCmd{}, "reports")
	commander.Register(&exportCmd{}, "reports")
	commander.Register(&importCmd{}, "ledger")
	commander.Register(&oauthInitCmd{}, "setup")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
