package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"finboard/internal/export"
	"finboard/internal/ledgerview"

	"github.com/google/subcommands"
)

type channelsCmd struct{}

func (*channelsCmd) Name() string     { return "channels" }
func (*channelsCmd) Synopsis() string { return "print the estimated revenue per channel" }
func (*channelsCmd) Usage() string {
	return `finreport channels

  Prints the revenue attribution estimate. Channels without a connected
  feed are marked.
`
}

func (*channelsCmd) SetFlags(*flag.FlagSet) {}

func (*channelsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res := a.current(ctx, ledgerview.DefaultSortState())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Channel\tEstimate\tShare\tConnected")
	for _, ch := range res.Channels {
		connected := "no"
		if ch.Connected {
			connected = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%s\n", ch.Label, export.FormatAmount(ch.EstimatedValue), ch.Share*100, connected)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
