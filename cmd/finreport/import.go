package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"finboard/internal/sources/mapping"

	"github.com/google/subcommands"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "add transactions from a CSV file to the local ledger" }
func (*importCmd) Usage() string {
	return `finreport import <file.csv>

  Reads a header-led CSV (date, type, amount, category, description,
  client, invoice) and stores every row as a generated transaction. The batch
  is rejected as a whole if any row is invalid.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import takes exactly one CSV file")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	defer file.Close()
	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	txs, err := a.ledger.Import(ctx, mapping.Inputs(rows))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("imported %d transactions\n", len(txs))
	return subcommands.ExitSuccess
}
