package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finboard/internal/export"
	"finboard/internal/ledgerview"

	"github.com/google/subcommands"
)

type exportCmd struct {
	kind string
	dir  string
	sort string
	asc  bool
	desc bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a P&L or transactions CSV" }
func (*exportCmd) Usage() string {
	return `finreport export [-type pnl|transactions] [-o <dir>] [-sort <field>] [-asc|-desc]

  Writes the export to <dir>/<Type>_<Entity>_<YYYY-MM-DD>.csv and prints
  the path. Use -o - to write to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "pnl", "export type: pnl or transactions")
	f.StringVar(&c.dir, "o", ".", "output directory, - for stdout")
	f.StringVar(&c.sort, "sort", "", "transactions sort field (date, category, amount, description, clientName)")
	f.BoolVar(&c.asc, "asc", false, "sort ascending")
	f.BoolVar(&c.desc, "desc", false, "sort descending")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asc && c.desc {
		fmt.Fprintln(os.Stderr, "-asc and -desc cannot be used together")
		return subcommands.ExitUsageError
	}
	dir := ""
	switch {
	case c.asc:
		dir = string(ledgerview.Asc)
	case c.desc:
		dir = string(ledgerview.Desc)
	}
	sort, err := ledgerview.ParseSortState(c.sort, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing sort: %v\n", err)
		return subcommands.ExitUsageError
	}

	var reportType string
	switch strings.ToLower(c.kind) {
	case "pnl":
		reportType = export.ReportPnL
	case "transactions":
		reportType = export.ReportTransactions
	default:
		fmt.Fprintf(os.Stderr, "unknown export type %q\n", c.kind)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res := a.current(ctx, sort)
	now := time.Now()
	var body string
	if reportType == export.ReportPnL {
		body = export.PnL(export.PnLInput{
			EntityName: a.cfg.ReportEntityName,
			Date:       now,
			KPIs:       res.KPIs,
			Payroll:    res.Payroll,
			Categories: res.Categories.Buckets,
		})
	} else {
		body = export.Transactions(res.Working)
	}

	if c.dir == "-" {
		fmt.Fprint(os.Stdout, body)
		return subcommands.ExitSuccess
	}
	name := filepath.Join(c.dir, export.Filename(reportType, a.cfg.ReportEntityName, now))
	if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
		return subcommands.ExitFailure
	}
	fmt.Println(name)
	return subcommands.ExitSuccess
}
