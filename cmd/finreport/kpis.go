package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledgerview"
	"finboard/internal/report"

	"github.com/google/subcommands"
)

type kpisCmd struct {
	categories bool
}

func (*kpisCmd) Name() string     { return "kpis" }
func (*kpisCmd) Synopsis() string { return "print the current business metrics" }
func (*kpisCmd) Usage() string {
	return `finreport kpis [-categories]

  Loads every source, reconciles the ledger and prints the KPI set.
`
}

func (c *kpisCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.categories, "categories", false, "also print the category breakdown")
}

func (c *kpisCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res := a.current(ctx, ledgerview.DefaultSortState())
	printKPIs(os.Stdout, res.Report)
	if c.categories {
		fmt.Fprintln(os.Stdout)
		printCategories(os.Stdout, res.Report)
	}
	return subcommands.ExitSuccess
}

func printKPIs(out io.Writer, r report.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	k := r.KPIs
	fmt.Fprintf(w, "Authority\t%s\n", r.Authority)
	if r.FellBack {
		fmt.Fprintf(w, "Fell back\tyes\n")
	}
	fmt.Fprintf(w, "Transactions\t%d\n", len(r.Working))
	fmt.Fprintf(w, "Revenue\t%s\n", export.FormatAmount(k.MonthlyRevenue))
	fmt.Fprintf(w, "Expenses\t%s\n", export.FormatAmount(k.MonthlyExpenses))
	fmt.Fprintf(w, "Net profit\t%s\n", export.FormatAmount(k.NetProfit))
	fmt.Fprintf(w, "Profit margin\t%s\n", percent(k.ProfitMarginPct, 1))
	fmt.Fprintf(w, "Burn rate\t%s\n", k.BurnRate.Format(0))
	fmt.Fprintf(w, "Cash runway (months)\t%s\n", k.CashRunwayMonths.Format(1))
	if k.BreakEvenMonth != "" {
		fmt.Fprintf(w, "Break-even\t%s\n", k.BreakEvenMonth)
	}
	fmt.Fprintf(w, "CAC\t%s\n", k.CustomerAcquisitionCost.Format(2))
	fmt.Fprintf(w, "ROAS\t%s\n", k.ROAS.Format(2))
	fmt.Fprintf(w, "Conversion rate (est.)\t%s\n", percent(k.ConversionRatePct, 2))
	w.Flush()
}

func percent(o core.Optional, prec int) string {
	if !o.Valid {
		return o.Format(prec)
	}
	return o.Format(prec) + "%"
}

func printCategories(out io.Writer, r report.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Category\tIncome\tExpenses\tCount")
	for _, b := range r.Categories.Buckets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", b.Name,
			export.FormatAmount(b.IncomeTotal), export.FormatAmount(b.ExpenseTotal), b.Count)
	}
	w.Flush()
}
