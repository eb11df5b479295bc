package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tasknest/internal/budget"
	"tasknest/internal/config"
	"tasknest/internal/core"
)

// planFlags are shared by the allocate, overspend and adjust commands.
type planFlags struct {
	total            string
	percentages      map[string]string
	distributionFile string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.total, "budget", "b", "", "Monthly budget, e.g. 2500 or 2500,50")
	cmd.Flags().StringToStringVarP(&f.percentages, "pct", "p", nil, "Category percentages, e.g. food=40,rent=60")
	cmd.Flags().StringVar(&f.distributionFile, "distribution-file", "", "TOML or YAML file with default percentages")
	_ = cmd.MarkFlagRequired("budget")
}

// resolve returns the budget and percentages. Without --pct the
// distribution file, or the built-in defaults, are used.
func (f *planFlags) resolve() (decimal.Decimal, map[string]float64, error) {
	amount, err := core.ParseAmount(f.total)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("--budget: %w", err)
	}
	if len(f.percentages) == 0 {
		pct, err := config.LoadDistribution(f.distributionFile)
		return amount.Value, pct, err
	}
	pct := make(map[string]float64, len(f.percentages))
	for category, raw := range f.percentages {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return decimal.Zero, nil, core.NewValidationError("percentages", "%s: %q is not a number", category, raw)
		}
		pct[strings.ToLower(strings.TrimSpace(category))] = v
	}
	if err := budget.ValidatePercentages(pct); err != nil {
		return decimal.Zero, nil, err
	}
	return amount.Value, pct, nil
}

// period builds a period for the current month from the flags and spend.
func (f *planFlags) period(spend map[string]string) (*budget.Period, error) {
	total, pct, err := f.resolve()
	if err != nil {
		return nil, err
	}
	spent, err := parseSpend(spend)
	if err != nil {
		return nil, err
	}
	return budget.NewPeriod("", core.MonthKey(time.Now()), total, pct, spent)
}

func parseSpend(raw map[string]string) (map[string]decimal.Decimal, error) {
	spend := make(map[string]decimal.Decimal, len(raw))
	for _, category := range sortedCategories(raw) {
		value := raw[category]
		amount, err := core.ParseAmount(value)
		if err != nil {
			return nil, core.NewValidationError("actualSpend", "%s: %q is not a number", category, value)
		}
		if amount.Value.IsNegative() {
			return nil, core.NewValidationError("actualSpend", "%s: spend cannot be negative", category)
		}
		spend[strings.ToLower(strings.TrimSpace(category))] = amount.Value
	}
	return spend, nil
}

func newAllocateCmd() *cobra.Command {
	var flags planFlags
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Split a budget across categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			total, pct, err := flags.resolve()
			if err != nil {
				return err
			}
			amounts, err := budget.ApplyPercentages(total, pct)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout(), "CATEGORY", "PERCENT", "AMOUNT")
			for _, category := range sortedCategories(pct) {
				fmt.Fprintf(tw, "%s\t%.1f%%\t%s\n", category, pct[category], core.FormatAmount(amounts[category]))
			}
			fmt.Fprintf(tw, "total\t100.0%%\t%s\n", core.FormatAmount(total))
			return tw.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func sortedCategories[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
