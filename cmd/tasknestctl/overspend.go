package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasknest/internal/core"
)

func newOverspendCmd() *cobra.Command {
	var (
		flags planFlags
		spend map[string]string
	)
	cmd := &cobra.Command{
		Use:   "overspend",
		Short: "List categories whose spend exceeds their allocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.period(spend)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			records := p.Overspend()
			if len(records) == 0 {
				fmt.Fprintln(out, "No category is over budget.")
				return nil
			}
			tw := newTable(out, "CATEGORY", "BUDGETED", "SPENT", "OVER", "OVER %")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\n", r.Category,
					core.FormatAmount(r.Budgeted), core.FormatAmount(r.Spent),
					core.FormatAmount(r.OverspentAmount), r.OverspentPercentage)
			}
			return tw.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringToStringVarP(&spend, "spend", "s", nil, "Actual spend per category, e.g. food=420")
	return cmd
}

func newAdjustCmd() *cobra.Command {
	var (
		flags planFlags
		spend map[string]string
	)
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Rebalance percentages so overspent categories are covered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.period(spend)
			if err != nil {
				return err
			}
			before := p.Percentages()
			changed, err := p.AutoAdjust()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !changed {
				fmt.Fprintln(out, "Distribution unchanged.")
				return nil
			}
			after, amounts := p.Percentages(), p.Allocations()
			tw := newTable(out, "CATEGORY", "BEFORE", "AFTER", "AMOUNT")
			for _, category := range sortedCategories(after) {
				fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%s\n", category, before[category],
					after[category], core.FormatAmount(amounts[category]))
			}
			return tw.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringToStringVarP(&spend, "spend", "s", nil, "Actual spend per category, e.g. food=420")
	return cmd
}
