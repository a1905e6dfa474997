package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

func expirationsCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "expirations TICKER",
		Short: "List expirations with contracts on a trading day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStack(cfg, logger)
			if err != nil {
				return err
			}
			date, err := resolveAsOf(st.builder.Calendar(), asOf)
			if err != nil {
				return err
			}

			exps, err := st.builder.Expirations(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			if len(exps) == 0 {
				fmt.Fprintf(os.Stderr, "no expirations for %s as of %s\n",
					data.NormalizeTicker(args[0]), date.Format(data.DateLayout))
				return nil
			}
			for _, e := range exps {
				fmt.Printf("%s  %4d DTE\n", e.Format(data.DateLayout), pricing.DaysBetween(date, e))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "trading date to read (default: latest NYSE trading day)")

	return cmd
}
