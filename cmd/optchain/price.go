package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

func priceCmd() *cobra.Command {
	var (
		typ        string
		spot       float64
		strike     float64
		days       int
		expiration string
		asOf       string
		rate       float64
		volatility float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Black-Scholes price and Greeks for one option",
		Long: `Price a European option with Black-Scholes and report its Greeks.

Time to expiration comes from --days, or from --expiration counted from
--as-of (default today).

Examples:
  optchain price --type call --spot 100 --strike 100 --days 365 --vol 0.2
  optchain price --type put --spot 450 --strike 440 --expiration 2025-03-21 --as-of 2025-02-19 --vol 0.18`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := pricing.ParseOptionType(typ)
			if err != nil {
				return err
			}

			in := pricing.Inputs{Spot: spot, Strike: strike, Rate: cfg.Pricing.RiskFreeRate, Volatility: volatility}
			if cmd.Flags().Changed("rate") {
				in.Rate = rate
			}

			switch {
			case expiration != "":
				exp, err := data.ParseDate(expiration)
				if err != nil {
					return fmt.Errorf("invalid --expiration (use YYYY-MM-DD): %w", err)
				}
				from := report.NewMarketCalendar().Today()
				if asOf != "" {
					if from, err = data.ParseDate(asOf); err != nil {
						return fmt.Errorf("invalid --as-of (use YYYY-MM-DD): %w", err)
					}
				}
				in.Years = pricing.YearsToExpiration(from, exp)
			case cmd.Flags().Changed("days"):
				in.Years = daysToYears(days)
			default:
				return fmt.Errorf("one of --days or --expiration is required")
			}

			res, err := pricing.Evaluate(in, t)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Type   pricing.OptionType `json:"type"`
					Inputs pricing.Inputs     `json:"inputs"`
					pricing.Result
				}{t, in, res})
			}
			renderPrice(os.Stdout, t, in, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "call", "option type (call or put)")
	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying price")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().IntVar(&days, "days", 0, "calendar days to expiration")
	cmd.Flags().StringVar(&expiration, "expiration", "", "expiration date YYYY-MM-DD")
	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual risk-free rate (default from config)")
	cmd.Flags().Float64Var(&volatility, "vol", 0.30, "annual volatility as a decimal")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")

	return cmd
}

func daysToYears(days int) float64 {
	switch {
	case days < 0:
		return 0
	case days == 0:
		return pricing.MinYears
	}
	return float64(days) / pricing.DaysPerYear
}

func renderPrice(w io.Writer, t pricing.OptionType, in pricing.Inputs, res pricing.Result) {
	fmt.Fprintf(w, "%s %.2f, spot %.2f, %.4f years, rate %.2f%%, vol %.1f%%\n\n",
		t, in.Strike, in.Spot, in.Years, in.Rate*100, in.Volatility*100)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Price", "Intrinsic", "Delta", "Gamma", "Theta", "Vega", "Rho"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	intrinsic := pricing.Intrinsic(in.Spot, in.Strike, t)
	g := res.Greeks
	table.Append([]string{
		formatPrice(&res.Price), formatPrice(&intrinsic),
		fmt.Sprintf("%.4f", g.Delta), fmt.Sprintf("%.4f", g.Gamma),
		fmt.Sprintf("%.4f", g.Theta), fmt.Sprintf("%.4f", g.Vega), fmt.Sprintf("%.4f", g.Rho),
	})
	table.Render()
}
