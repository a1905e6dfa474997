package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
	"github.com/dgnsrekt/optchain-analytics/internal/spread"
)

func spreadCmd() *cobra.Command {
	var (
		typ         string
		sellStrike  float64
		sellPremium float64
		buyStrike   float64
		buyPremium  float64
		contracts   int
		samples     int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "spread",
		Short: "Analyze a vertical credit spread at expiration",
		Long: `Analyze a bear call or bull put credit spread: net credit, max profit,
max loss, breakeven and risk/reward.

Examples:
  # Bear call spread: sell the 100 call for 2.00, buy the 105 call for 0.50
  optchain spread --type call --sell 100 --sell-premium 2.00 --buy 105 --buy-premium 0.50

  # Bull put spread, 5 contracts, with the P&L curve as JSON
  optchain spread --type put --sell 100 --sell-premium 2 --buy 95 --buy-premium 0.5 --contracts 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := pricing.ParseOptionType(typ)
			if err != nil {
				return err
			}
			pos := spread.Position{
				Sell:      spread.Leg{Type: t, Strike: sellStrike, Premium: sellPremium},
				Buy:       spread.Leg{Type: t, Strike: buyStrike, Premium: buyPremium},
				Contracts: contracts,
			}

			a, err := spread.Analyze(pos, samples)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			renderSpread(os.Stdout, pos, a)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "call", "option type of both legs (call or put)")
	cmd.Flags().Float64Var(&sellStrike, "sell", 0, "strike of the short leg")
	cmd.Flags().Float64Var(&sellPremium, "sell-premium", 0, "premium received for the short leg")
	cmd.Flags().Float64Var(&buyStrike, "buy", 0, "strike of the long leg")
	cmd.Flags().Float64Var(&buyPremium, "buy-premium", 0, "premium paid for the long leg")
	cmd.Flags().IntVar(&contracts, "contracts", 1, "number of contracts")
	cmd.Flags().IntVar(&samples, "samples", spread.DefaultSamples, "P&L curve points")
	_ = cmd.MarkFlagRequired("sell")
	_ = cmd.MarkFlagRequired("buy")

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis and P&L curve as JSON")

	return cmd
}

func renderSpread(w io.Writer, pos spread.Position, a *spread.Analysis) {
	fmt.Fprintf(w, "%s: sell %.2f %s @ %.2f, buy %.2f %s @ %.2f, %d contract(s)\n\n",
		a.Name,
		pos.Sell.Strike, pos.Sell.Type, pos.Sell.Premium,
		pos.Buy.Strike, pos.Buy.Type, pos.Buy.Premium,
		pos.Contracts)

	rr := missing
	if a.RiskReward != nil {
		rr = fmt.Sprintf("%.2f", *a.RiskReward)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Net credit", fmt.Sprintf("%.2f", a.NetCredit)},
		{"Max profit", fmt.Sprintf("%.2f", a.MaxProfit)},
		{"Max loss", fmt.Sprintf("%.2f", a.MaxLoss)},
		{"Breakeven", fmt.Sprintf("%.2f", a.Breakeven)},
		{"Risk/reward", rr},
	})
	table.Render()
}
