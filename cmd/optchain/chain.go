package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/notify"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

func chainCmd() *cobra.Command {
	var (
		asOf     string
		strikes  int
		greeks   bool
		asJSON   bool
		doNotify bool
	)

	cmd := &cobra.Command{
		Use:   "chain TICKER YYYY-MM-DD",
		Short: "Show the enriched option chain for one expiration",
		Long: `Show calls and puts around the money for one expiration, with estimated
bid/ask, implied volatility, theoretical values and put/call sentiment.

Examples:
  # Chain for the latest trading day
  optchain chain SPY 2025-03-21

  # Historical chain with Greeks and a wider window
  optchain chain SPY 2025-03-21 --as-of 2025-03-14 --strikes 15 --greeks

  # JSON output
  optchain chain QQQ 2025-03-21 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			expiration, err := data.ParseDate(args[1])
			if err != nil {
				return fmt.Errorf("invalid expiration date (use YYYY-MM-DD): %w", err)
			}

			st, err := buildStack(cfg, logger)
			if err != nil {
				return err
			}
			date, err := resolveAsOf(st.builder.Calendar(), asOf)
			if err != nil {
				return err
			}
			if strikes <= 0 {
				strikes = cfg.Chain.StrikesAroundATM
			}

			var notifier notify.Notifier = &notify.NoopNotifier{}
			if doNotify {
				notifier = notify.New(&cfg.Notify, logger)
			}

			rep, err := st.builder.Build(ctx, report.Request{
				Ticker:           args[0],
				Expiration:       expiration,
				AsOf:             date,
				StrikesAroundATM: strikes,
			})
			if err != nil {
				if nerr := notifier.SendFailure(ctx, data.NormalizeTicker(args[0]), args[1], err); nerr != nil {
					logger.Warn("failed to send notification", zap.Error(nerr))
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				renderReport(os.Stdout, rep, greeks)
			}
			for _, w := range rep.Warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}

			if err := notifier.SendSummary(ctx, rep); err != nil {
				logger.Warn("failed to send notification", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "trading date to read (default: latest NYSE trading day)")
	cmd.Flags().IntVar(&strikes, "strikes", 0, "strikes shown on each side of the money (default from config)")
	cmd.Flags().BoolVar(&greeks, "greeks", false, "show delta, gamma, theta and vega")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&doNotify, "notify", false, "send a summary notification")

	return cmd
}

func renderReport(w io.Writer, rep *report.Report, greeks bool) {
	fmt.Fprintf(w, "%s %s (%d DTE) as of %s, underlying %.2f\n\n",
		rep.Ticker, rep.Expiration, rep.DTE, rep.AsOf, rep.UnderlyingPrice)

	if len(rep.Rows) == 0 {
		fmt.Fprintln(w, "No contracts.")
	} else {
		renderChainTable(w, rep.Rows, greeks)
	}
	fmt.Fprintln(w)
	renderSummaryTable(w, rep.Summary)
}

func sideHeader(prefix string, greeks bool) []string {
	h := []string{"Last", "Bid", "Ask", "Vol", "OI", "IV"}
	if greeks {
		h = append(h, "Delta", "Gamma", "Theta", "Vega")
	}
	for i := range h {
		h[i] = prefix + " " + h[i]
	}
	return h
}

func sideCells(c *chain.EnrichedContract, greeks bool) []string {
	n := 6
	if greeks {
		n += 4
	}
	if c == nil {
		cells := make([]string, n)
		for i := range cells {
			cells[i] = missing
		}
		return cells
	}

	cells := []string{
		formatPrice(c.LastPrice),
		formatPrice(c.Bid),
		formatPrice(c.Ask),
		formatNumber(c.Volume),
		formatNumber(c.OpenInterest),
		formatIV(c.ImpliedVolatility),
	}
	if greeks {
		if c.Greeks == nil {
			cells = append(cells, missing, missing, missing, missing)
		} else {
			g := c.Greeks
			cells = append(cells,
				formatGreek(&g.Delta), formatGreek(&g.Gamma),
				formatGreek(&g.Theta), formatGreek(&g.Vega))
		}
	}
	return cells
}

func strikeCell(row report.Row) string {
	s := strconv.FormatFloat(row.Strike, 'f', 2, 64)
	if row.IsATM {
		return s + " *"
	}
	return s
}

func renderChainTable(w io.Writer, rows []report.Row, greeks bool) {
	header := append(sideHeader("Call", greeks), "Strike")
	header = append(header, sideHeader("Put", greeks)...)

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, row := range rows {
		line := append(sideCells(row.Call, greeks), strikeCell(row))
		line = append(line, sideCells(row.Put, greeks)...)
		table.Append(line)
	}
	table.Render()
}

func renderSummaryTable(w io.Writer, s chain.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.AppendBulk([][]string{
		{"ATM strike", formatPrice(s.ATMStrike)},
		{"Contracts", fmt.Sprintf("%d (%d calls, %d puts)", s.NumContracts, s.NumCalls, s.NumPuts)},
		{"Call volume", formatNumber(s.TotalCallVolume)},
		{"Put volume", formatNumber(s.TotalPutVolume)},
		{"Call OI", formatNumber(s.TotalCallOI)},
		{"Put OI", formatNumber(s.TotalPutOI)},
		{"P/C ratio (volume)", s.PCRatioVolume.String()},
		{"P/C ratio (OI)", s.PCRatioOI.String()},
		{"Average ratio", s.AverageRatio.String()},
		{"Sentiment", formatSentiment(s.Sentiment)},
		{"Avg IV calls", formatIV(s.AvgIVCalls)},
		{"Avg IV puts", formatIV(s.AvgIVPuts)},
		{"ATM distance", formatPercent(s.Window.ATMDistancePct)},
	})
	table.Render()
}
