package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/convert"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

// FormatSummaryMessage creates a chain summary notification body.
func FormatSummaryMessage(rep *report.Report) string {
	var sb strings.Builder
	s := rep.Summary

	sb.WriteString(fmt.Sprintf("Underlying: %.2f\n", rep.UnderlyingPrice))
	sb.WriteString(fmt.Sprintf("DTE: %d\n", rep.DTE))
	sb.WriteString(fmt.Sprintf("ATM: %s\n", formatOptional(s.ATMStrike, "%.2f")))
	sb.WriteString(fmt.Sprintf("Contracts: %d (%d calls, %d puts)\n", s.NumContracts, s.NumCalls, s.NumPuts))
	sb.WriteString(fmt.Sprintf("Volume C/P: %d / %d\n", s.TotalCallVolume, s.TotalPutVolume))
	sb.WriteString(fmt.Sprintf("OI C/P: %d / %d\n", s.TotalCallOI, s.TotalPutOI))
	sb.WriteString(fmt.Sprintf("P/C volume: %s\n", s.PCRatioVolume))
	sb.WriteString(fmt.Sprintf("P/C OI: %s\n", s.PCRatioOI))
	sb.WriteString(fmt.Sprintf("Sentiment: %s", sentimentLabel(s.Sentiment)))

	if len(rep.Warnings) > 0 {
		sb.WriteString("\n\nWarnings:\n")
		for _, w := range rep.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatReportFailureMessage creates a failure notification body for a chain report.
func FormatReportFailureMessage(ticker, expiration string, err error) string {
	return fmt.Sprintf("Ticker: %s\nExpiration: %s\n\nError: %v", ticker, expiration, err)
}

// FormatConvertMessage creates a snapshot conversion notification body.
func FormatConvertMessage(result *convert.BatchResult, duration time.Duration) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d tasks\n", result.Total))
	sb.WriteString(fmt.Sprintf("Success: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Skipped: %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("Contracts: %d\n", result.Contracts))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	// Include first 3 error messages if available
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(3, len(result.Errors))
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", result.Errors[i]))
		}
		if len(result.Errors) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more errors", len(result.Errors)-3))
		}
	}

	return sb.String()
}

func sentimentLabel(s chain.Sentiment) string {
	if s == chain.SentimentNoData {
		return "no data"
	}
	return string(s)
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
