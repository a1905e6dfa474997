package main

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

const missing = "-"

var printer = message.NewPrinter(language.English)

// formatNumber groups thousands; zero reads as missing.
func formatNumber(v int64) string {
	if v == 0 {
		return missing
	}
	return printer.Sprintf("%d", v)
}

func formatPrice(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.2f", *v)
}

// formatPercent renders a value already expressed in percent.
func formatPercent(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func formatGreek(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.3f", *v)
}

// formatIV renders a decimal volatility as a percent.
func formatIV(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func formatSentiment(s chain.Sentiment) string {
	switch s {
	case chain.SentimentBearish:
		return "Bearish"
	case chain.SentimentBullish:
		return "Bullish"
	case chain.SentimentNeutral:
		return "Neutral"
	}
	return "No data"
}
