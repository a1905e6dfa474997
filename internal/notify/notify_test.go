package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/convert"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

type captured struct {
	path     string
	title    string
	priority string
	tags     string
	auth     string
	body     string
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.path = r.URL.Path
		got.title = r.Header.Get("Title")
		got.priority = r.Header.Get("Priority")
		got.tags = r.Header.Get("Tags")
		got.auth = r.Header.Get("Authorization")
		got.body = string(b)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func testReport() *report.Report {
	atm := 100.0
	return &report.Report{
		Ticker:          "SPY",
		Expiration:      "2025-01-17",
		DTE:             7,
		UnderlyingPrice: 101.25,
		Summary: chain.Summary{
			ATMStrike:       &atm,
			TotalCallVolume: 200,
			TotalPutVolume:  300,
			PCRatioVolume:   chain.NewRatio(300, 200, true),
			PCRatioOI:       chain.NewRatio(0, 0, true),
			Sentiment:       chain.SentimentBearish,
			NumContracts:    4,
		},
		Warnings: []string{"2025-01-11 is not an NYSE trading day"},
	}
}

func TestFormatSummaryMessage(t *testing.T) {
	msg := FormatSummaryMessage(testReport())

	for _, want := range []string{
		"Underlying: 101.25",
		"ATM: 100.00",
		"P/C volume: 1.50",
		"P/C OI: N/A",
		"Sentiment: bearish",
		"- 2025-01-11 is not an NYSE trading day",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestFormatSummaryMessageAbsentATM(t *testing.T) {
	rep := testReport()
	rep.Summary.ATMStrike = nil
	rep.Summary.Sentiment = chain.SentimentNoData

	msg := FormatSummaryMessage(rep)
	if !strings.Contains(msg, "ATM: -") || !strings.Contains(msg, "Sentiment: no data") {
		t.Errorf("unexpected message:\n%s", msg)
	}
}

func TestFormatConvertMessage(t *testing.T) {
	result := &convert.BatchResult{Total: 5, Success: 1, Failed: 4, Errors: []string{"a", "b", "c", "d"}}
	msg := FormatConvertMessage(result, 90*time.Second)

	if !strings.Contains(msg, "Duration: 1m30s") {
		t.Errorf("expected rounded duration, got:\n%s", msg)
	}
	if !strings.Contains(msg, "... and 1 more errors") {
		t.Errorf("expected truncated errors, got:\n%s", msg)
	}
}

func TestClientSendSummary(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK)
	logger, _ := zap.NewDevelopment()
	c := NewClient(&Config{Enabled: true, Server: srv.URL + "/", Topic: "chains", Priority: "default", Tags: "chart", Token: "secret"}, logger)

	if err := c.SendSummary(context.Background(), testReport()); err != nil {
		t.Fatalf("SendSummary failed: %v", err)
	}

	if got.path != "/chains" {
		t.Errorf("expected /chains, got %s", got.path)
	}
	if got.title != "SPY 2025-01-17 chain: bearish" {
		t.Errorf("unexpected title %q", got.title)
	}
	if got.auth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", got.auth)
	}
	if !strings.Contains(got.body, "Sentiment: bearish") {
		t.Errorf("unexpected body %q", got.body)
	}
}

func TestClientSendFailureUsesHighPriority(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK)
	logger, _ := zap.NewDevelopment()
	c := NewClient(&Config{Enabled: true, Server: srv.URL, Topic: "chains", Priority: "low", Tags: "chart"}, logger)

	if err := c.SendFailure(context.Background(), "SPY", "2025-01-17", errors.New("no price")); err != nil {
		t.Fatalf("SendFailure failed: %v", err)
	}
	if got.priority != "high" || got.tags != "chart,x" {
		t.Errorf("unexpected headers: priority=%q tags=%q", got.priority, got.tags)
	}
}

func TestClientSendConvertFailureTitle(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK)
	logger, _ := zap.NewDevelopment()
	c := NewClient(&Config{Enabled: true, Server: srv.URL, Topic: "chains", Priority: "default", Tags: "chart"}, logger)

	if err := c.SendConvert(context.Background(), &convert.BatchResult{Total: 1, Failed: 1}, "2025-01-10", time.Second); err != nil {
		t.Fatalf("SendConvert failed: %v", err)
	}
	if got.title != "Conversion Failed: 2025-01-10" || got.priority != "high" {
		t.Errorf("unexpected title/priority %q/%q", got.title, got.priority)
	}
}

func TestClientReportsHTTPErrors(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden)
	logger, _ := zap.NewDevelopment()
	c := NewClient(&Config{Enabled: true, Server: srv.URL, Topic: "chains", Priority: "default"}, logger)

	if err := c.SendSummary(context.Background(), testReport()); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	if _, ok := New(&Config{Enabled: false}, logger).(*NoopNotifier); !ok {
		t.Error("expected NoopNotifier when disabled")
	}
	if _, ok := New(&Config{Enabled: true, Topic: "x"}, logger).(*Client); !ok {
		t.Error("expected Client when enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{Enabled: true, Priority: "default"}).Validate(); err == nil {
		t.Error("expected error without topic")
	}
	if err := (&Config{Enabled: true, Topic: "x", Priority: "loud"}).Validate(); err == nil {
		t.Error("expected error for bad priority")
	}
	if err := (&Config{}).Validate(); err != nil {
		t.Errorf("disabled config should validate: %v", err)
	}
}
