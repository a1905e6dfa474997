package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
	"github.com/dgnsrekt/optchain-analytics/internal/staging"
)

type mockReader struct {
	contracts map[string][]chain.Contract
	price     *float64
	failing   string
}

func (m *mockReader) DayContracts(ctx context.Context, ticker string, date time.Time) ([]chain.Contract, error) {
	if ticker == m.failing {
		return nil, errors.New("corrupt file")
	}
	return m.contracts[ticker], nil
}

func (m *mockReader) FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error) {
	return m.price, nil
}

func spyContracts() []chain.Contract {
	last := 2.5
	exp := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	return []chain.Contract{
		{Underlying: "SPY", Strike: 450, Type: pricing.Call, Expiration: exp, LastPrice: &last, Volume: 10},
		{Underlying: "SPY", Strike: 450, Type: pricing.Put, Expiration: exp, Volume: 0},
	}
}

func TestConvertManager(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "convert-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	price := 451.0
	reader := &mockReader{
		contracts: map[string][]chain.Contract{"SPY": spyContracts()},
		price:     &price,
		failing:   "IWM",
	}

	stgMgr := staging.NewManager(tmpDir)
	logger, _ := zap.NewDevelopment()
	mgr := NewManager(reader, stgMgr, 2, false, logger)

	tasks := Tasks([]string{"2025-01-10"}, []string{"spy", "QQQ", "IWM"})

	result, err := mgr.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Total)
	}
	if result.Success != 1 || result.Contracts != 2 {
		t.Errorf("expected 1 success with 2 contracts, got %d / %d", result.Success, result.Contracts)
	}
	if result.NotFound != 1 {
		t.Errorf("expected 1 not found, got %d", result.NotFound)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("expected 1 failure, got %d (%v)", result.Failed, result.Errors)
	}

	if err := stgMgr.CommitStaging("2025-01-10"); err != nil {
		t.Fatalf("CommitStaging failed: %v", err)
	}

	loader, err := data.NewSnapshotLoader(tmpDir, logger)
	if err != nil {
		t.Fatalf("NewSnapshotLoader failed: %v", err)
	}
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	got, err := loader.FetchContracts(context.Background(), "SPY", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), day)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 converted contracts, got %d (%v)", len(got), err)
	}
	p, _ := loader.FetchUnderlyingPrice(context.Background(), "SPY", day)
	if p == nil || *p != 451 {
		t.Errorf("expected underlying 451, got %v", p)
	}
}

func TestConvertManagerCompressed(t *testing.T) {
	tmpDir := t.TempDir()
	reader := &mockReader{contracts: map[string][]chain.Contract{"SPY": spyContracts()}}

	stgMgr := staging.NewManager(tmpDir)
	logger, _ := zap.NewDevelopment()
	mgr := NewManager(reader, stgMgr, 1, true, logger)

	result, err := mgr.Execute(context.Background(), Tasks([]string{"2025-01-10"}, []string{"SPY"}))
	if err != nil || result.Success != 1 {
		t.Fatalf("expected success, got %+v (%v)", result, err)
	}

	staged := filepath.Join(tmpDir, ".staging", "2025-01-10", "SPY", "chain.jsonl.zst")
	if _, err := os.Stat(staged); err != nil {
		t.Errorf("expected compressed chain at %s", staged)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".staging", "2025-01-10", "SPY", "underlying.json")); !os.IsNotExist(err) {
		t.Error("underlying.json should not be written without a price")
	}
}

func TestConvertManager_Resume(t *testing.T) {
	tmpDir := t.TempDir()
	reader := &mockReader{contracts: map[string][]chain.Contract{"SPY": spyContracts()}}

	stgMgr := staging.NewManager(tmpDir)
	logger, _ := zap.NewDevelopment()
	mgr := NewManager(reader, stgMgr, 1, false, logger)

	// Pre-create a file in the final directory
	task := Task{Ticker: "SPY", Date: "2025-01-10"}
	finalPath := task.ChainPath(tmpDir, false)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(finalPath, []byte("existing"), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := mgr.Execute(context.Background(), []Task{task})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}

	content, _ := os.ReadFile(finalPath)
	if string(content) != "existing" {
		t.Error("existing file was modified")
	}
}

func TestTask(t *testing.T) {
	task := Task{Ticker: "SPY", Date: "2025-01-10"}

	if got := task.ChainPath("data", true); got != filepath.Join("data", "2025-01-10", "SPY", "chain.jsonl.zst") {
		t.Errorf("unexpected ChainPath: %s", got)
	}
	if task.String() != "2025-01-10/SPY" {
		t.Errorf("unexpected String: %s", task.String())
	}
	if n := len(Tasks([]string{"a", "b"}, []string{"x", "y", "z"})); n != 6 {
		t.Errorf("expected 6 tasks, got %d", n)
	}
}
