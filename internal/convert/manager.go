// Package convert turns flat-file day aggregates into JSONL chain snapshots.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/staging"
)

// DayReader is the part of data.FlatFileLoader the converter needs.
type DayReader interface {
	DayContracts(ctx context.Context, ticker string, date time.Time) ([]chain.Contract, error)
	FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error)
}

type Manager struct {
	reader   DayReader
	staging  *staging.Manager
	workers  int
	compress bool
	logger   *zap.Logger
}

type BatchResult struct {
	Total     int
	Success   int
	Skipped   int
	NotFound  int
	Failed    int
	Contracts int
	Errors    []string
}

func NewManager(reader DayReader, staging *staging.Manager, workers int, compress bool, logger *zap.Logger) *Manager {
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		reader:   reader,
		staging:  staging,
		workers:  workers,
		compress: compress,
		logger:   logger,
	}
}

func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	result := &BatchResult{Total: len(tasks)}

	if len(tasks) == 0 {
		return result, nil
	}

	jobs := make(chan Task, len(tasks))
	results := make(chan TaskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			m.worker(ctx, workerID, jobs, results)
		}(i)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	for r := range results {
		switch {
		case r.Skipped:
			result.Skipped++
		case r.NotFound:
			result.NotFound++
		case r.Success:
			result.Success++
			result.Contracts += r.Contracts
		default:
			result.Failed++
			if r.Error != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, r.Error))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (m *Manager) worker(ctx context.Context, id int, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, task)

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, task Task) TaskResult {
	result := TaskResult{Task: task}

	// Check if file exists (resume)
	if _, err := os.Stat(task.ChainPath(m.staging.FinalDir(), m.compress)); err == nil {
		m.logger.Debug("skipping existing snapshot", zap.String("task", task.String()))
		result.Skipped = true
		result.Success = true
		return result
	}

	date, err := data.ParseDate(task.Date)
	if err != nil {
		result.Error = fmt.Errorf("invalid date: %w", err)
		return result
	}

	m.logger.Info("converting", zap.String("task", task.String()))

	contracts, err := m.reader.DayContracts(ctx, task.Ticker, date)
	if err != nil {
		result.Error = err
		return result
	}
	if len(contracts) == 0 {
		m.logger.Debug("no contracts", zap.String("task", task.String()))
		result.NotFound = true
		return result
	}

	price, err := m.reader.FetchUnderlyingPrice(ctx, task.Ticker, date)
	if err != nil {
		result.Error = err
		return result
	}

	size, err := m.staging.WriteAtomic(task.ChainPath(m.staging.StagingRoot(), m.compress), func(w io.Writer) error {
		return m.writeChain(w, contracts)
	})
	if err != nil {
		result.Error = err
		return result
	}

	if price != nil {
		n, err := m.staging.WriteAtomic(task.UnderlyingPath(m.staging.StagingRoot()), func(w io.Writer) error {
			return json.NewEncoder(w).Encode(data.UnderlyingSnapshot{Ticker: task.Ticker, Date: task.Date, Price: price})
		})
		if err != nil {
			result.Error = err
			return result
		}
		size += n
	} else {
		m.logger.Warn("no underlying price", zap.String("task", task.String()))
	}

	result.Success = true
	result.Contracts = len(contracts)
	result.BytesSize = size
	m.logger.Info("converted",
		zap.String("task", task.String()),
		zap.Int("contracts", len(contracts)),
		zap.Int64("bytes", size),
	)

	return result
}

func (m *Manager) writeChain(w io.Writer, contracts []chain.Contract) error {
	if !m.compress {
		return data.WriteChain(w, contracts)
	}
	zw, err := data.NewZstdWriter(w)
	if err != nil {
		return err
	}
	if err := data.WriteChain(zw, contracts); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
