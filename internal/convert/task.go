package convert

import (
	"fmt"
	"path/filepath"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
)

// Task converts one ticker's flat-file day into a snapshot directory.
type Task struct {
	Ticker string
	Date   string
}

// ChainPath returns the chain file location for the task under baseDir.
func (t Task) ChainPath(baseDir string, compress bool) string {
	name := data.ChainFile
	if compress {
		name += ".zst"
	}
	return filepath.Join(baseDir, t.Date, t.Ticker, name)
}

func (t Task) UnderlyingPath(baseDir string) string {
	return filepath.Join(baseDir, t.Date, t.Ticker, data.UnderlyingFile)
}

func (t Task) String() string {
	return fmt.Sprintf("%s/%s", t.Date, t.Ticker)
}

type TaskResult struct {
	Task      Task
	Success   bool
	Skipped   bool
	NotFound  bool
	Contracts int
	BytesSize int64
	Error     error
}

// Tasks builds the cross product of dates and tickers.
func Tasks(dates, tickers []string) []Task {
	tasks := make([]Task, 0, len(dates)*len(tickers))
	for _, date := range dates {
		for _, ticker := range tickers {
			tasks = append(tasks, Task{Ticker: data.NormalizeTicker(ticker), Date: date})
		}
	}
	return tasks
}
