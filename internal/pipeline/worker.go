package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/rs/zerolog/log"
)

// ReadFunc reads one file into a table.
type ReadFunc func(path string) (forecast.Table, error)

// Worker reads files concurrently with a fixed pool.
type Worker struct {
	config Config
	read   ReadFunc
}

func NewWorker(config Config, read ReadFunc) *Worker {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &Worker{config: config, read: read}
}

// ReadAll reads every path and returns the tables in input order. The first
// file that still fails after its retries aborts the run.
func (w *Worker) ReadAll(ctx context.Context, paths []string) ([]forecast.Table, Metrics, error) {
	start := time.Now()
	jobs := make([]*FileJob, len(paths))
	for i, p := range paths {
		jobs[i] = &FileJob{Index: i, Path: p, Status: FileStatusQueued}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(chan *FileJob)
	var wg sync.WaitGroup

	workerCount := w.config.WorkerCount
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				w.process(ctx, job)
				if job.Err != nil {
					log.Warn().
						Err(job.Err).
						Str("pipeline", w.config.Name).
						Int("worker", workerID).
						Str("file", job.Path).
						Msg("pipeline: file failed")
					cancel()
				}
			}
		}(i)
	}

enqueue:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)
	wg.Wait()

	metrics := Metrics{Elapsed: time.Since(start)}
	tables := make([]forecast.Table, len(jobs))
	var firstErr error
	for _, job := range jobs {
		switch job.Status {
		case FileStatusCompleted:
			metrics.FilesProcessed++
			metrics.RowsProcessed += len(job.Table.Rows)
			tables[job.Index] = job.Table
		case FileStatusFailed:
			metrics.ErrorCount++
			if firstErr == nil {
				firstErr = job.Err
			}
		}
	}

	if firstErr != nil {
		return nil, metrics, firstErr
	}
	if metrics.FilesProcessed < len(jobs) {
		return nil, metrics, fmt.Errorf("pipeline %s: %w", w.config.Name, ctx.Err())
	}

	log.Debug().
		Str("pipeline", w.config.Name).
		Int("files", metrics.FilesProcessed).
		Int("rows", metrics.RowsProcessed).
		Dur("elapsed", metrics.Elapsed).
		Msg("pipeline: read complete")
	return tables, metrics, nil
}

func (w *Worker) process(ctx context.Context, job *FileJob) {
	start := time.Now()
	job.Status = FileStatusProcessing

	for job.Attempts < w.config.RetryAttempts {
		if job.Attempts > 0 {
			select {
			case <-ctx.Done():
				job.Status = FileStatusFailed
				job.Err = fmt.Errorf("read %s: %w", job.Path, ctx.Err())
				return
			case <-time.After(w.config.RetryBackoff):
			}
		}
		job.Attempts++

		table, err := w.read(job.Path)
		if err == nil {
			job.Table = table
			job.Status = FileStatusCompleted
			job.Err = nil
			job.Duration = time.Since(start)
			return
		}
		job.Err = err
		if forecast.IsInputShapeError(err) {
			break
		}
	}

	job.Status = FileStatusFailed
	job.Duration = time.Since(start)
}
