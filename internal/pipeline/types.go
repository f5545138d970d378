package pipeline

import (
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
)

// Config controls a file read run.
type Config struct {
	Name          string
	WorkerCount   int           // Number of concurrent readers
	RetryAttempts int           // Attempts per file, including the first
	RetryBackoff  time.Duration // Wait between attempts
}

// DefaultConfig returns the defaults used by the seed command.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		WorkerCount:   4,
		RetryAttempts: 2,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// FileJobStatus represents the state of a single file read
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// FileJob tracks one file through the pool.
type FileJob struct {
	Index    int
	Path     string
	Status   FileJobStatus
	Attempts int
	Table    forecast.Table
	Err      error
	Duration time.Duration
}

// Metrics summarizes a finished run.
type Metrics struct {
	FilesProcessed int
	RowsProcessed  int
	ErrorCount     int
	Elapsed        time.Duration
}
