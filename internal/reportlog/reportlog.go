// Package reportlog appends one CSV row per completed reconstruction job to
// an append-only report file, writing a header iff the file is empty at
// open time. The original Rust server left this as a "//RELATORIO FINAL"
// TODO; this implementation fulfils the spec's §4.4 contract.
package reportlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

var header = []string{
	"user_id", "algorithm_id", "start_time", "end_time",
	"reconstruction_ms", "image_pixels", "iterations", "image_filename",
}

// Log is a single-writer-serialised append-only CSV report.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a Log that appends to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Append writes one row for result and imageFilename, writing the
// header first iff the file is empty at open time.
func (l *Log) Append(result domain.ReconstructionResult, imageFilename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	needsHeader, err := l.fileIsEmpty()
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	row := []string{
		result.UserID.String(),
		string(result.AlgorithmID),
		result.StartTime.Format(time.RFC3339),
		result.EndTime.Format(time.RFC3339),
		strconv.FormatInt(result.ReconstructionTimeMs, 10),
		fmt.Sprintf("(%d,%d)", result.ImagePixels.Height, result.ImagePixels.Width),
		strconv.Itoa(result.Iterations),
		imageFilename,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (l *Log) fileIsEmpty() (bool, error) {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}
