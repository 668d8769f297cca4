package reportlog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

func sampleResult() domain.ReconstructionResult {
	return domain.ReconstructionResult{
		UserID:               uuid.New(),
		AlgorithmID:          domain.AlgorithmCGNR,
		StartTime:            time.Unix(1000, 0).UTC(),
		EndTime:              time.Unix(1002, 0).UTC(),
		ReconstructionTimeMs: 2000,
		ImagePixels:          domain.ImagePixels{Height: 30, Width: 30},
		Iterations:           42,
		F:                    make([]float64, 900),
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	log := New(path)

	if err := log.Append(sampleResult(), "img_1.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := log.Append(sampleResult(), "img_2.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 rows), got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "user_id,algorithm_id,") {
		t.Fatalf("first line is not the header: %q", lines[0])
	}
	if strings.Contains(lines[1], "user_id,algorithm_id") {
		t.Fatalf("header written twice")
	}
	if !strings.Contains(lines[1], `"(30,30)"`) {
		t.Fatalf("expected quoted image_pixels field, got %q", lines[1])
	}
}

func TestAppendConcurrentDoesNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	log := New(path)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append(sampleResult(), "img.png"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != n+1 {
		t.Fatalf("expected %d lines (header + %d rows), got %d", n+1, n, len(lines))
	}
	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) < 7 {
			t.Fatalf("row %d looks interleaved/corrupted: %q", i, line)
		}
	}
}
