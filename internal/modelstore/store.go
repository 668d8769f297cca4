// Package modelstore loads and caches the dense S×N forward-model matrix H
// for a named model id. Matrices are read from a row-major CSV on first use
// and retained for the lifetime of the process; a given model id is parsed
// at most once, per the spec's monotone-add cache invariant.
package modelstore

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

// Spec describes the fixed geometry and memory cost of one recognised
// model id. N is fixed by configuration; S is discovered from the first
// successfully parsed CSV for that model id.
type Spec struct {
	N      int
	CostMB int
}

// DefaultRegistry is the spec's §4.1/§4.6 model table.
var DefaultRegistry = map[string]Spec{
	"30x30": {N: 900, CostMB: 512},
	"60x60": {N: 3600, CostMB: 1536},
}

// Matrix is an immutable, shared, row-major S×N buffer.
type Matrix struct {
	ModelID string
	S, N    int
	Data    []float64 // row-major, length S*N
}

// Row returns row i of the matrix as a sub-slice (read-only by convention).
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.N : (i+1)*m.N]
}

type cacheEntry struct {
	once   sync.Once
	matrix *Matrix
	err    error
}

// Store caches parsed matrices keyed by model id. Safe for concurrent use.
type Store struct {
	dir      string
	registry map[string]Spec

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

// New creates a Store that reads H-{model_id}.csv files from dir using the
// given registry (nil selects DefaultRegistry).
func New(dir string, registry map[string]Spec) *Store {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Store{
		dir:      dir,
		registry: registry,
		cache:    make(map[string]*cacheEntry),
	}
}

// SpecFor returns modelID's registry entry (its N and memory cost), or
// ok=false if modelID is not recognised.
func (s *Store) SpecFor(modelID string) (Spec, bool) {
	spec, ok := s.registry[modelID]
	return spec, ok
}

// Get returns the cached (or newly loaded) matrix for modelID, verified
// against sampleLen (the length of the caller's g vector). S is the CSV's
// element count divided by N, fixed when the file is first loaded; any
// caller whose sampleLen differs from it receives ErrModelDimensionMismatch
// rather than triggering a reload, since the cache is monotone-add.
func (s *Store) Get(modelID string, sampleLen int) (*Matrix, error) {
	spec, ok := s.registry[modelID]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrUnknownModel, fmt.Errorf("unrecognised model_id %q", modelID))
	}

	entry := s.entryFor(modelID)
	entry.once.Do(func() {
		entry.matrix, entry.err = s.load(modelID, spec)
	})
	if entry.err != nil {
		return nil, entry.err
	}
	if entry.matrix.S != sampleLen {
		return nil, domain.NewDomainError(domain.ErrModelDimensionMismatch,
			fmt.Errorf("model %q expects g of length %d, got %d", modelID, entry.matrix.S, sampleLen))
	}
	return entry.matrix, nil
}

func (s *Store) entryFor(modelID string) *cacheEntry {
	s.mu.RLock()
	e, ok := s.cache[modelID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.cache[modelID]; ok {
		return e
	}
	e = &cacheEntry{}
	s.cache[modelID] = e
	return e
}

func (s *Store) load(modelID string, spec Spec) (*Matrix, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("H-%s.csv", modelID))
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrModelParse, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	values, err := parseFloatCSV(f)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrModelParse, fmt.Errorf("parse %s: %w", path, err))
	}

	if spec.N == 0 || len(values)%spec.N != 0 {
		return nil, domain.NewDomainError(domain.ErrModelDimensionMismatch,
			fmt.Errorf("%s: %d elements not divisible by N=%d", path, len(values), spec.N))
	}
	sSamples := len(values) / spec.N

	return &Matrix{
		ModelID: modelID,
		S:       sSamples,
		N:       spec.N,
		Data:    values,
	}, nil
}

// parseFloatCSV reads a headerless CSV of float64 values, in either
// row-major matrix form or single-column form, and returns all elements in
// row-major reading order.
func parseFloatCSV(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var values []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, field := range record {
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float %q: %w", field, err)
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no numeric data found")
	}
	return values, nil
}
