// Package scheduler implements the memory-weighted counting semaphore from
// spec §4.6: a worker acquires a number of fixed-size memory units
// proportional to its model's working-set estimate before running, and
// releases them on every exit path. Grounded on the teacher's
// `s.sem <- struct{}{}` / `defer func(){ <-s.sem }()` pattern, generalised
// from a 1-unit-per-request semaphore to N units per job, with multi-unit
// acquisition made atomic via a mutex-guarded counter (a channel of permits
// can't grant >1 unit atomically: two concurrent multi-unit Acquire calls
// can each drain part of the total and then block forever on the rest).
package scheduler

import (
	"fmt"
	"sync"
)

// UnitMB is the fixed size of one memory-unit quantum (§4.6).
const UnitMB = 512

// UnitsForCost converts a model's estimated working-set cost in MB into a
// number of memory-unit quanta (cost_mb / UnitMB, minimum 1), per §4.6's
// model cost table.
func UnitsForCost(costMB int) int {
	units := costMB / UnitMB
	if units < 1 {
		units = 1
	}
	return units
}

// Scheduler is a counting semaphore over memory-unit quanta. Acquire grants
// units atomically: a request either gets all the units it asked for or
// blocks without holding any of them, so concurrent multi-unit acquisitions
// can never deadlock each other.
type Scheduler struct {
	mu        sync.Mutex
	cond      *sync.Cond
	available int
	capacity  int
}

// New creates a Scheduler with totalRAMMB worth of capacity, expressed in
// UnitMB-sized quanta (minimum 1 unit).
func New(totalRAMMB int) *Scheduler {
	capacity := totalRAMMB / UnitMB
	if capacity < 1 {
		capacity = 1
	}
	s := &Scheduler{available: capacity, capacity: capacity}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Capacity returns the total number of memory units.
func (s *Scheduler) Capacity() int { return s.capacity }

// Available returns the number of currently free units (best-effort,
// racy by nature of a live semaphore — intended for status reporting).
func (s *Scheduler) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Guard is a scoped reservation of units; Release must be called exactly
// once, typically via defer, on every exit path including panics.
type Guard struct {
	scheduler *Scheduler
	units     int
}

// Acquire blocks until units permits are available, granting them all in one
// atomic step, then returns a Guard. It returns an error without blocking if
// units exceeds the scheduler's total capacity (ModelExceedsCapacity is
// constructed by the caller, which knows the model id).
func (s *Scheduler) Acquire(units int) (*Guard, error) {
	if units < 1 {
		units = 1
	}
	if units > s.capacity {
		return nil, fmt.Errorf("requested %d units exceeds total capacity %d", units, s.capacity)
	}
	s.mu.Lock()
	for s.available < units {
		s.cond.Wait()
	}
	s.available -= units
	s.mu.Unlock()
	return &Guard{scheduler: s, units: units}, nil
}

// Release returns the guard's units to the semaphore. Safe to call from a
// deferred function, including after a recovered panic. Calling Release
// more than once on the same Guard is a programming error; Release is not
// idempotent, matching the teacher's single-defer-release pattern.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	s := g.scheduler
	s.mu.Lock()
	s.available += g.units
	s.mu.Unlock()
	s.cond.Broadcast()
}
