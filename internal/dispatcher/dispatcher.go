// Package dispatcher drains the admission queue and runs one goroutine per
// job: it reserves memory units from the scheduler, loads H, runs the
// solver, writes the PNG, appends the report row, and replies on the job's
// one-shot channel, releasing memory units on every exit path including a
// recovered panic. Grounded on original_source/server/src/main.rs's
// dispatcher loop (tokio::spawn + spawn_blocking), translated into a single
// dispatcher goroutine that fans out per-job goroutines.
package dispatcher

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
	"github.com/TKach1/image-reconstruction-go/internal/imagesink"
	"github.com/TKach1/image-reconstruction-go/internal/modelstore"
	"github.com/TKach1/image-reconstruction-go/internal/queue"
	"github.com/TKach1/image-reconstruction-go/internal/reportlog"
	"github.com/TKach1/image-reconstruction-go/internal/scheduler"
	"github.com/TKach1/image-reconstruction-go/internal/solver"
)

// Dispatcher owns the per-job pipeline's collaborators.
type Dispatcher struct {
	queue     *queue.Queue
	store     *modelstore.Store
	scheduler *scheduler.Scheduler
	sink      *imagesink.Sink
	report    *reportlog.Log
}

// New creates a Dispatcher. Run must be called (typically in its own
// goroutine) to begin draining the queue.
func New(q *queue.Queue, store *modelstore.Store, sched *scheduler.Scheduler, sink *imagesink.Sink, report *reportlog.Log) *Dispatcher {
	return &Dispatcher{queue: q, store: store, scheduler: sched, sink: sink, report: report}
}

// Run ranges over the queue's jobs until it is closed, spawning one
// goroutine per job. It is the single consumer of the queue, per spec §4.5.
func (d *Dispatcher) Run() {
	for job := range d.queue.Jobs() {
		go d.runJob(job)
	}
}

func (d *Dispatcher) runJob(job queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("model_id", job.Request.ModelID).Msg("worker panicked; permits released, job failed")
			d.reply(job, domain.JobOutcome{Err: domain.NewDomainError(domain.ErrInternalDispatcherFailure, fmt.Errorf("worker panicked: %v", r))})
		}
	}()

	spec, ok := d.store.SpecFor(job.Request.ModelID)
	if !ok {
		d.reply(job, domain.JobOutcome{Err: domain.NewDomainError(domain.ErrUnknownModel, fmt.Errorf("unrecognised model_id %q", job.Request.ModelID))})
		return
	}
	units := scheduler.UnitsForCost(spec.CostMB)
	if units > d.scheduler.Capacity() {
		d.reply(job, domain.JobOutcome{Err: domain.NewDomainError(domain.ErrModelExceedsCapacity,
			fmt.Errorf("model %q needs %d units but total capacity is %d", job.Request.ModelID, units, d.scheduler.Capacity()))})
		return
	}

	guard, err := d.scheduler.Acquire(units)
	if err != nil {
		d.reply(job, domain.JobOutcome{Err: domain.NewDomainError(domain.ErrModelExceedsCapacity, err)})
		return
	}
	defer guard.Release()

	h, err := d.store.Get(job.Request.ModelID, len(job.Request.G))
	if err != nil {
		d.reply(job, domain.JobOutcome{Err: err})
		return
	}

	result, err := solver.Solve(job.Request.AlgorithmID, h, job.Request.G, job.Request.UserID)
	if err != nil {
		d.reply(job, domain.JobOutcome{Err: err})
		return
	}

	filename, saveErr := d.sink.Save(result)
	if saveErr != nil {
		log.Error().Err(saveErr).Str("user_id", job.Request.UserID.String()).Msg("image save failed; report will record save_failed")
		filename = "save_failed"
	}

	if err := d.report.Append(result, filename); err != nil {
		log.Error().Err(err).Msg("report append failed")
	}

	d.reply(job, domain.JobOutcome{Result: &result})
}

// reply delivers outcome on job.Reply. The channel has buffer 1 (set by the
// orchestrator), so this never blocks even if the client already gave up —
// per spec §4.8's cancellation rule, the worker's send fails silently in
// that sense (nobody is listening) but the job's side effects above have
// already completed regardless.
func (d *Dispatcher) reply(job queue.Job, outcome domain.JobOutcome) {
	select {
	case job.Reply <- outcome:
	default:
		log.Warn().Str("model_id", job.Request.ModelID).Msg("responder dropped: reply channel was not ready to receive")
	}
}
