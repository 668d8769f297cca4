// Package orchestrator binds incoming requests to queued jobs and awaits
// their completion, mapping worker outcomes to the caller-facing result or
// error. Grounded on original_source/server/src/main.rs::handle_reconstruction,
// translated from a oneshot channel + sentinel result into Go channels
// carrying the explicit domain.JobOutcome (resolving the spec's own
// sentinel-error-detection open question).
package orchestrator

import (
	"context"
	"fmt"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
	"github.com/TKach1/image-reconstruction-go/internal/modelstore"
	"github.com/TKach1/image-reconstruction-go/internal/queue"
)

// Orchestrator validates requests, admits them to the Queue, and awaits
// their outcome.
type Orchestrator struct {
	queue *queue.Queue
	store *modelstore.Store
}

// New creates an Orchestrator fronting q, validating model ids against
// store's registry.
func New(q *queue.Queue, store *modelstore.Store) *Orchestrator {
	return &Orchestrator{queue: q, store: store}
}

// Handle validates req, enqueues it, and blocks until the dispatcher
// delivers an outcome or ctx is cancelled.
func (o *Orchestrator) Handle(ctx context.Context, req domain.ReconstructionRequest) (domain.ReconstructionResult, error) {
	if req.AlgorithmID != domain.AlgorithmCGNR && req.AlgorithmID != domain.AlgorithmCGNE {
		return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrUnknownAlgorithm,
			fmt.Errorf("unrecognised algorithm_id %q", req.AlgorithmID))
	}
	if _, ok := o.store.SpecFor(req.ModelID); !ok {
		return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrUnknownModel,
			fmt.Errorf("unrecognised model_id %q", req.ModelID))
	}

	job := queue.Job{
		Request: req,
		Reply:   make(chan domain.JobOutcome, 1),
	}
	if !o.queue.Offer(job) {
		return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrQueueFull,
			fmt.Errorf("reconstruction queue is full"))
	}

	select {
	case outcome, ok := <-job.Reply:
		if !ok {
			return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrInternalDispatcherFailure,
				fmt.Errorf("reply channel closed without a value"))
		}
		if outcome.Err != nil {
			return domain.ReconstructionResult{}, outcome.Err
		}
		if outcome.Result == nil {
			return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrInternalDispatcherFailure,
				fmt.Errorf("worker reported success with no result"))
		}
		return *outcome.Result, nil
	case <-ctx.Done():
		// The spec's cancellation rule: a client disconnecting does not
		// cancel the in-flight job. We simply stop waiting on it; the
		// dispatcher's buffered reply channel means its eventual send
		// never blocks, so the job's side effects (image, report) still
		// complete independent of this return.
		return domain.ReconstructionResult{}, ctx.Err()
	}
}
