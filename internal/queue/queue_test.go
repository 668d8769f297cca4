package queue

import (
	"testing"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

func TestOfferAcceptsUntilCapacity(t *testing.T) {
	q := New(3)
	for i := 0; i < 3; i++ {
		job := Job{Reply: make(chan domain.JobOutcome, 1)}
		if !q.Offer(job) {
			t.Fatalf("offer %d: expected accepted", i)
		}
	}
	if q.Offer(Job{Reply: make(chan domain.JobOutcome, 1)}) {
		t.Fatal("expected the 4th offer into a capacity-3 queue to be rejected")
	}
}

func TestOfferDeliversFIFO(t *testing.T) {
	q := New(5)
	for i := 0; i < 5; i++ {
		req := domain.ReconstructionRequest{ModelID: string(rune('a' + i))}
		if !q.Offer(Job{Request: req, Reply: make(chan domain.JobOutcome, 1)}) {
			t.Fatalf("offer %d rejected unexpectedly", i)
		}
	}
	for i := 0; i < 5; i++ {
		job := <-q.Jobs()
		want := string(rune('a' + i))
		if job.Request.ModelID != want {
			t.Fatalf("job %d: model_id = %q, want %q (FIFO violated)", i, job.Request.ModelID, want)
		}
	}
}
