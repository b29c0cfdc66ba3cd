package worker

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// Status is a snapshot of one scheduler loop, exposed on the ops
// surface.
type Status struct {
	Name      string    `json:"name"`
	LastCycle time.Time `json:"last_cycle"`
	LastError string    `json:"last_error,omitempty"`
}

// Worker is a long-running scheduler loop
type Worker interface {
	Start(ctx context.Context) error
	Stop()
	Status() Status
}

// runner is the loop machinery shared by all schedulers.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - The store is the only cross-driver synchronization point
//
// Every cycle error (including panics) is swallowed at the top of the
// loop body: unattended availability takes priority over surfacing
// individual failures. The shutdown signal is observed once per outer
// iteration; a batch in flight runs to completion.
type runner struct {
	name     string
	interval time.Duration
	cycle    func(ctx context.Context) error

	// checkpoints, when set, closes the restart-duplication gap of the
	// wall-clock guard with a persisted last-run marker.
	checkpoints interfaces.CheckpointRepository
	now         func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}

	mu        sync.Mutex
	lastCycle time.Time
	lastError string
}

func newRunner(name string, interval time.Duration, cycle func(ctx context.Context) error) *runner {
	return &runner{
		name:     name,
		interval: interval,
		cycle:    cycle,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine. The first
// cycle runs immediately so a restart does not wait a full interval to
// re-check its wall-clock condition.
func (r *runner) Start(ctx context.Context) error {
	logging.From(ctx).Info("scheduler starting",
		"name", r.name,
		"interval", r.interval.String())

	go r.run(ctx)

	return nil
}

// Stop signals the loop to stop and waits for completion
func (r *runner) Stop() {
	logging.Default().Info("scheduler stopping", "name", r.name)
	close(r.stopCh)
	<-r.doneCh
	logging.Default().Info("scheduler stopped", "name", r.name)
}

// Status returns a snapshot of the loop state
func (r *runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Name:      r.name,
		LastCycle: r.lastCycle,
		LastError: r.lastError,
	}
}

func (r *runner) run(ctx context.Context) {
	defer close(r.doneCh)

	r.safeCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.safeCycle(ctx)

		case <-r.stopCh:
			logging.From(ctx).Info("scheduler received stop signal", "name", r.name)
			return

		case <-ctx.Done():
			logging.From(ctx).Info("scheduler context cancelled", "name", r.name)
			return
		}
	}
}

// safeCycle runs one cycle, converting errors and panics into log
// entries so the loop always reaches its next sleep.
func (r *runner) safeCycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.From(ctx).Error("scheduler cycle panicked (will resume next interval)",
				"name", r.name, "panic", rec)
			r.record("panic in cycle")
		}
	}()

	err := r.cycle(ctx)
	if err != nil {
		logging.From(ctx).Error("scheduler cycle failed (will retry next interval)",
			"name", r.name, "error", err.Error())
		r.record(err.Error())
		return
	}
	r.record("")
}

func (r *runner) record(errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCycle = r.now()
	r.lastError = errMsg
}

// ranOn reports whether the persisted checkpoint shows the job already
// ran on the given calendar day. Without a checkpoint repository the
// guard is wall-clock only and this always reports false.
func (r *runner) ranOn(ctx context.Context, day time.Time) bool {
	if r.checkpoints == nil {
		return false
	}
	last, err := r.checkpoints.GetLastRun(ctx, r.name)
	if err != nil {
		logging.From(ctx).Warn("failed to read scheduler checkpoint", "name", r.name, "error", err.Error())
		return false
	}
	y1, m1, d1 := last.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// markRan persists the checkpoint after a successful dated cycle
func (r *runner) markRan(ctx context.Context, day time.Time) {
	if r.checkpoints == nil {
		return
	}
	if err := r.checkpoints.PutLastRun(ctx, r.name, day); err != nil {
		logging.From(ctx).Warn("failed to write scheduler checkpoint", "name", r.name, "error", err.Error())
	}
}
