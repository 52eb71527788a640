package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/df07/go-lightpath/pkg/core"
)

// renderSlot is the per-worker state: a worker holds exactly one slot while
// it renders a tile, so a slot's sampler is never shared.
type renderSlot struct {
	ID      int
	Seed    int64
	Sampler *core.RandomSampler
}

// WorkerPool runs tile tasks on a dynamic worker pool. Completion is tracked
// with a WaitGroup because the pool's own Wait follows worker idling rather
// than task completion.
type WorkerPool struct {
	pool       worker.DynamicWorkerPool
	slots      chan *renderSlot
	numWorkers int

	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
}

// NewWorkerPool starts numWorkers workers. Worker i samples with seed baseSeed+i.
func NewWorkerPool(numWorkers, queueSize int, baseSeed int64, logger core.Logger) *WorkerPool {
	numWorkers = max(1, numWorkers)
	wp := &WorkerPool{
		pool:       worker.NewDynamicWorkerPool(numWorkers, max(1, queueSize), time.Second),
		slots:      make(chan *renderSlot, numWorkers),
		numWorkers: numWorkers,
	}
	for i := 0; i < numWorkers; i++ {
		seed := baseSeed + int64(i)
		logger.Printf("worker %d: sampler seed %d\n", i, seed)
		wp.slots <- &renderSlot{ID: i, Seed: seed, Sampler: core.NewSeededSampler(seed)}
	}
	return wp
}

// Submit queues a task. Tasks submitted after ctx is cancelled are skipped.
func (wp *WorkerPool) Submit(ctx context.Context, id int, do func(slot *renderSlot) error) {
	wp.wg.Add(1)
	wp.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer wp.wg.Done()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			slot := <-wp.slots
			defer func() { wp.slots <- slot }()

			err := do(slot)
			if err != nil {
				wp.mu.Lock()
				if wp.firstErr == nil {
					wp.firstErr = err
				}
				wp.mu.Unlock()
			}
			return nil, err
		},
	})
}

// Wait blocks until every submitted task has finished and returns the first task error
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.firstErr
}

// Stop shuts the workers down
func (wp *WorkerPool) Stop() {
	wp.pool.Stop()
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}
