package priceimport

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrPoolStopped = errors.New("import pool stopped")

// Processor parses one job. Failures are recorded on the job by the
// processor itself; the returned error is only logged.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// Pool runs parse jobs on a fixed number of goroutines.
type Pool struct {
	workers int
	queue   chan uuid.UUID
	done    <-chan struct{}
	group   *errgroup.Group
	log     zerolog.Logger
}

func NewPool(workers, queueSize int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		workers: workers,
		queue:   make(chan uuid.UUID, queueSize),
		log:     log,
	}
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until all of them have returned.
func (p *Pool) Start(ctx context.Context, processor Processor) {
	group, ctx := errgroup.WithContext(ctx)
	p.group = group
	p.done = ctx.Done()
	for i := 0; i < p.workers; i++ {
		worker := i
		group.Go(func() error {
			p.run(ctx, worker, processor)
			return nil
		})
	}
}

// Enqueue hands a job id to the workers, blocking while the queue is full.
// Ids queued before Start are picked up once the workers run.
func (p *Pool) Enqueue(ctx context.Context, id uuid.UUID) error {
	select {
	case <-p.done:
		return ErrPoolStopped
	default:
	}
	select {
	case p.queue <- id:
		return nil
	case <-p.done:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Wait() error {
	if p.group == nil {
		return nil
	}
	return p.group.Wait()
}

func (p *Pool) run(ctx context.Context, worker int, processor Processor) {
	log := p.log.With().Int("worker", worker).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.queue:
			if err := processor.Process(ctx, id); err != nil {
				log.Error().Err(err).Str("job_id", id.String()).Msg("process import job")
				continue
			}
			log.Debug().Str("job_id", id.String()).Msg("import job parsed")
		}
	}
}
