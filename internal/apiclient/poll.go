package apiclient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

const DefaultPollInterval = 2 * time.Second

// Poll runs check immediately and then every interval until it reports done,
// returns an error, or ctx ends. Errors stop the loop; nothing is retried.
func Poll(ctx context.Context, interval time.Duration, check func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitImport polls the import job until it leaves PENDING/PARSING. READY
// counts as terminal here since the rows are then available for review.
func (i ImportsAPI) WaitImport(ctx context.Context, id uuid.UUID, interval time.Duration) (*model.PriceImportJob, error) {
	var job *model.PriceImportJob
	err := Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		current, err := i.Get(ctx, id)
		if err != nil {
			return false, err
		}
		job = current
		return current.Status.Settled(), nil
	})
	if err != nil {
		return job, err
	}
	return job, nil
}
