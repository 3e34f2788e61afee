package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-catalog/internal/catalog"
)

// DistinctWarmupJob re-primes the distinct-values cache so the first
// dashboard request after an invalidation does not pay the store round trip.
type DistinctWarmupJob struct {
	Service *catalog.Service
	Logger  *slog.Logger
}

// NewDistinctWarmupJob wires dependencies for the warmup handler.
func NewDistinctWarmupJob(service *catalog.Service, logger *slog.Logger) *DistinctWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DistinctWarmupJob{Service: service, Logger: logger}
}

// Handle processes distinct warmup tasks.
func (j *DistinctWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("distinct warmup: handler not configured")
	}
	var payload DistinctWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	columns := payload.Columns
	if len(columns) == 0 {
		columns = []string{catalog.ColumnCategory, catalog.ColumnProductType}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, column := range columns {
		g.Go(func() error {
			var err error
			switch column {
			case catalog.ColumnCategory:
				_, err = j.Service.Categories(ctx)
			case catalog.ColumnProductType:
				_, err = j.Service.ProductTypes(ctx)
			default:
				j.Logger.Warn("distinct warmup: unknown column", slog.String("column", column))
				return nil
			}
			if err != nil {
				j.Logger.Error("distinct warmup failed", slog.String("column", column), slog.Any("error", err))
				return err
			}
			j.Logger.Info("distinct warmup ok", slog.String("column", column))
			return nil
		})
	}
	return g.Wait()
}
