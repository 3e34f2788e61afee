package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDistinctWarmup re-primes the distinct-values cache.
	TaskDistinctWarmup = "catalog:distinct_warmup"
)

// DistinctWarmupPayload selects which columns to warm; empty means all.
type DistinctWarmupPayload struct {
	Columns []string `json:"columns,omitempty"`
}

// NewDistinctWarmupTask constructs the warmup task.
func NewDistinctWarmupTask(payload DistinctWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistinctWarmup, data), nil
}
