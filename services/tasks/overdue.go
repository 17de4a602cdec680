package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeOverdueSweep = "invoice:overdue-sweep"

// OverdueSweepPayload pins the sweep to a point in time. A zero AsOf means "when the task runs".
type OverdueSweepPayload struct {
	AsOf time.Time `json:"asOf,omitempty"`
}

func NewOverdueSweepTask(asOf time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(OverdueSweepPayload{AsOf: asOf})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOverdueSweep, b)
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(2 * time.Minute)}

	return task, opts, nil
}

// ParseOverdueSweep decodes a sweep payload and resolves its effective time.
func ParseOverdueSweep(task *asynq.Task, now time.Time) (time.Time, error) {
	var p OverdueSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return time.Time{}, err
		}
	}
	if p.AsOf.IsZero() {
		return now, nil
	}
	return p.AsOf, nil
}
