package cron

import (
	"context"
	"fmt"
	"time"

	"agencyhub/services/billing"
	"agencyhub/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// OverdueWorker runs the asynq server that processes overdue sweeps and the scheduler that
// enqueues them on a cron schedule.
type OverdueWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewOverdueWorker registers the sweep handler and the periodic sweep task.
func NewOverdueWorker(redisOpts asynq.RedisClientOpt, cronSpec string, svc billing.BillingService, logger *zap.Logger) (*OverdueWorker, error) {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeOverdueSweep, handleOverdueSweep(svc, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	task, opts, err := tasks.NewOverdueSweepTask(time.Time{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cronSpec, task, opts...); err != nil {
		return nil, fmt.Errorf("invalid overdue sweep schedule %q: %w", cronSpec, err)
	}

	return &OverdueWorker{server: srv, scheduler: scheduler, mux: mux, logger: logger}, nil
}

// Start runs the server and scheduler in the background, retrying the server start with
// backoff.
func (w *OverdueWorker) Start() {
	go func() {
		w.logger.Info("Starting overdue sweep worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.server.Start(w.mux)
			if err == nil {
				break
			}
			w.logger.Warn("Failed to start worker", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("Max worker start attempts reached, overdue sweeps disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}

		if err := w.scheduler.Start(); err != nil {
			w.logger.Error("Failed to start overdue sweep scheduler", zap.Error(err))
		}
	}()
}

// Shutdown stops the scheduler and waits for in-flight tasks.
func (w *OverdueWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

func handleOverdueSweep(svc billing.BillingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		asOf, err := tasks.ParseOverdueSweep(task, time.Now().UTC())
		if err != nil {
			logger.Error("Invalid overdue sweep payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		n, err := svc.MarkOverdueInvoices(ctx, asOf)
		if err != nil {
			logger.Error("Overdue sweep failed", zap.Error(err))
			return err
		}
		logger.Debug("Overdue sweep finished", zap.Int64("marked", n), zap.Time("asOf", asOf))
		return nil
	}
}
