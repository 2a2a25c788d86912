// Package job provides background job processing using Asynq.
//
// With Redis configured, tasks are enqueued through an asynq.Client and
// processed by an asynq.Server. Without Redis the same handlers run inline,
// dispatched through the asynq.ServeMux in a goroutine, so callers never need
// to know which mode is active.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/lib/metrics"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// inlineTimeout bounds a task run without Redis.
const inlineTimeout = 2 * time.Minute

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is nil in inline mode.
	Client *asynq.Client

	server  *asynq.Server
	mux     *asynq.ServeMux
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	inline   bool
	inflight sync.WaitGroup

	scheduler *Scheduler
}

// NewJobService creates a JobService backed by Redis when cfg has an address,
// inline otherwise.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, m *metrics.Metrics) *JobService {
	if !cfg.Redis.Enabled() {
		return NewInlineJobService(logger, m)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	j := &JobService{
		Client:  asynq.NewClient(redisOpt),
		mux:     asynq.NewServeMux(),
		logger:  logger,
		metrics: m,
	}

	// Out of 10 workers roughly 6 serve critical (alerts), 3 default, 1 low.
	j.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		Logger: asynqLogger{logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error().
				Err(err).
				Str("type", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("task failed")
		}),
	})
	return j
}

// NewInlineJobService runs every task in-process.
func NewInlineJobService(logger *zerolog.Logger, m *metrics.Metrics) *JobService {
	return &JobService{
		mux:     asynq.NewServeMux(),
		logger:  logger,
		metrics: m,
		inline:  true,
	}
}

// Inline reports whether tasks bypass Redis.
func (j *JobService) Inline() bool {
	return j.inline
}

// RegisterHandler routes taskType to h. Handlers must be registered before Start.
func (j *JobService) RegisterHandler(taskType string, h func(ctx context.Context, t *asynq.Task) error) {
	j.mux.HandleFunc(taskType, j.instrument(taskType, h))
}

func (j *JobService) instrument(taskType string, h func(context.Context, *asynq.Task) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := h(ctx, t)
		j.metrics.RecordJob(taskType, err)

		event := j.logger.Info()
		if err != nil {
			event = j.logger.Error().Err(err)
		}
		event.
			Str("type", taskType).
			Dur("duration", time.Since(start)).
			Msg("task processed")
		return err
	}
}

// Enqueue schedules t. In inline mode it returns as soon as the task is handed
// to a goroutine; the task outlives ctx cancellation.
func (j *JobService) Enqueue(ctx context.Context, t *asynq.Task, opts ...asynq.Option) error {
	if j.inline {
		j.inflight.Add(1)
		go func() {
			defer j.inflight.Done()

			runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineTimeout)
			defer cancel()

			if err := j.mux.ProcessTask(runCtx, t); err != nil {
				j.logger.Error().Err(err).Str("type", t.Type()).Msg("inline task failed")
			}
		}()
		return nil
	}

	info, err := j.Client.EnqueueContext(ctx, t, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", t.Type(), err)
	}

	j.logger.Debug().
		Str("type", t.Type()).
		Str("id", info.ID).
		Str("queue", info.Queue).
		Msg("task enqueued")
	return nil
}

// Run processes t synchronously through the registered handlers.
func (j *JobService) Run(ctx context.Context, t *asynq.Task) error {
	return j.mux.ProcessTask(ctx, t)
}

// Wait blocks until every inline task has finished.
func (j *JobService) Wait() {
	j.inflight.Wait()
}

// Start launches the worker server (Redis mode) and the scheduler, if any.
// Neither blocks.
func (j *JobService) Start() error {
	if j.server != nil {
		j.logger.Info().Msg("starting background job server")
		if err := j.server.Start(j.mux); err != nil {
			return err
		}
	} else {
		j.logger.Info().Msg("redis not configured, background jobs run inline")
	}

	if j.scheduler != nil {
		j.scheduler.Start()
	}
	return nil
}

// Stop stops the scheduler, drains workers and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")

	if j.scheduler != nil {
		j.scheduler.Stop()
	}
	if j.server != nil {
		j.server.Shutdown()
	}
	if j.Client != nil {
		_ = j.Client.Close()
	}
	j.inflight.Wait()
}

// asynqLogger adapts zerolog to asynq.Logger.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
