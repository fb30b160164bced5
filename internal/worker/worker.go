// Package worker implements background task handlers for asynchronous cache
// refresh.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"marketgateway/internal/service"
)

// RefreshProcessor is the service surface the task handler needs.
type RefreshProcessor interface {
	ProcessRefresh(ctx context.Context, refreshID, class, symbol string) error
}

// NewRefreshHandler returns a function to handle quote refresh tasks.
func NewRefreshHandler(svc RefreshProcessor, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.RefreshQuotePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}

		err := svc.ProcessRefresh(ctx, payload.RefreshID, payload.AssetClass, payload.Symbol)
		if err != nil {
			logger.Errorw("Task processing failed", "refresh_id", payload.RefreshID, "symbol", payload.Symbol, "error", err)
			return err
		}
		return nil
	}
}

// AsynqEnqueuer submits refresh tasks to an Asynq queue with retry and
// timeout settings from config.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueRefreshTask enqueues a quote refresh task with the given payload.
func (e *AsynqEnqueuer) EnqueueRefreshTask(ctx context.Context, payload service.RefreshQuotePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(service.TaskTypeRefreshQuote, data,
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)

	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

var _ service.Enqueuer = (*AsynqEnqueuer)(nil)
