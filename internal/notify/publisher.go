package notify

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer is the subset of *asynq.Client used to publish tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher enqueues notification tasks. A zero Publisher drops everything.
type Publisher struct {
	Client Enqueuer
	Logger zerolog.Logger
}

// OrderPlaced enqueues the confirmation email for a new order. A duplicate
// task for the same order is treated as success.
func (p Publisher) OrderPlaced(ctx context.Context, msg OrderConfirmation) error {
	if p.Client == nil {
		return nil
	}
	task, err := NewOrderConfirmationTask(msg)
	if err != nil {
		return err
	}
	info, err := p.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return err
	}
	p.Logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Str("order_number", msg.OrderNumber).Msg("order confirmation enqueued")
	return nil
}
