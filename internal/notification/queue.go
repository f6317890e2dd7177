package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeNotificationSend = "notification:send"

func NewNotificationTask(n model.Notification) (*asynq.Task, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationSend, b), nil
}

// Enqueuer реализует *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue передаёт уведомления фоновому воркеру.
type Queue struct {
	client Enqueuer
	logger *zap.Logger
}

func NewQueue(client Enqueuer, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) Notify(ctx context.Context, n model.Notification) error {
	task, err := NewNotificationTask(n)
	if err != nil {
		return fmt.Errorf("build notification task: %w", err)
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	q.logger.Debug("Notification queued",
		zap.String("task_id", info.ID),
		zap.String("title", n.Title),
	)
	return nil
}
