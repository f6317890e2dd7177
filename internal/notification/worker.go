package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Deliverer доставляет уведомление из очереди.
type Deliverer interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Worker разбирает очередь уведомлений и доставляет их.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, deliverer Deliverer, logger *zap.Logger) *Worker {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationSend, HandleNotificationTask(deliverer, logger))

	return &Worker{server: server, mux: mux, logger: logger}
}

// Start запускает воркер в фоне.
func (w *Worker) Start() error {
	w.logger.Info("Starting notification worker")
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.logger.Info("Stopping notification worker")
	w.server.Shutdown()
}

func HandleNotificationTask(deliverer Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var n model.Notification
		if err := json.Unmarshal(task.Payload(), &n); err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
		}

		if err := deliverer.Notify(ctx, n); err != nil {
			logger.Warn("Notification delivery failed",
				zap.String("role", string(n.Recipient.Role)),
				zap.Int64("user_id", n.Recipient.UserID),
				zap.String("title", n.Title),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
}
