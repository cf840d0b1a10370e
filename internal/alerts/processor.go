package alerts

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// RunProcessor starts the asynq worker that drains the notifications queue.
// Actual delivery (in-app notification rows, chat messages, emails) belongs
// to the notification subsystem; this worker hands events over by logging
// them in a structured form it can tail. Blocks until the server stops.
func RunProcessor(redisAddr string, logger *slog.Logger) error {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{QueueNotifications: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCollaborationEvent, func(ctx context.Context, t *asynq.Task) error {
		var p CollaborationEventPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Error("malformed collaboration event payload", "error", err)
			return nil // drop it, retrying cannot fix the payload
		}
		logger.Info("collaboration event",
			"type", p.Event,
			"collaboration_id", p.CollaborationID,
			"actor_id", p.ActorID,
			"timestamp", p.Timestamp,
		)
		return nil
	})

	return server.Run(mux)
}
