package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Sink enqueues transition events onto Redis for the notification and chat
// subsystems. Enqueueing is fire-and-forget from the lifecycle's point of
// view: a failed enqueue is reported to the caller for logging but never
// rolls back a committed transition.
type Sink struct {
	client *asynq.Client
}

// NewSink connects a client to the given Redis address.
func NewSink(redisAddr string) *Sink {
	return &Sink{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the underlying Redis connection.
func (s *Sink) Close() error {
	return s.client.Close()
}

// CollaborationEvent enqueues one transition event.
func (s *Sink) CollaborationEvent(event string, collaborationID, actorID uuid.UUID, at time.Time) error {
	payload := CollaborationEventPayload{
		Event:           event,
		CollaborationID: collaborationID,
		ActorID:         actorID,
		Timestamp:       at,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("alerts: marshal %s: %w", event, err)
	}
	task := asynq.NewTask(TaskCollaborationEvent, b)
	if _, err := s.client.Enqueue(task, asynq.Queue(QueueNotifications)); err != nil {
		return fmt.Errorf("alerts: enqueue %s: %w", event, err)
	}
	return nil
}
