package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Task type names routed through asynq.
const (
	TaskCollaborationEvent = "collaboration:event"
)

// Queue names.
const (
	QueueNotifications = "notifications"
)

// CollaborationEventPayload is what the notification and chat subsystems
// consume. Event is "collaboration_" plus the transition name.
type CollaborationEventPayload struct {
	Event           string    `json:"type"`
	CollaborationID uuid.UUID `json:"collaboration_id"`
	ActorID         uuid.UUID `json:"actor_id"`
	Timestamp       time.Time `json:"timestamp"`
}
