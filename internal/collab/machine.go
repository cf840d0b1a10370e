package collab

// Event names the externally triggered lifecycle transitions.
type Event string

const (
	EventRequirementsSubmitted Event = "requirements_submitted"
	EventCancelled             Event = "cancelled"
	EventApproved              Event = "approved"
	EventDisputed              Event = "disputed"
	EventResolvedForSeller     Event = "resolved_for_seller"
	EventResolvedForBuyer      Event = "resolved_for_buyer"
)

// Machine enforces the collaboration lifecycle:
//
//	escrow_held -> in_progress -> completed
//	escrow_held -> refunded
//	in_progress -> disputed -> completed | refunded
//
// Transitions are validated before any side effect runs; an event a status
// does not permit fails with InvalidTransitionError and changes nothing.
type Machine struct {
	transitions map[string]map[Event]string
	targets     map[Event]string
}

func NewMachine() *Machine {
	return &Machine{
		transitions: map[string]map[Event]string{
			StatusEscrowHeld: {
				EventRequirementsSubmitted: StatusInProgress,
				EventCancelled:             StatusRefunded,
			},
			StatusInProgress: {
				EventApproved: StatusCompleted,
				EventDisputed: StatusDisputed,
			},
			StatusDisputed: {
				EventResolvedForSeller: StatusCompleted,
				EventResolvedForBuyer:  StatusRefunded,
			},
			StatusCompleted: {},
			StatusRefunded:  {},
		},
		targets: map[Event]string{
			EventRequirementsSubmitted: StatusInProgress,
			EventCancelled:             StatusRefunded,
			EventApproved:              StatusCompleted,
			EventDisputed:              StatusDisputed,
			EventResolvedForSeller:     StatusCompleted,
			EventResolvedForBuyer:      StatusRefunded,
		},
	}
}

// Next returns the status the event leads to from the given status, or
// InvalidTransitionError.
func (m *Machine) Next(from string, event Event) (string, error) {
	allowed, ok := m.transitions[from]
	if !ok {
		return "", &InvalidTransitionError{From: from, Event: event}
	}
	to, ok := allowed[event]
	if !ok {
		return "", &InvalidTransitionError{From: from, Event: event}
	}
	return to, nil
}

// AtTarget reports whether the status already equals the event's target.
// Re-issuing a transition on a collaboration already in the target state is
// a no-op success, which keeps retries from an at-least-once delivery layer
// harmless.
func (m *Machine) AtTarget(status string, event Event) bool {
	return m.targets[event] == status
}

// Events lists the events the given status permits.
func (m *Machine) Events(from string) []Event {
	var out []Event
	for ev := range m.transitions[from] {
		out = append(out, ev)
	}
	return out
}
