package goalchat

// EventType tags a stream event.
type EventType string

const (
	EventGoalCreated   EventType = "goal_created"
	EventChatMessage   EventType = "chat_message"
	EventTreeGenerated EventType = "tree_generated"
	EventError         EventType = "error"
	EventDone          EventType = "done"
)

// Event is one progress event of a conversation turn. Done is always the
// last event of a turn and at most one of ChatMessage or TreeGenerated
// precedes it.
type Event struct {
	Type      EventType `json:"type"`
	GoalID    string    `json:"goal_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	NodeCount *int      `json:"node_count,omitempty"`
}

// Emitter receives events in order.
type Emitter func(Event)

func goalCreated(goalID string) Event {
	return Event{Type: EventGoalCreated, GoalID: goalID}
}

func chatMessage(msg string) Event {
	return Event{Type: EventChatMessage, Message: msg}
}

func treeGenerated(goalID string, nodes int, msg string) Event {
	return Event{Type: EventTreeGenerated, GoalID: goalID, NodeCount: &nodes, Message: msg}
}

func errorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}
