package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventGraphCreated          EventType = "graph_created"
	EventGraphDeleted          EventType = "graph_deleted"
	EventStructureSynced       EventType = "structure_synced"
	EventMetadataUpdated       EventType = "metadata_updated"
	EventNodeStyleChanged      EventType = "node_style_changed"
	EventContentImported       EventType = "content_imported"
	EventNodeCreated           EventType = "node_created"
	EventNodeUpdated           EventType = "node_updated"
	EventNodeDeleted           EventType = "node_deleted"
	EventEdgeCreated           EventType = "edge_created"
	EventEdgeUpdated           EventType = "edge_updated"
	EventEdgeDeleted           EventType = "edge_deleted"
	EventStyleClassCreated     EventType = "style_class_created"
	EventStyleClassUpdated     EventType = "style_class_updated"
	EventStyleClassDeleted     EventType = "style_class_deleted"
	EventClusterCreated        EventType = "cluster_created"
	EventClusterUpdated        EventType = "cluster_updated"
	EventClusterMembersChanged EventType = "cluster_members_changed"
	EventClusterDeleted        EventType = "cluster_deleted"
	EventServerStopping        EventType = "server_stopping"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType      `json:"type"`
	GraphID string         `json:"graph_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe stops delivering events to ch
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
