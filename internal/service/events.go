package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventDeviceCreated   EventType = "device_created"
	EventDeviceUpdated   EventType = "device_updated"
	EventDeviceDeleted   EventType = "device_deleted"
	EventScanStarted     EventType = "scan_started"
	EventScanCompleted   EventType = "scan_completed"
	EventScanFailed      EventType = "scan_failed"
	EventCommandExecuted EventType = "command_executed"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notifier accepts events without waiting for delivery
type Notifier interface {
	Publish(event Event)
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

// Unsubscribe removes a subscriber
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

// PublishDiscoveryEvent forwards adapter progress onto the bus
func (eb *EventBus) PublishDiscoveryEvent(eventType string, payload interface{}) {
	eb.Publish(Event{Type: EventType(eventType), Payload: payload})
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}
