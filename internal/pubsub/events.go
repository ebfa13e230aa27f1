// Package pubsub fans typed events out to any number of subscribers.
package pubsub

import "context"

type EventType string

const (
	Created EventType = "created"
	Updated EventType = "updated"
	Deleted EventType = "deleted"
	// Requested asks a subscriber for input, e.g. a password prompt.
	Requested EventType = "requested"
)

type Event[T any] struct {
	Type    EventType
	Payload T
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
