// Package bus defines the message-bus collaborator's interface: the
// surface a home-automation bridge (MQTT or otherwise) uses to submit
// commands to the throttle core and publish state snapshots back out.
//
// No concrete broker client is wired here — no MQTT client library (e.g.
// eclipse/paho.mqtt.golang) appears anywhere in the example pack's go.mod
// files, so only the interface and an in-memory test double are
// implemented; see SPEC_FULL.md's "Message bus" section.
package bus

import (
	"context"
	"sync"
)

// CommandMessage is the JSON payload a Mqtt-sourced command arrives as on
// CommandTopic, decoded by cmd/throttled's subscription handler into a
// command.ThrottleCommand via internal/wire before it ever reaches the
// controller.
type CommandMessage struct {
	Topic   string
	Payload []byte
}

// StateMessage is the JSON payload the daemon loop publishes to StateTopic
// after each tick, built from internal/wire.StateResponse.
type StateMessage struct {
	Topic   string
	Payload []byte
}

// Subscriber is the minimal surface the daemon loop needs from a message
// bus client: subscribe to incoming commands, publish outgoing state.
// A real implementation (e.g. an MQTT client wrapper) and this in-memory
// double both satisfy it identically.
type Subscriber interface {
	// Subscribe registers handler to be called for every CommandMessage
	// received on topic until ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler func(CommandMessage)) error
	// Publish sends msg. Implementations should not block the caller
	// indefinitely; the daemon loop calls this once per tick.
	Publish(ctx context.Context, msg StateMessage) error
	// Close releases any resources held by the subscriber.
	Close() error
}

// MemoryBus is an in-process Subscriber double: Publish appends to an
// in-memory log instead of reaching a real broker, and test code drives
// incoming commands directly via Inject. Grounded on the recording
// test-double idiom in internal/hal/mock.
type MemoryBus struct {
	mu        sync.Mutex
	handlers  map[string][]func(CommandMessage)
	Published []StateMessage
	closed    bool
}

// NewMemoryBus returns an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]func(CommandMessage))}
}

// Subscribe implements Subscriber. ctx is not consulted: the handler stays
// registered for the lifetime of the bus.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string, handler func(CommandMessage)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Publish implements Subscriber: it records msg rather than sending it
// anywhere.
func (b *MemoryBus) Publish(ctx context.Context, msg StateMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Published = append(b.Published, msg)
	return nil
}

// Close implements Subscriber.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Inject delivers msg to every handler subscribed to msg.Topic, as if it
// had arrived from a real broker. Test-only entry point.
func (b *MemoryBus) Inject(msg CommandMessage) {
	b.mu.Lock()
	handlers := append([]func(CommandMessage){}, b.handlers[msg.Topic]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

// LastPublished returns the most recently published message and true, or
// a zero value and false if nothing has been published yet.
func (b *MemoryBus) LastPublished() (StateMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Published) == 0 {
		return StateMessage{}, false
	}
	return b.Published[len(b.Published)-1], true
}
