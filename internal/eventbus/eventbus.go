package eventbus

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrEventBusClosing = errors.New("event bus is closing")
	ErrTopicNotFound   = errors.New("topic not found")
	ErrSubscriberFull  = errors.New("subscriber channel is full")
)

// EventBus enables publishers to publish data to interested subscribers.
type EventBus struct {
	mutex   sync.Mutex
	closing bool
	topics  map[string][]chan any
}

// New creates a new EventBus without any topics.
func New() *EventBus {
	return &EventBus{
		topics: make(map[string][]chan any),
	}
}

// Subscribe creates a buffered channel with given capacity for given topic. Returns an error if EventBus is closing.
func (b *EventBus) Subscribe(topic string, capacity uint) (<-chan any, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closing {
		return nil, ErrEventBusClosing
	}
	channel := make(chan any, capacity)
	b.topics[topic] = append(b.topics[topic], channel)
	return channel, nil
}

// Unsubscribe removes the channel from the topic and closes it. Does nothing when the EventBus is closing,
// all channels are already closed then.
func (b *EventBus) Unsubscribe(topic string, channel <-chan any) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closing {
		return
	}
	channels := b.topics[topic]
	for i, ch := range channels {
		if ch == channel {
			close(ch)
			b.topics[topic] = append(channels[:i], channels[i+1:]...)
			return
		}
	}
}

// Submit publishes the message to the topic. Returns an error if a topic with given name is not found or EventBus is
// closing. Submit never blocks: the message is offered to every subscriber and dropped for those whose channel is
// full, ErrSubscriberFull reports how many missed it.
func (b *EventBus) Submit(topic string, message any) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closing {
		return ErrEventBusClosing
	}
	channels, f := b.topics[topic]
	if !f {
		return ErrTopicNotFound
	}
	dropped := 0
	for _, c := range channels {
		select {
		case c <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d of %d subscribers of %s", ErrSubscriberFull, dropped, len(channels), topic)
	}
	return nil
}

// Close closes the EventBus and all related topics and channels.
func (b *EventBus) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.closing {
		b.closing = true
		for _, channels := range b.topics {
			for _, ch := range channels {
				close(ch)
			}
		}
	}
	return nil
}
