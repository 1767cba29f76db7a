package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/alphabill-org/assetswap/internal/eventbus"
	"github.com/alphabill-org/assetswap/internal/swap"
)

const DefaultEventLogCapacity = 1000

type (
	// EventLog keeps the most recent swap events in memory so that clients can poll for them.
	EventLog struct {
		mutex    sync.RWMutex
		bus      *eventbus.EventBus
		ch       <-chan any
		capacity int
		events   []*LoggedEvent
		seq      uint64
	}

	LoggedEvent struct {
		Seq   uint64
		Event *swap.Event
	}
)

// NewEventLog subscribes to all swap events of the bus. The events are collected by Run.
func NewEventLog(bus *eventbus.EventBus, capacity int) (*EventLog, error) {
	if capacity <= 0 {
		capacity = DefaultEventLogCapacity
	}
	ch, err := bus.Subscribe(TopicAll, 100)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", TopicAll, err)
	}
	return &EventLog{bus: bus, ch: ch, capacity: capacity}, nil
}

// Run collects events until the context is cancelled or the event bus is closed.
func (l *EventLog) Run(ctx context.Context) error {
	defer l.bus.Unsubscribe(TopicAll, l.ch)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-l.ch:
			if !ok {
				return nil
			}
			if e, ok := msg.(*swap.Event); ok {
				l.add(e)
			}
		}
	}
}

// Since returns the events with sequence number greater than seq, oldest first.
func (l *EventLog) Since(seq uint64) []*LoggedEvent {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	var res []*LoggedEvent
	for _, e := range l.events {
		if e.Seq > seq {
			res = append(res, e)
		}
	}
	return res
}

func (l *EventLog) add(e *swap.Event) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.seq++
	l.events = append(l.events, &LoggedEvent{Seq: l.seq, Event: e})
	if len(l.events) > l.capacity {
		l.events = l.events[len(l.events)-l.capacity:]
	}
}
