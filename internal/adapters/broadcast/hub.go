// Package broadcast fans live events out to every subscribed channel.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// Hub owns the set of subscribed channels. The membership lock is never
// held while sending; Broadcast works on a snapshot of the members.
type Hub struct {
	mu      sync.RWMutex
	members map[ports.SubscriptionID]ports.Channel
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		members: make(map[ports.SubscriptionID]ports.Channel),
		logger:  logger,
	}
}

var _ ports.Broadcaster = (*Hub)(nil)

func (h *Hub) Subscribe(ch ports.Channel) ports.SubscriptionID {
	id := uuid.New()

	h.mu.Lock()
	h.members[id] = ch
	h.mu.Unlock()

	return id
}

// Unsubscribe removes and closes the channel. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id ports.SubscriptionID) {
	h.mu.Lock()
	ch, ok := h.members[id]
	delete(h.members, id)
	h.mu.Unlock()

	if ok {
		_ = ch.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Broadcast sends the events to every member concurrently and waits for all
// deliveries. Each member receives the events in the given order; a member
// whose send fails is dropped and skips the remaining events.
func (h *Hub) Broadcast(ctx context.Context, events ...domain.Event) {
	if len(events) == 0 {
		return
	}

	msgs := make([][]byte, 0, len(events))
	for _, event := range events {
		msg, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to encode event", "type", event.Type, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	type member struct {
		id ports.SubscriptionID
		ch ports.Channel
	}

	h.mu.RLock()
	members := make([]member, 0, len(h.members))
	for id, ch := range h.members {
		members = append(members, member{id: id, ch: ch})
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, msg := range msgs {
				if err := m.ch.Send(ctx, msg); err != nil {
					h.logger.Warn("dropping subscriber", "subscription", m.id, "error", err)
					h.Unsubscribe(m.id)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// Close unsubscribes every member.
func (h *Hub) Close() {
	h.mu.Lock()
	members := h.members
	h.members = make(map[ports.SubscriptionID]ports.Channel)
	h.mu.Unlock()

	for _, ch := range members {
		_ = ch.Close()
	}
}
