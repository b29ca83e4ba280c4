package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/sopflow/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ObjectID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for one case. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(objectID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[objectID]; !ok {
		sm.subscribers[objectID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[objectID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[objectID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, objectID)
			}
		}
	}
}

// Subscribers counts the listeners of a case.
func (sm *StreamManager) Subscribers(objectID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[objectID])
}

// Broadcast sends msg to every listener of the case without blocking.
func (sm *StreamManager) Broadcast(objectID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "object_id", objectID, "payload_size", len(msg))

	for ch := range sm.subscribers[objectID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "object_id", objectID)
		}
	}
}

// Publish broadcasts the diff between two versions of a case.
// Its signature matches cases.ChangeFunc.
func (sm *StreamManager) Publish(_ context.Context, old, next *domain.Object) {
	if next == nil {
		if old != nil {
			data, _ := json.Marshal(map[string]any{"object_id": old.ID, "deleted": true})
			sm.Broadcast(old.ID, string(data))
		}
		return
	}
	diff := domain.Diff(old, next)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("SSE: failed to encode diff", "object_id", next.ID, "err", err)
		return
	}
	sm.Broadcast(next.ID, string(data))
}
