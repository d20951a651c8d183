package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Broadcast topics
const (
	TopicLockupStatus    = "lockup/status"
	TopicLockupTransfer  = "lockup/transfer"
	TopicLockupExecution = "lockup/execution"
	TopicLockupAlert     = "lockup/alert"
)

// IsPrivilegedTopic reports whether only privileged observers may receive the topic
func IsPrivilegedTopic(topic string) bool {
	return topic == TopicLockupExecution || topic == TopicLockupAlert
}

// InterfaceNotifier fans out lockup events to observers
type InterfaceNotifier interface {
	Notify(ctx context.Context, topic string, payload interface{}) error
}

// Event is one broadcast message
type Event struct {
	ID        string      `json:"id"`
	Topic     string      `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps payload with an id and the current time
func NewEvent(topic string, payload interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Timestamp: time.Now(),
		Data:      payload,
	}
}

// HubQueueSize is the per-subscriber buffer; a full buffer drops events for that subscriber
const HubQueueSize = 32

type hubSubscriber struct {
	ch         chan Event
	privileged bool
}

// Hub is the in-process broadcaster behind the events stream
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]*hubSubscriber
	lastID  int
	dropped atomic.Int64
}

// NewHub 创建事件中心
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*hubSubscriber)}
}

// Subscribe registers an observer. Privileged observers also receive privileged topics.
// The returned cancel func unregisters and closes the channel.
func (h *Hub) Subscribe(privileged bool) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	id := h.lastID
	sub := &hubSubscriber{ch: make(chan Event, HubQueueSize), privileged: privileged}
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Notify delivers without blocking the caller
func (h *Hub) Notify(_ context.Context, topic string, payload interface{}) error {
	evt := NewEvent(topic, payload)
	privileged := IsPrivilegedTopic(topic)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if privileged && !sub.privileged {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Dropped is the number of events lost to full subscriber buffers
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// MultiNotifier notifies every notifier and joins their errors
type MultiNotifier []InterfaceNotifier

// Notify 依次通知所有通知器
func (m MultiNotifier) Notify(ctx context.Context, topic string, payload interface{}) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
