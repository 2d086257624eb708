// Package bus implements the in-process typed message broker described
// in spec §4.1: named endpoints, request/response correlation by task
// id, broadcast, a shared-data registry, and bounded-time send_and_wait.
//
// The dispatch/response goroutine-loop shape is grounded on the
// teacher's internal/worker/worker.go Run(ctx)/stopCh pattern: two
// loops driven by channels, shut down by context cancellation.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventweave.app/planner/common/logger"
	"eventweave.app/planner/internal/model"
)

// Handler is a pure function invoked for every message addressed to the
// endpoint it's registered under. Its return value, if non-nil, is the
// synchronous reply routed back through the response loop.
type Handler func(model.Message) *model.Message

// Mirror is a best-effort sink for broadcast traffic, e.g. a Redis
// pub/sub publisher. It must never block or fail the core — the Bus
// logs and ignores mirror errors.
type Mirror interface {
	Publish(ctx context.Context, msg model.Message) error
}

const defaultQueueSize = 256

// Bus is the typed in-process broker. Zero value is not usable; use New.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[string]Handler

	waitersMu sync.Mutex
	waiters   map[string]chan model.Message

	sharedMu sync.RWMutex
	shared   map[string]any

	inbound   chan model.Message
	responses chan model.Message

	mirror Mirror

	wg sync.WaitGroup
}

// New constructs a Bus. mirror may be nil to disable the broadcast mirror.
func New(mirror Mirror) *Bus {
	return &Bus{
		endpoints: make(map[string]Handler),
		waiters:   make(map[string]chan model.Message),
		shared:    make(map[string]any),
		inbound:   make(chan model.Message, defaultQueueSize),
		responses: make(chan model.Message, defaultQueueSize),
		mirror:    mirror,
	}
}

// Register binds a handler to an endpoint name. Duplicate registration replaces.
func (b *Bus) Register(endpoint string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoints[endpoint] = h
}

// Run starts the dispatch and response loops as goroutines and returns
// without waiting for them; both loops stop once ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	b.wg.Add(2)
	go b.dispatchLoop(ctx)
	go b.responseLoop(ctx)
}

// Wait blocks until both loops started by Run have exited.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.inbound:
			b.dispatchOne(ctx, msg)
		}
	}
}

func (b *Bus) dispatchOne(ctx context.Context, msg model.Message) {
	b.mu.RLock()
	handler, ok := b.endpoints[msg.To]
	b.mu.RUnlock()

	if !ok {
		slog.WarnContext(ctx, "bus: dropping message to unknown destination",
			"to", msg.To, "kind", msg.Kind)
		return
	}

	// Snapshot the shared-data registry into every outbound task message
	// so workers see a consistent graph view without racy globals.
	if msg.Kind == model.KindTask {
		if msg.Body == nil {
			msg.Body = map[string]any{}
		}
		msg.Body["graph_data"] = b.GetSharedData()
	}

	reply := b.invoke(ctx, handler, msg)
	if reply != nil {
		select {
		case b.responses <- *reply:
		case <-ctx.Done():
		}
	}

	if msg.Kind == model.KindBroadcast && b.mirror != nil {
		if err := b.mirror.Publish(ctx, msg); err != nil {
			slog.DebugContext(ctx, "bus: broadcast mirror publish failed", "error", err)
		}
	}
}

// invoke turns a handler exception (panic, by Go convention - a handler
// that panics) into an error response carrying the original task_id,
// matching spec's "Handler exceptions become {kind: error, ...}" rule.
func (b *Bus) invoke(ctx context.Context, h Handler, msg model.Message) (reply *model.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "bus: handler panic", "endpoint", msg.To, "panic", r)
			reply = errorReply(msg, fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h(msg)
}

func errorReply(msg model.Message, err error) *model.Message {
	taskID, _ := msg.Body["task_id"].(string)
	return &model.Message{
		From:      msg.To,
		To:        msg.From,
		Kind:      model.KindError,
		SessionID: msg.SessionID,
		Body: map[string]any{
			"task_id": taskID,
			"error":   err.Error(),
		},
	}
}

func (b *Bus) responseLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case resp := <-b.responses:
			b.deliver(resp)
		}
	}
}

func (b *Bus) deliver(resp model.Message) {
	taskID, _ := resp.Body["task_id"].(string)
	if taskID == "" {
		return
	}

	b.waitersMu.Lock()
	ch, ok := b.waiters[taskID]
	if ok {
		delete(b.waiters, taskID)
	}
	b.waitersMu.Unlock()

	if !ok {
		// Either no one is waiting (fire-and-forget send), or a
		// previous reply for this task_id already won. Either way the
		// "first reply wins, later replies dropped" invariant holds.
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

// Send enqueues msg for dispatch. Returns once enqueued; does not wait
// for a reply.
func (b *Bus) Send(ctx context.Context, msg model.Message) error {
	select {
	case b.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendAndWait enqueues msg, then blocks until a reply correlated by
// body["task_id"] arrives or timeout elapses. A zero timeout returns nil
// immediately without waiting, per spec §8's boundary behavior.
func (b *Bus) SendAndWait(ctx context.Context, msg model.Message, timeout time.Duration) (*model.Message, error) {
	taskID, _ := msg.Body["task_id"].(string)
	if taskID == "" {
		return nil, fmt.Errorf("bus: send_and_wait requires body.task_id")
	}

	waiter := make(chan model.Message, 1)
	b.waitersMu.Lock()
	b.waiters[taskID] = waiter
	b.waitersMu.Unlock()

	if timeout <= 0 {
		b.waitersMu.Lock()
		delete(b.waiters, taskID)
		b.waitersMu.Unlock()
		return nil, nil
	}

	if err := b.Send(ctx, msg); err != nil {
		b.waitersMu.Lock()
		delete(b.waiters, taskID)
		b.waitersMu.Unlock()
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-waiter:
		return &resp, nil
	case <-timer.C:
		b.waitersMu.Lock()
		delete(b.waiters, taskID)
		b.waitersMu.Unlock()
		return nil, nil
	case <-ctx.Done():
		b.waitersMu.Lock()
		delete(b.waiters, taskID)
		b.waitersMu.Unlock()
		return nil, ctx.Err()
	}
}

// DeliverResponse pushes resp directly to the response loop, for a
// handler that answers asynchronously: it returns nil synchronously from
// its dispatchOne invocation (so it never blocks the single dispatch
// goroutine on a nested send_and_wait), does its real work on its own
// goroutine, then calls this with the reply correlated by the same
// body["task_id"] once it's ready.
func (b *Bus) DeliverResponse(ctx context.Context, resp model.Message) {
	select {
	case b.responses <- resp:
	case <-ctx.Done():
	}
}

// Broadcast fans a message out to every registered endpoint except from.
func (b *Bus) Broadcast(ctx context.Context, kind model.MessageKind, body map[string]any, from, sessionID string) {
	b.mu.RLock()
	targets := make([]string, 0, len(b.endpoints))
	for name := range b.endpoints {
		if name != from {
			targets = append(targets, name)
		}
	}
	b.mu.RUnlock()

	for _, to := range targets {
		msg := model.Message{From: from, To: to, Kind: kind, Body: body, SessionID: sessionID}
		_ = b.Send(ctx, msg)
	}

	// The broadcast kind itself is what the mirror cares about; publish
	// once here too so external listeners see it even with zero
	// registered endpoints to fan out to.
	if b.mirror != nil {
		msg := model.Message{From: from, To: "*", Kind: kind, Body: body, SessionID: sessionID}
		if err := b.mirror.Publish(ctx, msg); err != nil {
			slog.Debug("bus: broadcast mirror publish failed", "error", err)
		}
	}
}

// SetSharedData writes one key into the process-wide registry.
func (b *Bus) SetSharedData(key string, value any) {
	b.sharedMu.Lock()
	defer b.sharedMu.Unlock()
	b.shared[key] = value
}

// GetSharedData returns a shallow snapshot of the registry.
func (b *Bus) GetSharedData() map[string]any {
	b.sharedMu.RLock()
	defer b.sharedMu.RUnlock()
	snapshot := make(map[string]any, len(b.shared))
	for k, v := range b.shared {
		snapshot[k] = v
	}
	return snapshot
}

// LogFieldsForSession is a small convenience used by callers to enrich
// their context before driving a bus round-trip.
func LogFieldsForSession(sessionID, taskID, component string) logger.LogFields {
	return logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		TaskID:    logger.Ptr(taskID),
		Component: component,
	}
}
