// Package messaging implements the event bus carrying economy events to
// their sinks. It provides an in-memory bus for single-instance deployments
// and a Redis pub/sub bus for sharing events across instances. Delivery is
// fire-and-forget: a failing handler never affects the mutation that
// produced the event.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrNilHandler is returned when a nil handler is subscribed.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNilEvent is returned when a nil event is published.
	ErrNilEvent = errors.New("event cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a worker-pool backed implementation of shared.EventBus.
// Suitable for single-instance deployments and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on the worker pool instead of inline. Inline
	// mode exists for deterministic tests.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger

	// EnableMetrics enables metrics collection.
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	bus := &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		log:         config.Logger.With(logger.Component("event_bus")),
		closeCh:     make(chan struct{}),
	}

	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}

	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debug("subscribed handler", logger.String("event_type", string(eventType)))

	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.log.Debug("subscribed global handler")

	return nil
}

// Publish sends an event to all subscribed handlers. Handler errors are
// logged and dropped; Publish itself only fails on a nil event or a closed
// bus.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("no handlers for event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if b.asyncMode {
		for _, handler := range handlers {
			b.executeAsync(event, handler)
		}
	} else {
		for _, handler := range handlers {
			if err := b.executeSync(event, handler); err != nil {
				b.log.Error("handler error",
					logger.String("event_type", string(event.EventType())),
					logger.Err(err),
				)
			}
		}
	}

	return nil
}

// executeAsync executes a handler on the worker pool.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		start := time.Now()
		err := handler(event)
		duration := time.Since(start)

		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
		}

		if err != nil {
			b.log.Error("async handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Duration("duration", duration),
				logger.Err(err),
			)
		}
	}()
}

// executeSync executes a handler inline.
func (b *InMemoryEventBus) executeSync(event shared.Event, handler shared.EventHandler) error {
	start := time.Now()
	err := handler(event)
	duration := time.Since(start)

	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
	}

	return err
}

// Close gracefully shuts down the event bus, waiting for pending handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()

	b.log.Info("event bus closed")
	return nil
}

// Metrics returns the current metrics (nil when disabled).
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus shares events across engine instances over Redis pub/sub.
// Locally produced events are always delivered to local handlers even when
// the Redis publish fails; remote events from other instances are replayed
// into the local bus.
type RedisEventBus struct {
	client      RedisClient
	localBus    *InMemoryEventBus
	channelName string
	instanceID  string
	log         *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
}

// RedisClient defines the pub/sub operations the bus needs. Implemented by
// the redis infrastructure package and by test fakes.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage represents a message received from Redis pub/sub.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	// Client is the Redis client to use.
	Client RedisClient

	// ChannelName is the Redis channel for events.
	ChannelName string

	// InstanceID uniquely identifies this instance, used to skip
	// self-published events on the subscription side.
	InstanceID string

	// LocalBusConfig is the config for the local in-memory bus.
	LocalBusConfig InMemoryEventBusConfig

	// Logger for structured logging.
	Logger *logger.Logger
}

// NewRedisEventBus creates a new Redis-based event bus.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = "blackreaper:events"
	}
	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &RedisEventBus{
		client:      config.Client,
		localBus:    NewInMemoryEventBus(config.LocalBusConfig),
		channelName: config.ChannelName,
		instanceID:  config.InstanceID,
		log:         config.Logger.With(logger.Component("redis_event_bus")),
		ctx:         ctx,
		cancel:      cancel,
	}

	if err := bus.startSubscriber(); err != nil {
		cancel()
		return nil, fmt.Errorf("start subscriber: %w", err)
	}

	return bus, nil
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish sends an event to Redis pub/sub and to local handlers.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	b.mu.RUnlock()

	envelope := wireEnvelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Local delivery happens regardless; a Redis outage degrades to
	// single-instance behavior.
	if err := b.client.Publish(b.ctx, b.channelName, string(data)); err != nil {
		b.log.Error("failed to publish to redis", logger.Err(err))
	}

	return b.localBus.Publish(event)
}

// startSubscriber starts the Redis subscription listener.
func (b *RedisEventBus) startSubscriber() error {
	messages, err := b.client.Subscribe(b.ctx, b.channelName)
	if err != nil {
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.subscriptionLoop(messages)
	}()

	return nil
}

// subscriptionLoop processes messages from Redis.
func (b *RedisEventBus) subscriptionLoop(messages <-chan RedisMessage) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.log.Error("redis subscription error", logger.Err(msg.Err))
				continue
			}

			b.handleRedisMessage(msg)
		}
	}
}

// handleRedisMessage replays a remote event into the local bus.
func (b *RedisEventBus) handleRedisMessage(msg RedisMessage) {
	var envelope wireEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		b.log.Error("failed to unmarshal event", logger.Err(err))
		return
	}

	// Skip events from self, they were already delivered locally.
	if envelope.InstanceID == b.instanceID {
		return
	}

	event := &remoteEvent{
		eventType:   envelope.EventType,
		aggregateID: envelope.AggregateID,
		occurredAt:  envelope.OccurredAt,
		payload:     envelope.Payload,
	}

	if err := b.localBus.Publish(event); err != nil {
		b.log.Error("failed to process remote event", logger.Err(err))
	}
}

// Close gracefully shuts down the Redis event bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	if err := b.localBus.Close(); err != nil {
		b.log.Error("failed to close local bus", logger.Err(err))
	}

	b.log.Info("redis event bus closed")
	return nil
}

// Metrics returns the current metrics from the local bus.
func (b *RedisEventBus) Metrics() *EventBusMetrics {
	return b.localBus.Metrics()
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type wireEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// remoteEvent reconstructs a shared.Event from a Redis message.
type remoteEvent struct {
	eventType   shared.EventType
	aggregateID string
	occurredAt  time.Time
	payload     map[string]interface{}
}

func (e *remoteEvent) EventType() shared.EventType {
	return e.eventType
}

func (e *remoteEvent) AggregateID() string {
	return e.aggregateID
}

func (e *remoteEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *remoteEvent) Payload() map[string]interface{} {
	return e.payload
}

// generateInstanceID generates a unique instance identifier.
func generateInstanceID() string {
	return fmt.Sprintf("instance-%d", time.Now().UnixNano())
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks event bus performance metrics.
type EventBusMetrics struct {
	mu sync.RWMutex

	PublishedTotal map[shared.EventType]int64

	HandlerExecutions    int64
	HandlerSuccesses     int64
	HandlerFailures      int64
	HandlerTotalDuration time.Duration
	HandlersByType       map[shared.EventType]int64
}

// NewEventBusMetrics creates a new metrics tracker.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{
		PublishedTotal: make(map[shared.EventType]int64),
		HandlersByType: make(map[shared.EventType]int64),
	}
}

// RecordPublish records a published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedTotal[eventType]++
}

// RecordHandlerExecution records a handler execution.
func (m *EventBusMetrics) RecordHandlerExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HandlerExecutions++
	m.HandlerTotalDuration += duration
	m.HandlersByType[eventType]++

	if success {
		m.HandlerSuccesses++
	} else {
		m.HandlerFailures++
	}
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var published int64
	for _, v := range m.PublishedTotal {
		published += v
	}

	avgDuration := time.Duration(0)
	if m.HandlerExecutions > 0 {
		avgDuration = m.HandlerTotalDuration / time.Duration(m.HandlerExecutions)
	}

	successRate := 1.0
	if m.HandlerExecutions > 0 {
		successRate = float64(m.HandlerSuccesses) / float64(m.HandlerExecutions)
	}

	return EventBusMetricsSnapshot{
		TotalPublished:         published,
		TotalHandlerExecs:      m.HandlerExecutions,
		HandlerSuccessRate:     successRate,
		AverageHandlerDuration: avgDuration,
	}
}

// EventBusMetricsSnapshot is a point-in-time snapshot of metrics.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64
	TotalHandlerExecs      int64
	HandlerSuccessRate     float64
	AverageHandlerDuration time.Duration
}
