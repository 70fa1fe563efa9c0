package sse

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/id"
)

const (
	queueSize        = 1000
	clientBuffer     = 100
	defaultHeartbeat = 30 * time.Second
)

// Identity is who a stream belongs to. Anonymous streams carry only a DeviceID.
type Identity struct {
	UserID   string
	DeviceID string
	IsAdmin  bool
}

// Client is one open stream.
type Client struct {
	Identity
	ID          string
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}

	closeOnce sync.Once
}

// accepts reports whether e is addressed to this client. Events without a
// user or device go to everyone.
func (c *Client) accepts(e Event) bool {
	return (e.UserID == "" || e.UserID == c.UserID) &&
		(e.DeviceID == "" || e.DeviceID == c.DeviceID)
}

// offer hands e to the client without blocking.
func (c *Client) offer(e Event) bool {
	select {
	case c.EventChan <- e:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		close(c.EventChan)
	})
}

// Manager fans queued events out to the connected clients that accept them.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	queue     chan Event
	heartbeat time.Duration
	onCount   func(int)
	logger    *slog.Logger
	running   sync.WaitGroup
}

type Option func(*Manager)

// WithHeartbeatInterval replaces the 30s heartbeat.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(m *Manager) { m.heartbeat = d }
}

// WithClientCountHook observes the client count after every change.
func WithClientCountHook(fn func(int)) Option {
	return func(m *Manager) { m.onCount = fn }
}

func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		clients:   make(map[string]*Client),
		queue:     make(chan Event, queueSize),
		heartbeat: defaultHeartbeat,
		onCount:   func(int) {},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start delivers queued events and heartbeats until ctx ends or the
// manager shuts down. Run it in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.running.Add(1)
	defer m.running.Done()

	tick := time.NewTicker(m.heartbeat)
	defer tick.Stop()

	m.logger.Info("SSE manager started", "heartbeat", m.heartbeat)
	for {
		select {
		case <-ctx.Done():
			m.disconnectAll()
			return
		case <-tick.C:
			m.deliver(NewHeartbeatEvent())
		case e, ok := <-m.queue:
			if !ok {
				return
			}
			m.deliver(e)
		}
	}
}

// Shutdown stops accepting events, delivers what is already queued until
// ctx expires, then closes every client. Calling it twice is harmless.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for e := range m.queue {
			m.deliver(e)
		}
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE shutdown timed out with events still queued")
	}

	m.running.Wait()
	m.disconnectAll()
	return nil
}

func (m *Manager) deliver(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent, skipped := 0, 0
	for _, c := range m.clients {
		if !c.accepts(e) {
			continue
		}
		if c.offer(e) {
			sent++
			continue
		}
		skipped++
		m.logger.Warn("SSE client too slow, event dropped", "client_id", c.ID, "event_type", e.Type)
	}
	if e.Type != EventHeartbeat {
		m.logger.Debug("SSE event delivered", "event_type", e.Type, "sent", sent, "dropped", skipped)
	}
}

// Connect registers a stream for identity.
func (m *Manager) Connect(identity Identity) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}
	c := &Client{
		Identity:    identity,
		ID:          clientID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBuffer),
		Done:        make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[clientID] = c
	n := len(m.clients)
	m.mu.Unlock()
	m.onCount(n)

	m.logger.Info("SSE client connected",
		"client_id", clientID, "user_id", identity.UserID, "device_id", identity.DeviceID, "clients", n)
	return c, nil
}

// Disconnect closes and forgets a client. Unknown IDs are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	delete(m.clients, clientID)
	n := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.onCount(n)
	c.close()

	m.logger.Info("SSE client disconnected",
		"client_id", clientID, "connected_for", time.Since(c.ConnectedAt).Round(time.Second), "clients", n)
}

func (m *Manager) disconnectAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for c := range maps.Values(clients) {
		c.close()
	}
	m.onCount(0)
}

// Emit queues e for delivery. It never blocks; when the queue is full or
// the manager has shut down the event is dropped.
func (m *Manager) Emit(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- e:
	default:
		m.logger.Error("SSE queue full, event dropped", "event_type", e.Type)
	}
}

// EmitToUser queues e for the streams of one signed-in user.
func (m *Manager) EmitToUser(userID string, e Event) {
	e.UserID = userID
	m.Emit(e)
}

// EmitToDevice queues e for the streams of one device.
func (m *Manager) EmitToDevice(deviceID string, e Event) {
	e.DeviceID = deviceID
	m.Emit(e)
}

// HasClient reports whether an event addressed to userID and deviceID would
// reach at least one open stream.
func (m *Manager) HasClient(userID, deviceID string) bool {
	if userID == "" && deviceID == "" {
		return false
	}
	probe := Event{UserID: userID, DeviceID: deviceID}
	for c := range m.Clients() {
		if c.accepts(probe) {
			return true
		}
	}
	return false
}

// Clients iterates over the open streams while holding a read lock.
func (m *Manager) Clients() iter.Seq[*Client] {
	return func(yield func(*Client) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		for _, c := range m.clients {
			if !yield(c) {
				return
			}
		}
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
