package sse

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/librisapp/libris-server/internal/id"
)

// Client represents a connected SSE subscriber.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
}

// Manager manages live subscribers and fans published events out to them.
//
// Publish is synchronous with respect to enqueueing: when it returns, the
// event sits in every currently-registered subscriber's channel (or was
// dropped for that subscriber if its buffer is full). Actual delivery to
// the client connection is decoupled and per-subscriber. Subscribers that
// register after an event was published never see it; there is no backlog.
type Manager struct {
	clients           map[string]*Client
	logger            *slog.Logger
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	// Shutdown state - protected by mu.
	shutdown bool

	wg sync.WaitGroup
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:           make(map[string]*Client),
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// Start runs the heartbeat loop until the context is canceled.
// This should be called once at server startup in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	heartbeatTicker := time.NewTicker(m.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-heartbeatTicker.C:
			m.Publish(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Publish enqueues an event to every currently-registered subscriber and
// returns. A slow subscriber whose buffer is full has the event dropped
// rather than blocking publication to others or the caller's write path.
func (m *Manager) Publish(event Event) {
	var delivered, dropped int

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shutdown {
		// Events after shutdown are expected and silently dropped.
		return
	}

	for _, client := range m.clients {
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event published",
			slog.String("event_type", string(event.Type)),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	}
}

// Connect registers a new subscriber and returns the client object.
// The returned client only receives events published after registration.
func (m *Manager) Connect() (*Client, error) {
	clientID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		EventChan:   make(chan Event, 100), // Buffer 100 events per client
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a subscriber and closes its channels.
// Safe to call more than once for the same client ID.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Shutdown gracefully shuts down the manager: no further events are
// accepted and all subscribers are closed.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("SSE manager shutdown initiated")

	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()

	m.closeAllClients()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("SSE manager shutdown timed out waiting for heartbeat loop")
	}

	m.logger.Info("SSE manager shutdown complete")
	return nil
}

// Clients returns an iterator over all connected clients.
func (m *Manager) Clients() iter.Seq[*Client] {
	return func(yield func(*Client) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for _, client := range m.clients {
			if !yield(client) {
				return
			}
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// closeAllClients closes all client connections (used during shutdown).
func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	m.clients = make(map[string]*Client)

	m.logger.Info("all SSE clients disconnected")
}
