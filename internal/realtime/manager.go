// Package realtime owns the live listeners of a session: at most one per channel.
package realtime

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
)

// Channel names a logical live feed.
type Channel string

const (
	ChannelChat   Channel = "chat"   // messages of the active thread
	ChannelAlerts Channel = "alerts" // alerts addressed to the signed-in PT
)

const (
	ChatLimit  = 120
	AlertLimit = 20
)

// Cancel detaches a listener. Calling it more than once is a no-op.
type Cancel func()

// Source is the live side of the document store. Subscribe calls never fail
// synchronously; transport errors simply stop or never start snapshots.
type Source interface {
	SubscribeMessages(threadID string, limit int, onSnapshot func([]domain.Message)) Cancel
	SubscribeAlerts(ptUID string, limit int, onSnapshot func([]domain.Alert)) Cancel
}

// ChatUpdate is a chat snapshot ready for rendering, oldest message first.
type ChatUpdate struct {
	ThreadID       string
	Messages       []domain.Message
	ScrollToNewest bool
}

type listener struct {
	key    string
	gen    uint64
	cancel Cancel
}

// Manager enforces detach-before-attach per channel. Snapshots from a
// listener that has been replaced or detached are dropped.
type Manager struct {
	mu     sync.Mutex
	source Source
	logger *zap.Logger
	gen    uint64
	active map[Channel]*listener
}

// NewManager creates a manager over source.
func NewManager(source Source, logger *zap.Logger) *Manager {
	return &Manager{
		source: source,
		logger: logger,
		active: make(map[Channel]*listener),
	}
}

// WatchThread replaces the chat listener with one for threadID.
func (m *Manager) WatchThread(threadID string, onUpdate func(ChatUpdate)) {
	m.attach(ChannelChat, threadID, func(gen uint64) Cancel {
		return m.source.SubscribeMessages(threadID, ChatLimit, func(msgs []domain.Message) {
			if !m.current(ChannelChat, gen) {
				m.logger.Debug("dropping chat snapshot from detached listener", zap.String("threadId", threadID))
				return
			}
			onUpdate(ChatUpdate{
				ThreadID:       threadID,
				Messages:       OrderMessages(msgs, ChatLimit),
				ScrollToNewest: true,
			})
		})
	})
}

// WatchAlerts replaces the alert listener with one for ptUID.
func (m *Manager) WatchAlerts(ptUID string, onUpdate func([]domain.Alert)) {
	m.attach(ChannelAlerts, ptUID, func(gen uint64) Cancel {
		return m.source.SubscribeAlerts(ptUID, AlertLimit, func(alerts []domain.Alert) {
			if !m.current(ChannelAlerts, gen) {
				return
			}
			onUpdate(OrderAlerts(alerts, AlertLimit))
		})
	})
}

// attach reserves the channel, stops the previous listener and only then
// opens the new one.
func (m *Manager) attach(ch Channel, key string, open func(gen uint64) Cancel) {
	m.mu.Lock()
	prev := m.active[ch]
	m.gen++
	gen := m.gen
	m.active[ch] = &listener{key: key, gen: gen}
	m.mu.Unlock()

	stop(prev)
	m.logger.Debug("attaching listener", zap.String("channel", string(ch)), zap.String("key", key))

	cancel := open(gen)

	m.mu.Lock()
	if l := m.active[ch]; l != nil && l.gen == gen {
		l.cancel = cancel
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	// Superseded or detached while opening.
	if cancel != nil {
		cancel()
	}
}

func (m *Manager) current(ch Channel, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.active[ch]
	return l != nil && l.gen == gen
}

// Detach stops the listener on ch, if any.
func (m *Manager) Detach(ch Channel) {
	m.mu.Lock()
	prev := m.active[ch]
	delete(m.active, ch)
	m.mu.Unlock()
	stop(prev)
}

// DetachAll stops every listener. Used on sign-out and role change.
func (m *Manager) DetachAll() {
	m.mu.Lock()
	prev := m.active
	m.active = make(map[Channel]*listener)
	m.mu.Unlock()
	for _, l := range prev {
		stop(l)
	}
}

// Active returns the key the channel currently listens to.
func (m *Manager) Active(ch Channel) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.active[ch]
	if !ok {
		return "", false
	}
	return l.key, true
}

func stop(l *listener) {
	if l != nil && l.cancel != nil {
		l.cancel()
	}
}

// OrderMessages sorts oldest first and keeps the newest limit messages.
func OrderMessages(msgs []domain.Message, limit int) []domain.Message {
	out := append([]domain.Message(nil), msgs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// OrderAlerts sorts newest first and keeps the first limit alerts.
func OrderAlerts(alerts []domain.Alert, limit int) []domain.Alert {
	out := append([]domain.Alert(nil), alerts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
