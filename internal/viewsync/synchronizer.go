// Package viewsync reconciles fetched and streamed collections with the
// session's role and context and derives every display field.
package viewsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/navigation"
	"onpointe/prevention/internal/realtime"
)

const (
	OwnHistoryLimit    = 7
	DetailHistoryLimit = 14
)

var (
	ErrWrongRole   = errors.New("not available for this role")
	ErrSendSkipped = errors.New("nothing to send")
)

// Backend is the subset of the RPC surface the synchronizer drives.
type Backend interface {
	GetMyDancers(ctx context.Context) ([]domain.DancerSummary, error)
	GetDancerRecentCheckins(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error)
	GetMyAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error)
	GetLinkedPTAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error)
	SetMyAvailability(ctx context.Context, slot backend.SlotInput) error
	DeleteMyAvailability(ctx context.Context, slotID string) error
	GetMyThreads(ctx context.Context) ([]domain.ThreadSummary, error)
	SendMessage(ctx context.Context, threadID, text string) error
	MarkThreadRead(ctx context.Context, threadID string) error
	MarkAlertReviewed(ctx context.Context, alertID string) error
	GeneratePTCode(ctx context.Context) (string, error)
	RedeemPTCode(ctx context.Context, code string) (backend.RedeemResult, error)
	SeedDemoData(ctx context.Context) error
	ExportDancerReport(ctx context.Context, dancerID string) (string, error)
}

// CheckInStore is the document store's per-dancer check-in collection.
type CheckInStore interface {
	RecentCheckIns(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error)
	UpsertCheckIn(ctx context.Context, dancerID string, entry domain.CheckIn) error
}

// Subscriptions is satisfied by *realtime.Manager.
type Subscriptions interface {
	WatchThread(threadID string, onUpdate func(realtime.ChatUpdate))
	WatchAlerts(ptUID string, onUpdate func([]domain.Alert))
	Detach(ch realtime.Channel)
	DetachAll()
}

// Session is the explicit context every operation runs against.
type Session struct {
	UID   string
	Email string
	Role  domain.Role
}

type dancerLabel struct {
	name  string
	email string
}

// ticket tags an in-flight request. Its result is applied only if the
// session epoch and the list's latest request are unchanged.
type ticket struct {
	epoch uint64
	list  string
	seq   uint64
}

// Synchronizer owns the View. Network calls never run under mu.
type Synchronizer struct {
	mu      sync.Mutex
	backend Backend
	store   CheckInStore
	subs    Subscriptions
	logger  *zap.Logger
	now     func() time.Time

	session        Session
	epoch          uint64
	seq            map[string]uint64
	directory      map[string]dancerLabel
	threads        []domain.ThreadSummary
	alerts         []domain.Alert
	activeThreadID string
	sending        bool
	view           View
	listeners      []func(View)

	// attachMu orders listener attaches against DetachAll so a listener
	// for an ended session is never attached after the detach.
	attachMu sync.Mutex
}

// New creates a signed-out synchronizer.
func New(b Backend, store CheckInStore, subs Subscriptions, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		backend:   b,
		store:     store,
		subs:      subs,
		logger:    logger,
		now:       time.Now,
		seq:       make(map[string]uint64),
		directory: make(map[string]dancerLabel),
		view:      View{Chat: closedChat()},
	}
}

// OnChange registers fn to receive the View after every change.
func (s *Synchronizer) OnChange(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// View returns the current view.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Session returns the current session context.
func (s *Synchronizer) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start begins a new session context. Everything derived from the previous
// one is dropped and in-flight results for it will be discarded.
func (s *Synchronizer) Start(session Session) {
	s.mu.Lock()
	if session.UID != s.session.UID {
		s.directory = make(map[string]dancerLabel)
	}
	s.resetLocked(session)
	s.mu.Unlock()

	s.detachAll()
	s.notify()
}

// Reset is Start for a signed-out session.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.directory = make(map[string]dancerLabel)
	s.resetLocked(Session{})
	s.mu.Unlock()

	s.detachAll()
	s.notify()
}

func (s *Synchronizer) detachAll() {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	s.subs.DetachAll()
}

// watch runs attach unless the session changed after epoch was taken.
// attach must not call Start or Reset.
func (s *Synchronizer) watch(epoch uint64, attach func()) bool {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	s.mu.Lock()
	stale := epoch != s.epoch
	s.mu.Unlock()
	if stale {
		return false
	}
	attach()
	return true
}

func (s *Synchronizer) resetLocked(session Session) {
	s.epoch++
	s.session = session
	s.threads = nil
	s.alerts = nil
	s.activeThreadID = ""
	s.sending = false
	s.view = View{Chat: closedChat()}
}

// Bootstrap loads every role-scoped list: roster and alerts for a PT,
// availability, threads and loads for both roles.
func (s *Synchronizer) Bootstrap(ctx context.Context) {
	session := s.Session()
	if session.Role == domain.RolePT {
		s.SubscribeAlerts()
	} else {
		s.subs.Detach(realtime.ChannelAlerts)
	}

	refreshes := []func(context.Context){s.RefreshAvailability, s.RefreshThreads, s.RefreshLoads}
	if session.Role == domain.RolePT {
		refreshes = append(refreshes, s.RefreshRoster)
	}

	var wg sync.WaitGroup
	for _, refresh := range refreshes {
		wg.Add(1)
		go func(refresh func(context.Context)) {
			defer wg.Done()
			refresh(ctx)
		}(refresh)
	}
	wg.Wait()
}

// RefreshScreen reloads the data the screen shows.
func (s *Synchronizer) RefreshScreen(ctx context.Context, screen navigation.Screen) {
	switch screen {
	case navigation.ScreenMessages:
		s.RefreshThreads(ctx)
	case navigation.ScreenAvailability:
		s.RefreshAvailability(ctx)
	case navigation.ScreenCheckIn:
		s.RefreshLoads(ctx)
	case navigation.ScreenRoster:
		s.RefreshRoster(ctx)
	}
}

// begin issues a ticket for list, superseding earlier requests for it.
func (s *Synchronizer) begin(list string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(list)
}

func (s *Synchronizer) beginLocked(list string) ticket {
	s.seq[list]++
	return ticket{epoch: s.epoch, list: list, seq: s.seq[list]}
}

func (s *Synchronizer) currentLocked(t ticket) bool {
	return t.epoch == s.epoch && s.seq[t.list] == t.seq
}

// update applies fn under the lock and then notifies listeners.
func (s *Synchronizer) update(fn func(v *View)) {
	s.mu.Lock()
	fn(&s.view)
	s.mu.Unlock()
	s.notify()
}

// finish applies fn only when t is still current.
func (s *Synchronizer) finish(t ticket, fn func(v *View)) bool {
	s.mu.Lock()
	if !s.currentLocked(t) {
		s.mu.Unlock()
		s.logger.Debug("discarding stale result", zap.String("list", t.list))
		return false
	}
	fn(&s.view)
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Synchronizer) notify() {
	s.mu.Lock()
	view := s.view
	listeners := append([]func(View){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(view)
	}
}

func (s *Synchronizer) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// labelForLocked resolves a dancer uid through the roster directory.
func (s *Synchronizer) labelForLocked(uid string) string {
	if entry, ok := s.directory[uid]; ok {
		if entry.name != "" {
			return entry.name
		}
		if entry.email != "" {
			return entry.email
		}
	}
	return "Dancer"
}

// threadLabelLocked: explicit peer name unless it is just the raw uid, then
// the roster directory for a PT or "PT" for a dancer.
func (s *Synchronizer) threadLabelLocked(t domain.ThreadSummary) string {
	if t.PeerName != "" && t.PeerName != t.PeerUID {
		return t.PeerName
	}
	if s.session.Role == domain.RolePT {
		return s.labelForLocked(t.PeerUID)
	}
	return "PT"
}

// rederiveLocked rebuilds the rows whose labels depend on the directory.
func (s *Synchronizer) rederiveLocked() {
	if s.threads != nil {
		s.view.Threads.Items = s.threadRowsLocked()
	}
	if s.alerts != nil {
		s.view.Alerts.Items = s.alertRowsLocked()
	}
	if s.view.Chat.State == ChatListening {
		for _, t := range s.threads {
			if t.ThreadID == s.activeThreadID {
				s.view.Chat.Title = s.threadLabelLocked(t)
			}
		}
	}
}
