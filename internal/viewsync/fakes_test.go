package viewsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/realtime"
)

// fakeBackend serves canned lists. Hooks run without any lock held, so they
// may call back into the synchronizer.
type fakeBackend struct {
	mu        sync.Mutex
	dancers   []domain.DancerSummary
	checkIns  []domain.CheckIn
	slots     []domain.AvailabilitySlot
	threads   []domain.ThreadSummary
	code      string
	reportURL string
	failWith  error
	calls     map[string]int
	sent      []string
	reviewed  []string
	addedSlot *backend.SlotInput

	onGetDancers func()
	onSend       func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (b *fakeBackend) record(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
	return b.failWith
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) GetMyDancers(ctx context.Context) ([]domain.DancerSummary, error) {
	err := b.record("getMyDancers")
	b.mu.Lock()
	result := append([]domain.DancerSummary(nil), b.dancers...)
	hook := b.onGetDancers
	b.onGetDancers = nil
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return result, err
}

func (b *fakeBackend) GetDancerRecentCheckins(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	err := b.record("getDancerRecentCheckins")
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.CheckIn(nil), b.checkIns...), err
}

func (b *fakeBackend) GetMyAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error) {
	err := b.record("getMyAvailability")
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.AvailabilitySlot(nil), b.slots...), err
}

func (b *fakeBackend) GetLinkedPTAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error) {
	err := b.record("getLinkedPtAvailability")
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.AvailabilitySlot(nil), b.slots...), err
}

func (b *fakeBackend) SetMyAvailability(ctx context.Context, slot backend.SlotInput) error {
	err := b.record("setMyAvailability")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addedSlot = &slot
	return err
}

func (b *fakeBackend) DeleteMyAvailability(ctx context.Context, slotID string) error {
	return b.record("deleteMyAvailability")
}

func (b *fakeBackend) GetMyThreads(ctx context.Context) ([]domain.ThreadSummary, error) {
	err := b.record("getMyThreads")
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ThreadSummary(nil), b.threads...), err
}

func (b *fakeBackend) SendMessage(ctx context.Context, threadID, text string) error {
	err := b.record("sendMessage")
	b.mu.Lock()
	b.sent = append(b.sent, threadID+":"+text)
	hook := b.onSend
	b.onSend = nil
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// MarkThreadRead zeroes the unread count the next list fetch reports.
func (b *fakeBackend) MarkThreadRead(ctx context.Context, threadID string) error {
	if err := b.record("markThreadRead"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.threads {
		if b.threads[i].ThreadID == threadID {
			b.threads[i].UnreadCount = 0
		}
	}
	return nil
}

func (b *fakeBackend) MarkAlertReviewed(ctx context.Context, alertID string) error {
	err := b.record("markAlertReviewed")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reviewed = append(b.reviewed, alertID)
	return err
}

func (b *fakeBackend) GeneratePTCode(ctx context.Context) (string, error) {
	err := b.record("generatePtCode")
	return b.code, err
}

func (b *fakeBackend) RedeemPTCode(ctx context.Context, code string) (backend.RedeemResult, error) {
	err := b.record("redeemPtCode:" + code)
	return backend.RedeemResult{PTID: "pt1", ThreadID: "t1"}, err
}

func (b *fakeBackend) SeedDemoData(ctx context.Context) error {
	return b.record("seedDemoData")
}

func (b *fakeBackend) ExportDancerReport(ctx context.Context, dancerID string) (string, error) {
	err := b.record("exportDancerReport")
	return b.reportURL, err
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]domain.CheckIn
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]domain.CheckIn)}
}

func (s *fakeStore) RecentCheckIns(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CheckIn
	for _, e := range s.entries {
		if e.DancerID == dancerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertCheckIn(ctx context.Context, dancerID string, entry domain.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.DancerID = dancerID
	s.entries[dancerID+"/"+entry.Date] = entry
	return nil
}

// fakeSubs keeps the latest callbacks so tests can push snapshots.
type fakeSubs struct {
	mu        sync.Mutex
	watched   []string
	chat      func(realtime.ChatUpdate)
	alertUIDs []string
	alerts    func([]domain.Alert)
	detached  []realtime.Channel
	detachAll int
}

func (f *fakeSubs) WatchThread(threadID string, onUpdate func(realtime.ChatUpdate)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, threadID)
	f.chat = onUpdate
}

func (f *fakeSubs) WatchAlerts(ptUID string, onUpdate func([]domain.Alert)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertUIDs = append(f.alertUIDs, ptUID)
	f.alerts = onUpdate
}

func (f *fakeSubs) Detach(ch realtime.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = append(f.detached, ch)
}

func (f *fakeSubs) DetachAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detachAll++
}

func (f *fakeSubs) pushChat(u realtime.ChatUpdate) {
	f.mu.Lock()
	fn := f.chat
	f.mu.Unlock()
	fn(u)
}

func (f *fakeSubs) pushAlerts(alerts []domain.Alert) {
	f.mu.Lock()
	fn := f.alerts
	f.mu.Unlock()
	fn(alerts)
}

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestSynchronizer(session Session) (*Synchronizer, *fakeBackend, *fakeStore, *fakeSubs) {
	b := newFakeBackend()
	store := newFakeStore()
	subs := &fakeSubs{}
	s := New(b, store, subs, zap.NewNop())
	s.now = func() time.Time { return testNow }
	if session.UID != "" {
		s.Start(session)
	}
	return s, b, store, subs
}

var (
	ptSession     = Session{UID: "pt1", Email: "pt@example.com", Role: domain.RolePT}
	dancerSession = Session{UID: "d1", Email: "ann@example.com", Role: domain.RoleDancer}
)
