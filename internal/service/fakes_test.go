package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// In-memory repositories with the same contracts as the mongo ones.

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error
}

func newMemUsers(users ...domain.User) *memUsers {
	r := &memUsers{byID: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		r.byID[u.ID] = &u
	}
	return r
}

func (r *memUsers) Create(ctx context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return "", repository.ErrConflict
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	stored := *user
	r.byID[user.ID] = &stored
	return user.ID, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (r *memUsers) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUsers) SetRole(ctx context.Context, id string, role domain.Role, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Role != domain.RoleUnset {
		return repository.ErrConflict
	}
	u.Role = role
	u.Name = name
	return nil
}

func (r *memUsers) LinkDancer(ctx context.Context, ptID, dancerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.byID[ptID]
	if !ok || pt.Role != domain.RolePT {
		return repository.ErrNotFound
	}
	dancer, ok := r.byID[dancerID]
	if !ok || dancer.Role != domain.RoleDancer {
		return repository.ErrNotFound
	}
	dancer.PTID = ptID
	for _, id := range pt.DancerIDs {
		if id == dancerID {
			return nil
		}
	}
	pt.DancerIDs = append(pt.DancerIDs, dancerID)
	return nil
}

func (r *memUsers) GetDancersByPT(ctx context.Context, ptID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.byID {
		if u.Role == domain.RoleDancer && u.PTID == ptID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memCheckIns struct {
	mu      sync.Mutex
	entries map[string]domain.CheckIn
	setRisk int
}

func newMemCheckIns(entries ...domain.CheckIn) *memCheckIns {
	r := &memCheckIns{entries: make(map[string]domain.CheckIn)}
	for _, e := range entries {
		r.entries[e.DancerID+"/"+e.Date] = e
	}
	return r
}

func (r *memCheckIns) Upsert(ctx context.Context, entry *domain.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entry.DancerID + "/" + entry.Date
	stored := *entry
	if prev, ok := r.entries[key]; ok {
		stored.Risk = prev.Risk
	}
	r.entries[key] = stored
	return nil
}

func (r *memCheckIns) Get(ctx context.Context, dancerID, date string) (*domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[dancerID+"/"+date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *memCheckIns) sorted(dancerID string, keep func(domain.CheckIn) bool) []domain.CheckIn {
	var out []domain.CheckIn
	for _, e := range r.entries {
		if e.DancerID == dancerID && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (r *memCheckIns) GetRecent(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(dancerID, func(domain.CheckIn) bool { return true })
	out := make([]domain.CheckIn, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *memCheckIns) GetRange(ctx context.Context, dancerID, fromDate, toDate string) ([]domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(dancerID, func(e domain.CheckIn) bool {
		return e.Date >= fromDate && e.Date <= toDate
	}), nil
}

func (r *memCheckIns) SetRisk(ctx context.Context, dancerID, date string, risk domain.Risk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dancerID + "/" + date
	e, ok := r.entries[key]
	if !ok {
		return repository.ErrNotFound
	}
	e.Risk = &risk
	r.entries[key] = e
	r.setRisk++
	return nil
}

// Watch replays every stored entry once, then reports done.
func (r *memCheckIns) Watch(ctx context.Context, onChange func(dancerID, date string)) error {
	r.mu.Lock()
	var keys []domain.CheckIn
	for _, e := range r.entries {
		keys = append(keys, e)
	}
	r.mu.Unlock()
	for _, e := range keys {
		onChange(e.DancerID, e.Date)
	}
	<-ctx.Done()
	return ctx.Err()
}

type memThreads struct {
	mu      sync.Mutex
	threads map[string]*domain.Thread
	nextID  int
}

func newMemThreads() *memThreads {
	return &memThreads{threads: make(map[string]*domain.Thread)}
}

func (r *memThreads) Create(ctx context.Context, thread *domain.Thread) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		if t.DancerID == thread.DancerID && t.PTID == thread.PTID {
			return t.ID, nil
		}
	}
	r.nextID++
	thread.ID = fmt.Sprintf("thread-%d", r.nextID)
	stored := *thread
	r.threads[thread.ID] = &stored
	return thread.ID, nil
}

func (r *memThreads) GetByID(ctx context.Context, id string) (*domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *t
	return &found, nil
}

func (r *memThreads) GetByParticipant(ctx context.Context, uid string) ([]domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Thread
	for _, t := range r.threads {
		if t.Has(uid) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memThreads) RecordMessage(ctx context.Context, threadID, recipientUID, text string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return repository.ErrNotFound
	}
	t.LastMessageText = text
	t.LastMessageAt = at
	if t.Unread == nil {
		t.Unread = make(map[string]int)
	}
	t.Unread[recipientUID]++
	return nil
}

func (r *memThreads) MarkRead(ctx context.Context, threadID, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(t.Unread, uid)
	return nil
}

type memMessages struct {
	mu       sync.Mutex
	messages []domain.Message
	now      time.Time
}

func (r *memMessages) Create(ctx context.Context, msg *domain.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = fmt.Sprintf("msg-%d", len(r.messages)+1)
	msg.CreatedAt = r.now
	r.messages = append(r.messages, *msg)
	return msg.ID, nil
}

func (r *memMessages) GetRecent(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memAlerts struct {
	mu     sync.Mutex
	alerts map[string]*domain.Alert
}

func newMemAlerts() *memAlerts {
	return &memAlerts{alerts: make(map[string]*domain.Alert)}
}

func (r *memAlerts) Upsert(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert.ID = alert.PTID + "_" + alert.DancerUID + "_" + alert.Snapshot.Date
	if prev, ok := r.alerts[alert.ID]; ok {
		prev.Severity = alert.Severity
		prev.Reasons = alert.Reasons
		prev.Snapshot = alert.Snapshot
		return nil
	}
	stored := *alert
	r.alerts[alert.ID] = &stored
	return nil
}

func (r *memAlerts) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *a
	return &found, nil
}

func (r *memAlerts) GetRecent(ctx context.Context, ptID string, limit int) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alert
	for _, a := range r.alerts {
		if a.PTID == ptID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAlerts) MarkReviewed(ctx context.Context, id, ptID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.PTID != ptID {
		return repository.ErrNotFound
	}
	if !a.Reviewed {
		a.Reviewed = true
		a.ReviewedAt = &at
	}
	return nil
}

type memSlots struct {
	mu    sync.Mutex
	slots []domain.AvailabilitySlot
	from  string
}

func (r *memSlots) Create(ctx context.Context, slot *domain.AvailabilitySlot) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = fmt.Sprintf("slot-%d", len(r.slots)+1)
	r.slots = append(r.slots, *slot)
	return slot.ID, nil
}

func (r *memSlots) Delete(ctx context.Context, id, ptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.slots {
		if s.ID == id && s.PTID == ptID {
			r.slots = append(r.slots[:i], r.slots[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memSlots) GetUpcoming(ctx context.Context, ptID, fromDate string) ([]domain.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.from = fromDate
	var out []domain.AvailabilitySlot
	for _, s := range r.slots {
		if s.PTID == ptID && s.Date >= fromDate {
			out = append(out, s)
		}
	}
	return out, nil
}

type memCodes struct {
	mu       sync.Mutex
	codes    map[string]domain.LinkCode
	collides int
}

func newMemCodes() *memCodes {
	return &memCodes{codes: make(map[string]domain.LinkCode)}
}

func (r *memCodes) Create(ctx context.Context, code *domain.LinkCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collides > 0 {
		r.collides--
		return repository.ErrConflict
	}
	if _, ok := r.codes[code.Code]; ok {
		return repository.ErrConflict
	}
	r.codes[code.Code] = *code
	return nil
}

func (r *memCodes) Consume(ctx context.Context, code string, now time.Time) (*domain.LinkCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok || !now.Before(c.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	delete(r.codes, code)
	return &c, nil
}

type memFiles struct {
	mu         sync.Mutex
	objects    map[string][]byte
	types      map[string]string
	presignErr error
}

func newMemFiles() *memFiles {
	return &memFiles{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *memFiles) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *memFiles) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("https://files.example.com/%s?expires=%s", key, expires), nil
}

func (f *memFiles) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}
