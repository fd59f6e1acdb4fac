package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"rendezvous/internal/domain"
)

type fakeRendezVousRepo struct {
	mu        sync.Mutex
	seq       int
	records   map[string]*domain.RendezVous
	attendees *fakeAttendeeRepo // consulted by List's attendee filter
	listCalls int
	listErr   error
}

func newFakeRendezVousRepo() *fakeRendezVousRepo {
	return &fakeRendezVousRepo{records: make(map[string]*domain.RendezVous)}
}

func (f *fakeRendezVousRepo) Create(ctx context.Context, rv *domain.RendezVous) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	rv.ID = fmt.Sprintf("rv-%d", f.seq)
	stored := *rv
	f.records[rv.ID] = &stored
	return nil
}

func (f *fakeRendezVousRepo) GetByID(ctx context.Context, id string) (*domain.RendezVous, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rv := *stored
	return &rv, nil
}

func (f *fakeRendezVousRepo) Update(ctx context.Context, rv *domain.RendezVous) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rv.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *rv
	f.records[rv.ID] = &stored
	return nil
}

func (f *fakeRendezVousRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRendezVousRepo) List(ctx context.Context, q domain.RendezVousQuery) ([]*domain.RendezVous, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	allowed := make(map[string]struct{}, len(q.Statuses))
	for _, s := range q.Statuses {
		allowed[s] = struct{}{}
	}
	items := make([]*domain.RendezVous, 0)
	for _, stored := range f.records {
		if _, ok := allowed[stored.Status]; !ok {
			continue
		}
		if q.Organizer != "" && stored.OrganizerID != q.Organizer {
			continue
		}
		if len(q.Attendees) > 0 && !f.anyAttendeeOf(stored.ID, q.Attendees) {
			continue
		}
		rv := *stored
		items = append(items, &rv)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, len(items), nil
}

// anyAttendeeOf reports whether any of the wanted user IDs is in the
// rendez-vous attendee set (IN semantics, organizer not implied).
func (f *fakeRendezVousRepo) anyAttendeeOf(rendezVousID string, wanted []string) bool {
	if f.attendees == nil {
		return false
	}
	f.attendees.mu.Lock()
	defer f.attendees.mu.Unlock()
	for _, want := range wanted {
		for _, have := range f.attendees.attendees[rendezVousID] {
			if want == have {
				return true
			}
		}
	}
	return false
}

type fakeAvailabilityRepo struct {
	mu          sync.Mutex
	ledgers     map[string]domain.Ledger
	addCalls    int
	removeCalls int
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{ledgers: make(map[string]domain.Ledger)}
}

func (f *fakeAvailabilityRepo) Seed(ctx context.Context, rendezVousID string, ledger domain.Ledger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ledgers[rendezVousID]; ok {
		return nil
	}
	f.ledgers[rendezVousID] = copyLedger(ledger)
	return nil
}

func (f *fakeAvailabilityRepo) GetByRendezVous(ctx context.Context, rendezVousID string) (domain.Ledger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyLedger(f.ledgers[rendezVousID]), nil
}

func (f *fakeAvailabilityRepo) AddMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	ledger, ok := f.ledgers[rendezVousID]
	if !ok {
		return nil
	}
	marks, ok := ledger[dayKey]
	if !ok {
		return nil
	}
	for _, id := range marks {
		if id == attendeeID {
			return nil
		}
	}
	ledger[dayKey] = append(marks, attendeeID)
	return nil
}

func (f *fakeAvailabilityRepo) RemoveMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	ledger, ok := f.ledgers[rendezVousID]
	if !ok {
		return nil
	}
	marks := ledger[dayKey]
	next := marks[:0]
	for _, id := range marks {
		if id != attendeeID {
			next = append(next, id)
		}
	}
	ledger[dayKey] = next
	return nil
}

func (f *fakeAvailabilityRepo) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ledgers, rendezVousID)
	return nil
}

func copyLedger(ledger domain.Ledger) domain.Ledger {
	if ledger == nil {
		return domain.Ledger{}
	}
	out := make(domain.Ledger, len(ledger))
	for key, marks := range ledger {
		out[key] = append([]string{}, marks...)
	}
	return out
}

type fakeAttendeeRepo struct {
	mu        sync.Mutex
	attendees map[string][]string
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{attendees: make(map[string][]string)}
}

func (f *fakeAttendeeRepo) Add(ctx context.Context, rendezVousID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.attendees[rendezVousID] {
		if id == userID {
			return nil
		}
	}
	f.attendees[rendezVousID] = append(f.attendees[rendezVousID], userID)
	return nil
}

func (f *fakeAttendeeRepo) Remove(ctx context.Context, rendezVousID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.attendees[rendezVousID]
	next := current[:0]
	for _, id := range current {
		if id != userID {
			next = append(next, id)
		}
	}
	f.attendees[rendezVousID] = next
	return nil
}

func (f *fakeAttendeeRepo) ListByRendezVous(ctx context.Context, rendezVousID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.attendees[rendezVousID]...), nil
}

func (f *fakeAttendeeRepo) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attendees, rendezVousID)
	return nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	seq  int
	rows []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n.ID = fmt.Sprintf("n-%d", f.seq)
	stored := *n
	f.rows = append(f.rows, &stored)
	return nil
}

func (f *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Notification, 0)
	for _, n := range f.rows {
		if n.UserID == userID {
			row := *n
			out = append(out, &row)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.rows[:0]
	for _, n := range f.rows {
		if n.RendezVousID != rendezVousID {
			next = append(next, n)
		}
	}
	f.rows = next
	return nil
}

type fakeTypeRepo struct {
	mu      sync.Mutex
	ensured []string
	types   map[string]*domain.RendezVousType
}

func newFakeTypeRepo() *fakeTypeRepo {
	return &fakeTypeRepo{types: make(map[string]*domain.RendezVousType)}
}

func (f *fakeTypeRepo) EnsureType(ctx context.Context, slug, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, slug)
	if t, ok := f.types[slug]; ok {
		return t.ID, nil
	}
	t := &domain.RendezVousType{ID: "type-" + slug, Slug: slug, Name: name}
	f.types[slug] = t
	return t.ID, nil
}

func (f *fakeTypeRepo) GetBySlug(ctx context.Context, slug string) (*domain.RendezVousType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.types[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeTypeRepo) List(ctx context.Context) ([]*domain.RendezVousType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.RendezVousType, 0, len(f.types))
	for _, t := range f.types {
		row := *t
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeCache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	getErr        error
	hits          int
	sets          int
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	f.hits++
	return true, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.entries, key)
		}
	}
	f.invalidations++
	return nil
}

type notifierCall struct {
	action  string
	rvID    string
	actorID string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

func (f *fakeNotifier) RendezVousPublished(ctx context.Context, rv *domain.RendezVous, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{action: domain.NotificationPublished, rvID: rv.ID, actorID: actorID})
	return f.err
}

func (f *fakeNotifier) RendezVousDateFixed(ctx context.Context, rv *domain.RendezVous, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{action: domain.NotificationDateFixed, rvID: rv.ID, actorID: actorID})
	return f.err
}

type serviceFixture struct {
	rvRepo       *fakeRendezVousRepo
	availRepo    *fakeAvailabilityRepo
	attendeeRepo *fakeAttendeeRepo
	notifRepo    *fakeNotificationRepo
	typeRepo     *fakeTypeRepo
	notifier     *fakeNotifier
	cache        *fakeCache
	service      domain.RendezVousService
}

func newServiceFixture() *serviceFixture {
	attendeeRepo := newFakeAttendeeRepo()
	rvRepo := newFakeRendezVousRepo()
	rvRepo.attendees = attendeeRepo
	f := &serviceFixture{
		rvRepo:       rvRepo,
		availRepo:    newFakeAvailabilityRepo(),
		attendeeRepo: attendeeRepo,
		notifRepo:    newFakeNotificationRepo(),
		typeRepo:     newFakeTypeRepo(),
		notifier:     &fakeNotifier{},
		cache:        newFakeCache(),
	}
	f.service = NewRendezVousService(
		f.rvRepo, f.availRepo, f.attendeeRepo, f.notifRepo, f.typeRepo,
		f.notifier, f.cache, nil, 2*time.Second,
	)
	return f
}
