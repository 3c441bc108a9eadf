package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutordesk/config"
	"tutordesk/internal/model"
	"tutordesk/internal/repository"
	pkgerrors "tutordesk/pkg/errors"
)

// ── Mock TutorRepository ──

type mockTutorRepo struct {
	tutors  map[string]*model.Tutor
	entries *mockTimetableEntryRepo // Delete 级联
	seq     int
}

func newMockTutorRepo() *mockTutorRepo {
	return &mockTutorRepo{tutors: make(map[string]*model.Tutor)}
}

func (m *mockTutorRepo) Create(_ context.Context, tutor *model.Tutor) error {
	if tutor.TutorID == "" {
		m.seq++
		tutor.TutorID = fmt.Sprintf("tutor-%03d", m.seq)
	}
	tutor.CreatedAt = time.Now()
	m.tutors[tutor.TutorID] = tutor
	return nil
}

func (m *mockTutorRepo) GetByID(_ context.Context, id string) (*model.Tutor, error) {
	if t, ok := m.tutors[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTutorRepo) List(_ context.Context, activeOnly bool) ([]model.Tutor, error) {
	var result []model.Tutor
	for _, t := range m.tutors {
		if activeOnly && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTutorRepo) Update(_ context.Context, tutor *model.Tutor) error {
	m.tutors[tutor.TutorID] = tutor
	return nil
}

func (m *mockTutorRepo) Delete(_ context.Context, id string) error {
	delete(m.tutors, id)
	if m.entries != nil {
		for entryID, e := range m.entries.entries {
			if e.TutorID == id {
				delete(m.entries.entries, entryID)
			}
		}
	}
	return nil
}

// ── Mock TimetableEntryRepository ──

type mockTimetableEntryRepo struct {
	tutors  *mockTutorRepo
	entries map[string]*model.TimetableEntry
	order   []string
	seq     int
}

func newMockTimetableEntryRepo(tutors *mockTutorRepo) *mockTimetableEntryRepo {
	return &mockTimetableEntryRepo{tutors: tutors, entries: make(map[string]*model.TimetableEntry)}
}

func (m *mockTimetableEntryRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	if entry.TimetableEntryID == "" {
		m.seq++
		entry.TimetableEntryID = fmt.Sprintf("entry-%03d", m.seq)
	}
	if entry.Version == 0 {
		entry.Version = 1
	}
	stored := *entry
	m.entries[entry.TimetableEntryID] = &stored
	m.order = append(m.order, entry.TimetableEntryID)
	return nil
}

func (m *mockTimetableEntryRepo) BatchCreate(ctx context.Context, entries []model.TimetableEntry) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTimetableEntryRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withTutor(*e), nil
}

// List 按插入顺序返回，排序由 Service 负责
func (m *mockTimetableEntryRepo) List(_ context.Context, tutorID string) ([]model.TimetableEntry, error) {
	var result []model.TimetableEntry
	for _, id := range m.order {
		e, ok := m.entries[id]
		if !ok {
			continue
		}
		if tutorID != "" && e.TutorID != tutorID {
			continue
		}
		result = append(result, *m.withTutor(*e))
	}
	return result, nil
}

func (m *mockTimetableEntryRepo) Update(_ context.Context, entry *model.TimetableEntry) error {
	stored, ok := m.entries[entry.TimetableEntryID]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version++
	updated := *entry
	updated.Tutor = nil
	m.entries[entry.TimetableEntryID] = &updated
	return nil
}

func (m *mockTimetableEntryRepo) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockTimetableEntryRepo) withTutor(e model.TimetableEntry) *model.TimetableEntry {
	if t, ok := m.tutors.tutors[e.TutorID]; ok {
		e.Tutor = t
	}
	return &e
}

// ── Mock GridCache ──

type mockCache struct {
	mu          sync.Mutex
	generations map[string]int64
	values      map[string][]byte
	gets        int
	hits        int
}

func newMockCache() *mockCache {
	return &mockCache{generations: make(map[string]int64), values: make(map[string][]byte)}
}

func (m *mockCache) Generation(_ context.Context, ns string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[ns], nil
}

func (m *mockCache) BumpGeneration(_ context.Context, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[ns]++
	return nil
}

func (m *mockCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(v, dest)
}

func (m *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.values[key] = b
	return nil
}

// ── Mock AttemptTracker / TokenBlacklist ──

type mockAttempts struct {
	counts map[string]int64
}

func newMockAttempts() *mockAttempts {
	return &mockAttempts{counts: make(map[string]int64)}
}

func (m *mockAttempts) IncrFailedAttempts(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mockAttempts) FailedAttempts(_ context.Context, key string) (int64, error) {
	return m.counts[key], nil
}

func (m *mockAttempts) ResetFailedAttempts(_ context.Context, key string) error {
	delete(m.counts, key)
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.tokens[jti] = ttl
	return nil
}

// ── 测试辅助 ──

type testRepos struct {
	tutors  *mockTutorRepo
	entries *mockTimetableEntryRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	tutors := newMockTutorRepo()
	entries := newMockTimetableEntryRepo(tutors)
	tutors.entries = entries
	return &repository.Repository{Tutor: tutors, TimetableEntry: entries}, &testRepos{tutors: tutors, entries: entries}
}

func testTimetableConfig() *config.TimetableConfig {
	return &config.TimetableConfig{
		MinHour:       9,
		MaxHour:       22,
		GridCacheTTL:  time.Minute,
		ImportTimeout: 2 * time.Second,
		ImportMaxSize: 1 << 20,
		Timezone:      "UTC",
	}
}

func setupTestTimetableService(cache GridCache) (TimetableService, *testRepos) {
	repo, mocks := newTestRepos()
	svc := NewTimetableService(testTimetableConfig(), repo, cache, zap.NewNop())
	return svc, mocks
}

func seedTutor(m *testRepos, id, name string) *model.Tutor {
	t := &model.Tutor{TutorID: id, Name: name, IsActive: true}
	_ = m.tutors.Create(context.Background(), t)
	return t
}

func seedEntry(m *testRepos, tutorID string, day int, start, end, subject string) *model.TimetableEntry {
	e := &model.TimetableEntry{TutorID: tutorID, DayOfWeek: day, StartTime: start, EndTime: end, Subject: subject}
	_ = m.entries.Create(context.Background(), e)
	return e
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
