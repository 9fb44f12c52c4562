package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/asset"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/validate"
)

// =========================================================================
// MOCK STORE
// =========================================================================
//
// mockStore is an in-memory repository.Store. It stores copies, counts
// writes so tests can assert "nothing was written", and returns failErr
// from any method named in failOn.

type mockStore struct {
	mu sync.Mutex

	users    map[int64]*model.User
	segments map[int64]*model.Segment
	projects map[int64]*model.Project
	contacts map[int64]*model.ContactMessage
	nextID   int64
	clock    time.Time

	writes  int
	failOn  map[string]bool
	failErr error
}

var _ repository.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[int64]*model.User),
		segments: make(map[int64]*model.Segment),
		projects: make(map[int64]*model.Project),
		contacts: make(map[int64]*model.ContactMessage),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failOn:   make(map[string]bool),
	}
}

// fail makes every listed method return err.
func (m *mockStore) fail(err error, methods ...string) {
	m.failErr = err
	for _, name := range methods {
		m.failOn[name] = true
	}
}

func (m *mockStore) check(method string) error {
	if m.failOn[method] {
		return m.failErr
	}
	return nil
}

// tick returns a strictly increasing timestamp so "newest first" is stable.
func (m *mockStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

func (m *mockStore) Ping(context.Context) error { return m.check("Ping") }
func (m *mockStore) Close() error              { return nil }

// ===== USERS =====

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateUser"); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperror.ConflictMessage("email already registered")
		}
	}
	m.writes++
	u.ID = m.id()
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", idString(id))
	}
	out := *u
	return &out, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) ListUsers(_ context.Context, f repository.UserFilter) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListUsers"); err != nil {
		return nil, err
	}
	q := strings.ToLower(f.Query)
	out := []model.User{}
	for _, u := range m.users {
		name := ""
		if u.Name != nil {
			name = strings.ToLower(*u.Name)
		}
		if q == "" || strings.Contains(u.Email, q) || strings.Contains(name, q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.ListOptions), nil
}

func (m *mockStore) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateUser"); err != nil {
		return err
	}
	if _, ok := m.users[u.ID]; !ok {
		return apperror.NotFound("user", idString(u.ID))
	}
	m.writes++
	u.UpdatedAt = m.tick()
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", idString(id))
	}
	m.writes++
	delete(m.users, id)
	return nil
}

func (m *mockStore) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CountUsers"); err != nil {
		return 0, err
	}
	return int64(len(m.users)), nil
}

// ===== SEGMENTS =====

func (m *mockStore) addSegment(slug, label string) *model.Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.Segment{ID: m.id(), Slug: slug, Label: label}
	m.segments[s.ID] = s
	out := *s
	return &out
}

func (m *mockStore) GetSegmentBySlug(_ context.Context, slug string) (*model.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetSegmentBySlug"); err != nil {
		return nil, err
	}
	for _, s := range m.segments {
		if s.Slug == slug {
			out := *s
			return &out, nil
		}
	}
	return nil, apperror.NotFound("segment", slug)
}

func (m *mockStore) ListSegments(context.Context) ([]model.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListSegments"); err != nil {
		return nil, err
	}
	out := []model.Segment{}
	for _, s := range m.segments {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (m *mockStore) ListSegmentsByIDs(_ context.Context, ids []int64) ([]model.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListSegmentsByIDs"); err != nil {
		return nil, err
	}
	out := []model.Segment{}
	for _, id := range ids {
		if s, ok := m.segments[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) EnsureSegment(_ context.Context, seg *model.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("EnsureSegment"); err != nil {
		return err
	}
	for _, s := range m.segments {
		if s.Slug == seg.Slug {
			*seg = *s
			return nil
		}
	}
	m.writes++
	seg.ID = m.id()
	stored := *seg
	m.segments[seg.ID] = &stored
	return nil
}

func (m *mockStore) CountSegments(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CountSegments"); err != nil {
		return 0, err
	}
	return int64(len(m.segments)), nil
}

// ===== PROJECTS =====

// joined returns a copy of p with its segment attached, as the real
// repositories do.
func (m *mockStore) joined(p *model.Project) model.Project {
	out := *p
	out.Tags = append([]string{}, p.Tags...)
	out.Segment = nil
	if s, ok := m.segments[p.SegmentID]; ok {
		seg := *s
		out.Segment = &seg
	}
	return out
}

func (m *mockStore) CreateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateProject"); err != nil {
		return err
	}
	m.writes++
	p.ID = m.id()
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	m.projects[p.ID] = &stored
	*p = m.joined(&stored)
	return nil
}

func (m *mockStore) GetProjectByID(_ context.Context, id int64) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetProjectByID"); err != nil {
		return nil, err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", idString(id))
	}
	out := m.joined(p)
	return &out, nil
}

func (m *mockStore) ListProjects(_ context.Context, f repository.ProjectFilter) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListProjects"); err != nil {
		return nil, err
	}
	out := []model.Project{}
	for _, p := range m.projects {
		j := m.joined(p)
		if f.SegmentSlug != "" && j.SegmentSlug() != f.SegmentSlug {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.ListOptions), nil
}

func (m *mockStore) UpdateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateProject"); err != nil {
		return err
	}
	if _, ok := m.projects[p.ID]; !ok {
		return apperror.NotFound("project", idString(p.ID))
	}
	m.writes++
	p.UpdatedAt = m.tick()
	stored := *p
	m.projects[p.ID] = &stored
	*p = m.joined(&stored)
	return nil
}

func (m *mockStore) DeleteProject(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return apperror.NotFound("project", idString(id))
	}
	m.writes++
	delete(m.projects, id)
	return nil
}

func (m *mockStore) CountProjects(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CountProjects"); err != nil {
		return 0, err
	}
	return int64(len(m.projects)), nil
}

func (m *mockStore) CountProjectsBySegment(context.Context) ([]model.SegmentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CountProjectsBySegment"); err != nil {
		return nil, err
	}
	counts := map[int64]int64{}
	for _, p := range m.projects {
		counts[p.SegmentID]++
	}
	out := []model.SegmentCount{}
	for id, n := range counts {
		out = append(out, model.SegmentCount{SegmentID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out, nil
}

// ===== CONTACT MESSAGES =====

func (m *mockStore) CreateContact(_ context.Context, c *model.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateContact"); err != nil {
		return err
	}
	m.writes++
	c.ID = m.id()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	m.contacts[c.ID] = &stored
	return nil
}

func (m *mockStore) GetContactByID(_ context.Context, id int64) (*model.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, apperror.NotFound("contact message", idString(id))
	}
	out := *c
	return &out, nil
}

func (m *mockStore) ListContacts(_ context.Context, opts repository.ListOptions) ([]model.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListContacts"); err != nil {
		return nil, err
	}
	out := []model.ContactMessage{}
	for _, c := range m.contacts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, opts), nil
}

func (m *mockStore) UpdateContact(_ context.Context, c *model.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateContact"); err != nil {
		return err
	}
	if _, ok := m.contacts[c.ID]; !ok {
		return apperror.NotFound("contact message", idString(c.ID))
	}
	m.writes++
	c.UpdatedAt = m.tick()
	stored := *c
	m.contacts[c.ID] = &stored
	return nil
}

func (m *mockStore) DeleteContact(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return apperror.NotFound("contact message", idString(id))
	}
	m.writes++
	delete(m.contacts, id)
	return nil
}

func (m *mockStore) CountContacts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CountContacts"); err != nil {
		return 0, err
	}
	return int64(len(m.contacts)), nil
}

// =========================================================================
// FAKE UPLOADER
// =========================================================================

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _ *asset.File) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testValidator(t *testing.T) *validate.Validator {
	t.Helper()
	return validate.New()
}

// pngBytes is a minimal PNG header; enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testImage(t *testing.T) *asset.File {
	t.Helper()
	f, err := asset.NewFile("cover.png", pngBytes, 0)
	if err != nil {
		t.Fatalf("asset.NewFile: %v", err)
	}
	return f
}

func strPtr(s string) *string { return &s }
