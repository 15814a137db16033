//go:build unit

package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"ohshop-admin/internal/config"
	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestLogger() logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "json"}, io.Discard)
}

func defaultParams() pagination.Params {
	return pagination.New(1, pagination.DefaultPageSize, "")
}

// mockToggler records the last toggle and returns errToReturn.
type mockToggler struct {
	errToReturn error
	calls       int
	lastField   string
	lastExpect  bool
}

func (m *mockToggler) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	m.calls++
	m.lastField = field
	m.lastExpect = expected
	return m.errToReturn
}

// mockCategoryRepository keeps categories in memory.
type mockCategoryRepository struct {
	mockToggler
	categories   map[primitive.ObjectID]*data.Category
	reorderedIDs []primitive.ObjectID
	pinErr       error
	lastPinned   *bool
	errToReturn  error
}

var _ CategoryRepository = (*mockCategoryRepository)(nil)

func newMockCategoryRepository(cats ...*data.Category) *mockCategoryRepository {
	m := &mockCategoryRepository{categories: map[primitive.ObjectID]*data.Category{}}
	for _, c := range cats {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.categories[c.ID] = c
	}
	return m
}

func (m *mockCategoryRepository) List(ctx context.Context, p pagination.Params) ([]*data.Category, int64, error) {
	out := []*data.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, int64(len(out)), m.errToReturn
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*data.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *data.Category) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	c.ID = primitive.NewObjectID()
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *data.Category) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) SetLogo(ctx context.Context, id primitive.ObjectID, logo string) error {
	c, ok := m.categories[id]
	if !ok {
		return data.ErrNotFound
	}
	c.Logo = logo
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.categories[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) Reorder(ctx context.Context, ids []primitive.ObjectID) error {
	m.reorderedIDs = ids
	return m.errToReturn
}

func (m *mockCategoryRepository) PinContent(ctx context.Context, categoryID, contentID primitive.ObjectID, pinned bool) error {
	m.lastPinned = &pinned
	return m.pinErr
}

// mockContentRepository keeps content items in memory.
type mockContentRepository struct {
	mockToggler
	items        map[primitive.ObjectID]*data.ContentMedia
	lastFilter   data.ContentFilter
	setEpisodes  int
	lastEpisodes []data.Episode
}

var _ ContentRepository = (*mockContentRepository)(nil)

func newMockContentRepository(items ...*data.ContentMedia) *mockContentRepository {
	m := &mockContentRepository{items: map[primitive.ObjectID]*data.ContentMedia{}}
	for _, c := range items {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.items[c.ID] = c
	}
	return m
}

func (m *mockContentRepository) List(ctx context.Context, f data.ContentFilter, p pagination.Params) ([]*data.ContentMedia, int64, error) {
	m.lastFilter = f
	out := []*data.ContentMedia{}
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *mockContentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.ContentMedia, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *c
	cp.Episodes = append([]data.Episode(nil), c.Episodes...)
	return &cp, nil
}

func (m *mockContentRepository) Create(ctx context.Context, c *data.ContentMedia) error {
	c.ID = primitive.NewObjectID()
	m.items[c.ID] = c
	return nil
}

func (m *mockContentRepository) Update(ctx context.Context, c *data.ContentMedia) error {
	m.items[c.ID] = c
	return nil
}

func (m *mockContentRepository) SetThumbnail(ctx context.Context, id primitive.ObjectID, url string) error {
	return nil
}

func (m *mockContentRepository) SetEpisodes(ctx context.Context, id primitive.ObjectID, episodes []data.Episode) error {
	m.setEpisodes++
	m.lastEpisodes = episodes
	if c, ok := m.items[id]; ok {
		c.Episodes = episodes
	}
	return nil
}

func (m *mockContentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.items, id)
	return nil
}

// mockCompanyIndex serves companies by id and by normalized name.
type mockCompanyIndex struct {
	companies map[primitive.ObjectID]*data.Company
	indexErr  error
}

var _ CompanyIndex = (*mockCompanyIndex)(nil)

func newMockCompanyIndex(companies ...*data.Company) *mockCompanyIndex {
	m := &mockCompanyIndex{companies: map[primitive.ObjectID]*data.Company{}}
	for _, c := range companies {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.companies[c.ID] = c
	}
	return m
}

func (m *mockCompanyIndex) GetByID(ctx context.Context, id primitive.ObjectID) (*data.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return c, nil
}

func (m *mockCompanyIndex) NameIndex(ctx context.Context) (map[string]primitive.ObjectID, error) {
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	out := map[string]primitive.ObjectID{}
	for id, c := range m.companies {
		out[data.NormalizeName(c.Name)] = id
	}
	return out, nil
}

// mockCustomFieldRepository keeps definitions in memory.
type mockCustomFieldRepository struct {
	defs []*data.CustomFieldDefinition
}

var _ CustomFieldRepository = (*mockCustomFieldRepository)(nil)

func (m *mockCustomFieldRepository) List(ctx context.Context, entity string, p pagination.Params) ([]*data.CustomFieldDefinition, int64, error) {
	return m.defs, int64(len(m.defs)), nil
}

func (m *mockCustomFieldRepository) ActiveFor(ctx context.Context, entity string) ([]*data.CustomFieldDefinition, error) {
	out := []*data.CustomFieldDefinition{}
	for _, d := range m.defs {
		if d.Entity == entity && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockCustomFieldRepository) FindByKey(ctx context.Context, entity, key string) (*data.CustomFieldDefinition, error) {
	for _, d := range m.defs {
		if d.Entity == entity && d.Key == key {
			return d, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockCustomFieldRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.CustomFieldDefinition, error) {
	for _, d := range m.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockCustomFieldRepository) Create(ctx context.Context, d *data.CustomFieldDefinition) error {
	d.ID = primitive.NewObjectID()
	m.defs = append(m.defs, d)
	return nil
}

func (m *mockCustomFieldRepository) Update(ctx context.Context, d *data.CustomFieldDefinition) error {
	return nil
}

func (m *mockCustomFieldRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

// mockHistoryRepository keeps run entries in memory. It is shared with the runner goroutine.
type mockHistoryRepository struct {
	mu         sync.Mutex
	entries    map[primitive.ObjectID]data.MigrationHistoryEntry
	saves      int
	createErr  error
	createHook func() // runs before Create takes the lock
}

var _ HistoryRepository = (*mockHistoryRepository)(nil)

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{entries: map[primitive.ObjectID]data.MigrationHistoryEntry{}}
}

func (m *mockHistoryRepository) Create(ctx context.Context, e *data.MigrationHistoryEntry) error {
	if m.createHook != nil {
		m.createHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	e.ID = primitive.NewObjectID()
	m.entries[e.ID] = *e
	return nil
}

func (m *mockHistoryRepository) Save(ctx context.Context, e *data.MigrationHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.entries[e.ID] = *e
	return nil
}

func (m *mockHistoryRepository) List(ctx context.Context, migration string, p pagination.Params) ([]*data.MigrationHistoryEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*data.MigrationHistoryEntry{}
	for _, e := range m.entries {
		if migration == "" || e.Migration == migration {
			e := e
			out = append(out, &e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockHistoryRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for _, e := range m.entries {
		out[e.Status]++
	}
	return out, nil
}

func (m *mockHistoryRepository) get(id primitive.ObjectID) data.MigrationHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id]
}

// mockBackfillRepository serves a fixed set of legacy documents.
type mockBackfillRepository struct {
	mu       sync.Mutex
	docs     []data.LegacyDocument
	assigned map[primitive.ObjectID]primitive.ObjectID
	failOn   primitive.ObjectID
	block    chan struct{}
}

var _ BackfillRepository = (*mockBackfillRepository)(nil)

func (m *mockBackfillRepository) PendingCompanyID(ctx context.Context, collection string) ([]data.LegacyDocument, error) {
	return m.docs, nil
}

func (m *mockBackfillRepository) SetCompanyID(ctx context.Context, collection string, id, companyID primitive.ObjectID) (bool, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.failOn {
		return false, errors.New("write refused")
	}
	if m.assigned == nil {
		m.assigned = map[primitive.ObjectID]primitive.ObjectID{}
	}
	if _, done := m.assigned[id]; done {
		return false, nil
	}
	m.assigned[id] = companyID
	return true, nil
}

// fakeInspector reports fixed collections, optionally failing one of them.
type fakeInspector struct {
	mu       sync.Mutex
	names    []string
	counts   map[string]int64
	failing  map[string]error
	inspects int
}

var _ Inspector = (*fakeInspector)(nil)

func (f *fakeInspector) Names(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...), nil
}

func (f *fakeInspector) Inspect(ctx context.Context, name string, sampleSize int) (*data.CollectionSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspects++
	if err := f.failing[name]; err != nil {
		return nil, err
	}
	return &data.CollectionSample{
		Name:        name,
		Count:       f.counts[name],
		SampledDocs: int(f.counts[name]),
		Fields:      []data.FieldInfo{{Name: "_id", Types: []string{"objectId"}, Occurrences: int(f.counts[name])}},
	}, nil
}

// memCache is a map-backed MetadataCache.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	lastTTL time.Duration
}

var _ MetadataCache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.lastTTL = ttl
	c.data[key] = value
	return nil
}

// mockAdminUserRepository keeps accounts in memory.
type mockAdminUserRepository struct {
	users       map[primitive.ObjectID]*data.AdminUser
	touched     int
	lastHash    string
	errToReturn error
}

var _ AdminUserRepository = (*mockAdminUserRepository)(nil)

func newMockAdminUserRepository(users ...*data.AdminUser) *mockAdminUserRepository {
	m := &mockAdminUserRepository{users: map[primitive.ObjectID]*data.AdminUser{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAdminUserRepository) FindByEmail(ctx context.Context, email string) (*data.AdminUser, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockAdminUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.AdminUser, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return u, nil
}

func (m *mockAdminUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockAdminUserRepository) Create(ctx context.Context, u *data.AdminUser) error {
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = u
	return nil
}

func (m *mockAdminUserRepository) UpdateProfile(ctx context.Context, u *data.AdminUser) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockAdminUserRepository) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	m.lastHash = hash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (m *mockAdminUserRepository) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.touched++
	return nil
}

// mockFileBucket keeps saved files in memory.
type mockFileBucket struct {
	saved       map[string][]byte
	names       map[string]string
	types       map[string]string
	errToReturn error
}

var _ FileBucket = (*mockFileBucket)(nil)

func newMockFileBucket() *mockFileBucket {
	return &mockFileBucket{saved: map[string][]byte{}, names: map[string]string{}, types: map[string]string{}}
}

func (m *mockFileBucket) Save(name, contentType, uploadedBy string, r io.Reader) (string, error) {
	if m.errToReturn != nil {
		return "", m.errToReturn
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	m.saved[id] = b
	m.names[id] = name
	m.types[id] = contentType
	return id, nil
}

func (m *mockFileBucket) Open(id string) (io.ReadCloser, *data.StoredFile, error) {
	return nil, nil, data.ErrNotFound
}

func (m *mockFileBucket) Delete(id string) error {
	delete(m.saved, id)
	return nil
}
