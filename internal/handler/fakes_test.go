package handler

import (
    "context"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/repository"
    "github.com/iliyamo/digital-services-site/internal/utils"
)

type fakeServices struct {
    mu   sync.Mutex
    rows map[uint64]*model.Service
    next uint64
}

func newFakeServices(list ...model.Service) *fakeServices {
    f := &fakeServices{rows: map[uint64]*model.Service{}}
    for i := range list {
        s := list[i]
        f.rows[s.ID] = &s
        if s.ID > f.next {
            f.next = s.ID
        }
    }
    return f
}

func (f *fakeServices) List(_ context.Context, category string, activeOnly bool) ([]model.Service, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Service{}
    for _, s := range f.rows {
        if (category == "" || s.Category == category) && (!activeOnly || s.IsActive) {
            out = append(out, *s)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (f *fakeServices) GetByID(_ context.Context, id uint64) (*model.Service, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if s, ok := f.rows[id]; ok {
        cp := *s
        return &cp, nil
    }
    return nil, repository.ErrNotFound
}

func (f *fakeServices) GetBySlug(_ context.Context, slug string) (*model.Service, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, s := range f.rows {
        if s.Slug == slug {
            cp := *s
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (f *fakeServices) Create(_ context.Context, s *model.Service) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, row := range f.rows {
        if row.Slug == s.Slug {
            return repository.ErrConflict
        }
    }
    f.next++
    s.ID = f.next
    cp := *s
    f.rows[s.ID] = &cp
    return nil
}

func (f *fakeServices) Update(_ context.Context, s *model.Service) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rows[s.ID]; !ok {
        return repository.ErrNotFound
    }
    cp := *s
    f.rows[s.ID] = &cp
    return nil
}

func (f *fakeServices) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rows[id]; !ok {
        return repository.ErrNotFound
    }
    delete(f.rows, id)
    return nil
}

type fakeBookings struct {
    mu       sync.Mutex
    rows     map[uint64]*model.Booking
    payments []model.Payment
    next     uint64
}

func newFakeBookings(list ...model.Booking) *fakeBookings {
    f := &fakeBookings{rows: map[uint64]*model.Booking{}}
    for i := range list {
        b := list[i]
        f.rows[b.ID] = &b
        if b.ID > f.next {
            f.next = b.ID
        }
    }
    return f
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.next++
    b.ID = f.next
    b.TicketNumber = fmt.Sprintf("TKT-%08d", b.ID)
    b.Status = model.BookingPending
    cp := *b
    f.rows[b.ID] = &cp
    return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if b, ok := f.rows[id]; ok {
        cp := *b
        return &cp, nil
    }
    return nil, repository.ErrNotFound
}

func (f *fakeBookings) GetByTicket(_ context.Context, ticket string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, b := range f.rows {
        if b.TicketNumber == ticket {
            cp := *b
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (f *fakeBookings) List(_ context.Context, status string, limit int) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.rows {
        if status == "" || b.Status == status {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uint64, status string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    if !model.CanTransition(b.Status, status) {
        return nil, repository.ErrInvalidTransition
    }
    b.Status = status
    cp := *b
    return &cp, nil
}

func (f *fakeBookings) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rows[id]; !ok {
        return repository.ErrNotFound
    }
    delete(f.rows, id)
    return nil
}

func (f *fakeBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := map[string]int64{}
    for _, b := range f.rows {
        out[b.Status]++
    }
    return out, nil
}

func (f *fakeBookings) CreatePayment(_ context.Context, p *model.Payment) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    p.ID = uint64(len(f.payments) + 1)
    p.Status = model.PaymentPending
    f.payments = append(f.payments, *p)
    return nil
}

type fakeMessages struct {
    mu        sync.Mutex
    contacts  []model.ContactMessage
    inquiries []model.ServiceInquiry
}

func (f *fakeMessages) CreateContact(_ context.Context, m *model.ContactMessage) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    m.ID = uint64(len(f.contacts) + 1)
    f.contacts = append(f.contacts, *m)
    return nil
}

func (f *fakeMessages) CreateInquiry(_ context.Context, m *model.ServiceInquiry) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if m.ServiceID > 100 {
        return repository.ErrNotFound
    }
    m.ID = uint64(len(f.inquiries) + 1)
    f.inquiries = append(f.inquiries, *m)
    return nil
}

func (f *fakeMessages) ListContacts(_ context.Context, limit int) ([]model.ContactMessage, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]model.ContactMessage{}, f.contacts...), nil
}

func (f *fakeMessages) ListInquiries(_ context.Context, limit int) ([]model.ServiceInquiry, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]model.ServiceInquiry{}, f.inquiries...), nil
}

type fakeContent struct {
    mu       sync.Mutex
    posts    map[uint64]*model.BlogPost
    careers  map[uint64]*model.Career
    settings map[string]string
}

func newFakeContent() *fakeContent {
    return &fakeContent{
        posts:    map[uint64]*model.BlogPost{},
        careers:  map[uint64]*model.Career{},
        settings: map[string]string{},
    }
}

func (f *fakeContent) ListPosts(_ context.Context, publishedOnly bool, limit int) ([]model.BlogPost, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.BlogPost{}
    for _, p := range f.posts {
        if !publishedOnly || p.IsPublished {
            out = append(out, *p)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

func (f *fakeContent) GetPostBySlug(_ context.Context, slug string) (*model.BlogPost, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, p := range f.posts {
        if p.Slug == slug {
            cp := *p
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (f *fakeContent) SavePost(_ context.Context, p *model.BlogPost) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if p.ID == 0 {
        p.ID = uint64(len(f.posts) + 1)
    } else if _, ok := f.posts[p.ID]; !ok {
        return repository.ErrNotFound
    }
    if p.IsPublished && p.PublishedAt == nil {
        now := time.Now().UTC()
        p.PublishedAt = &now
    }
    cp := *p
    f.posts[p.ID] = &cp
    return nil
}

func (f *fakeContent) DeletePost(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.posts[id]; !ok {
        return repository.ErrNotFound
    }
    delete(f.posts, id)
    return nil
}

func (f *fakeContent) ListCareers(_ context.Context, openOnly bool) ([]model.Career, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Career{}
    for _, c := range f.careers {
        if !openOnly || c.IsOpen {
            out = append(out, *c)
        }
    }
    return out, nil
}

func (f *fakeContent) SaveCareer(_ context.Context, c *model.Career) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if c.ID == 0 {
        c.ID = uint64(len(f.careers) + 1)
    } else if _, ok := f.careers[c.ID]; !ok {
        return repository.ErrNotFound
    }
    cp := *c
    f.careers[c.ID] = &cp
    return nil
}

func (f *fakeContent) DeleteCareer(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.careers[id]; !ok {
        return repository.ErrNotFound
    }
    delete(f.careers, id)
    return nil
}

func (f *fakeContent) Settings(_ context.Context) (map[string]string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make(map[string]string, len(f.settings))
    for k, v := range f.settings {
        out[k] = v
    }
    return out, nil
}

func (f *fakeContent) UpsertSettings(_ context.Context, kv map[string]string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for k, v := range kv {
        f.settings[k] = v
    }
    return nil
}

func (f *fakeContent) DeleteSetting(_ context.Context, key string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.settings[key]; !ok {
        return repository.ErrNotFound
    }
    delete(f.settings, key)
    return nil
}

type fakeAnalytics struct {
    mu       sync.Mutex
    events   []model.AnalyticsEvent
    sessions map[string]model.VisitorSession
}

func (f *fakeAnalytics) Track(_ context.Context, ev *model.AnalyticsEvent, sess model.VisitorSession) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.sessions == nil {
        f.sessions = map[string]model.VisitorSession{}
    }
    cur := f.sessions[sess.SessionID]
    cur.SessionID, cur.UserAgent, cur.IPHash = sess.SessionID, sess.UserAgent, sess.IPHash
    if ev.EventType == model.EventPageView {
        cur.PageViews++
    }
    f.sessions[sess.SessionID] = cur
    ev.ID = uint64(len(f.events) + 1)
    f.events = append(f.events, *ev)
    return nil
}

func (f *fakeAnalytics) Summary(_ context.Context, days, top int) (model.AnalyticsSummary, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return model.AnalyticsSummary{
        TotalEvents:   int64(len(f.events)),
        TotalSessions: int64(len(f.sessions)),
        Daily:         []model.DailyCount{},
        TopPaths:      []model.PathCount{},
    }, nil
}

type fakeUsers struct {
    mu   sync.Mutex
    rows map[uint64]*model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{rows: map[uint64]*model.User{}} }

func (f *fakeUsers) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.rows {
        if u.Email == email {
            return 0, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    id := uint64(len(f.rows) + 1)
    f.rows[id] = &model.User{ID: id, Email: email, PasswordHash: hash, Role: role, IsActive: true}
    return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.rows {
        if u.Email == email {
            return *u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if u, ok := f.rows[id]; ok {
        return *u, nil
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.User{}
    for _, u := range f.rows {
        out = append(out, *u)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uint64, role string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.rows[id]
    if !ok {
        return repository.ErrNotFound
    }
    u.Role = role
    return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uint64, active bool) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.rows[id]
    if !ok {
        return repository.ErrNotFound
    }
    u.IsActive = active
    return nil
}

type fakeToken struct {
    uid     uint64
    revoked bool
}

type fakeTokens struct {
    mu   sync.Mutex
    rows map[string]*fakeToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*fakeToken{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, _ time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.rows[tokenHash] = &fakeToken{uid: userID}
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.rows[tokenHash]
    if !ok || t.revoked {
        return 0, repository.ErrNotFound
    }
    return t.uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, tokenHash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if t, ok := f.rows[tokenHash]; ok {
        t.revoked = true
    }
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, t := range f.rows {
        if t.uid == userID {
            t.revoked = true
        }
    }
    return nil
}

func (f *fakeTokens) active(userID uint64) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, t := range f.rows {
        if t.uid == userID && !t.revoked {
            n++
        }
    }
    return n
}

type fakePublisher struct {
    mu   sync.Mutex
    sent []string
}

func (p *fakePublisher) PublishJSON(_ context.Context, queue string, _ any) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.sent = append(p.sent, queue)
    return nil
}

func (p *fakePublisher) queues() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    return append([]string{}, p.sent...)
}

var (
    _ ServiceStore   = (*fakeServices)(nil)
    _ BookingStore   = (*fakeBookings)(nil)
    _ MessageStore   = (*fakeMessages)(nil)
    _ ContentStore   = (*fakeContent)(nil)
    _ AnalyticsStore = (*fakeAnalytics)(nil)
    _ UserStore      = (*fakeUsers)(nil)
    _ TokenStore     = (*fakeTokens)(nil)
)
