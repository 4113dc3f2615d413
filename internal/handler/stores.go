package handler

import (
    "context"
    "time"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// The interfaces below are satisfied by the MySQL repositories in
// internal/repository.

type ServiceStore interface {
    List(ctx context.Context, category string, activeOnly bool) ([]model.Service, error)
    GetByID(ctx context.Context, id uint64) (*model.Service, error)
    GetBySlug(ctx context.Context, slug string) (*model.Service, error)
    Create(ctx context.Context, s *model.Service) error
    Update(ctx context.Context, s *model.Service) error
    Delete(ctx context.Context, id uint64) error
}

type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    GetByTicket(ctx context.Context, ticket string) (*model.Booking, error)
    List(ctx context.Context, status string, limit int) ([]model.Booking, error)
    UpdateStatus(ctx context.Context, id uint64, status string) (*model.Booking, error)
    Delete(ctx context.Context, id uint64) error
    CountByStatus(ctx context.Context) (map[string]int64, error)
    CreatePayment(ctx context.Context, p *model.Payment) error
}

type MessageStore interface {
    CreateContact(ctx context.Context, m *model.ContactMessage) error
    CreateInquiry(ctx context.Context, m *model.ServiceInquiry) error
    ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error)
    ListInquiries(ctx context.Context, limit int) ([]model.ServiceInquiry, error)
}

type ContentStore interface {
    ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]model.BlogPost, error)
    GetPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
    SavePost(ctx context.Context, p *model.BlogPost) error
    DeletePost(ctx context.Context, id uint64) error
    ListCareers(ctx context.Context, openOnly bool) ([]model.Career, error)
    SaveCareer(ctx context.Context, c *model.Career) error
    DeleteCareer(ctx context.Context, id uint64) error
    Settings(ctx context.Context) (map[string]string, error)
    UpsertSettings(ctx context.Context, kv map[string]string) error
    DeleteSetting(ctx context.Context, key string) error
}

type AnalyticsStore interface {
    Track(ctx context.Context, ev *model.AnalyticsEvent, sess model.VisitorSession) error
    Summary(ctx context.Context, days, top int) (model.AnalyticsSummary, error)
}

type UserStore interface {
    Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    List(ctx context.Context) ([]model.User, error)
    UpdateRole(ctx context.Context, id uint64, role string) error
    SetActive(ctx context.Context, id uint64, active bool) error
}

type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}
