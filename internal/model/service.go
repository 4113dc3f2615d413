package model

import "time"

// Service categories shown in the public catalog.
const (
    CategorySoftware    = "software"
    CategorySocialMedia = "social_media"
    CategoryDigital     = "digital"
    CategoryInvestment  = "investment"
)

func ValidCategory(c string) bool {
    switch c {
    case CategorySoftware, CategorySocialMedia, CategoryDigital, CategoryInvestment:
        return true
    }
    return false
}

// Service is a catalog entry (`services` table).  ROIPercent is only set
// for investment services and feeds the profit calculator.
type Service struct {
    ID          uint64    `json:"id"`
    Slug        string    `json:"slug"`
    Category    string    `json:"category"`
    Title       string    `json:"title"`
    Summary     string    `json:"summary"`
    Description string    `json:"description"`
    PriceCents  uint32    `json:"price_cents"`
    ROIPercent  *float64  `json:"roi_percent,omitempty"`
    IsActive    bool      `json:"is_active"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}
