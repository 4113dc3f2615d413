package model

import "time"

// ContactMessage is a submission of the contact form.
type ContactMessage struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Subject   string    `json:"subject,omitempty"`
    Message   string    `json:"message"`
    CreatedAt time.Time `json:"created_at"`
}

// ServiceInquiry is a question sent from a service detail page.
type ServiceInquiry struct {
    ID        uint64    `json:"id"`
    ServiceID uint64    `json:"service_id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Message   string    `json:"message"`
    CreatedAt time.Time `json:"created_at"`
}

type BlogPost struct {
    ID          uint64     `json:"id"`
    Slug        string     `json:"slug"`
    Title       string     `json:"title"`
    Excerpt     string     `json:"excerpt"`
    Body        string     `json:"body"`
    IsPublished bool       `json:"is_published"`
    PublishedAt *time.Time `json:"published_at,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}

type Career struct {
    ID             uint64    `json:"id"`
    Title          string    `json:"title"`
    Department     string    `json:"department"`
    Location       string    `json:"location"`
    EmploymentType string    `json:"employment_type"`
    Description    string    `json:"description"`
    IsOpen         bool      `json:"is_open"`
    CreatedAt      time.Time `json:"created_at"`
    UpdatedAt      time.Time `json:"updated_at"`
}

// Setting is one key/value row of `site_settings`.
type Setting struct {
    Key       string    `json:"key"`
    Value     string    `json:"value"`
    UpdatedAt time.Time `json:"updated_at"`
}
