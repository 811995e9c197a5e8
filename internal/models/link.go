// ===========================================
// Package models - Domain Models
// ===========================================
// Models are the data shapes shared between layers.
// JSON tags define the API contract; business logic
// lives in the service layer, not here.
// ===========================================

package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic classifies a short link by campaign stage.
type Topic string

const (
	TopicAcquisition Topic = "acquisition"
	TopicActivation  Topic = "activation"
	TopicRetention   Topic = "retention"
	TopicOthers      Topic = "others"
)

// Valid reports whether t is one of the known topics.
func (t Topic) Valid() bool {
	switch t {
	case TopicAcquisition, TopicActivation, TopicRetention, TopicOthers:
		return true
	}
	return false
}

// Location is the geolocation derived from a click's IP address.
// Both fields may be empty when the lookup has no match.
type Location struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// ClickEvent is one recorded visit to a short link.
// Events are embedded in their ShortLink and append-only:
// once recorded they are never mutated or removed.
type ClickEvent struct {
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Location  *Location `json:"location,omitempty"`
}

// ShortLink binds an alias to its destination URL, owner, topic,
// and embedded click log. Alias and Owner are immutable after
// creation; Clicks only grows.
type ShortLink struct {
	ID          uuid.UUID    `json:"id"`
	Alias       string       `json:"alias"`
	OriginalURL string       `json:"originalUrl"`
	Topic       Topic        `json:"topic"`
	Owner       string       `json:"owner"`
	Clicks      []ClickEvent `json:"clicks"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ===========================================
// Request / Response DTOs
// ===========================================

// CreateLinkRequest is the payload for POST /api/shorten.
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
	CustomAlias string `json:"customAlias,omitempty" binding:"omitempty,min=3,max=30,alphanum"`
	Topic       Topic  `json:"topic,omitempty"`
}

// CreateLinkResponse is returned after a create call.
// IsExisting is true when the same destination was already
// shortened by the same owner and the existing record was reused.
type CreateLinkResponse struct {
	Alias      string    `json:"alias"`
	ShortURL   string    `json:"shortUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	IsExisting bool      `json:"isExisting"`
}

// LinkSummary is one row of an owner's link listing.
type LinkSummary struct {
	Alias       string    `json:"alias"`
	ShortURL    string    `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	Topic       Topic     `json:"topic"`
	TotalClicks int       `json:"totalClicks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LinkPage is a page of an owner's links with the total count
// across all pages.
type LinkPage struct {
	Items      []LinkSummary `json:"items"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
}

// ClickRequest carries the requester metadata the HTTP layer
// extracts for the Click Recorder.
type ClickRequest struct {
	IPAddress string
	UserAgent string
}

// ===========================================
// Error Response
// ===========================================

// ErrorResponse is the uniform error body across all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Machine-readable error codes for ErrorResponse.Code.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidURL    = "INVALID_URL"
	ErrCodeAliasTaken    = "ALIAS_TAKEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeUnavailable   = "UPSTREAM_UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// ===========================================
// Health Check Response
// ===========================================

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
