package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/shortlink/internal/models"
)

// MemoryLinkRepository is an in-memory LinkRepository for tests
// and dependency-free development. The mutex gives AppendClick the
// same per-alias atomicity the Postgres implementation gets from
// the JSONB update.
type MemoryLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*models.ShortLink
}

// NewMemoryLinkRepository creates an empty in-memory repository.
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{links: make(map[string]*models.ShortLink)}
}

func (m *MemoryLinkRepository) Create(_ context.Context, link *models.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.Alias]; exists {
		return ErrAlreadyExists
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	if link.Clicks == nil {
		link.Clicks = []models.ClickEvent{}
	}

	stored := copyLink(link)
	m.links[link.Alias] = stored
	return nil
}

func (m *MemoryLinkRepository) GetByAlias(_ context.Context, alias string) (*models.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[alias]
	if !exists {
		return nil, ErrNotFound
	}
	return copyLink(link), nil
}

func (m *MemoryLinkRepository) GetByDestination(_ context.Context, owner, originalURL string) (*models.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var match *models.ShortLink
	for _, link := range m.links {
		if link.Owner != owner || link.OriginalURL != originalURL {
			continue
		}
		if match == nil || link.CreatedAt.Before(match.CreatedAt) {
			match = link
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return copyLink(match), nil
}

func (m *MemoryLinkRepository) Exists(_ context.Context, alias string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.links[alias]
	return exists, nil
}

func (m *MemoryLinkRepository) AppendClick(_ context.Context, alias string, click models.ClickEvent) (*models.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[alias]
	if !exists {
		return nil, ErrNotFound
	}

	link.Clicks = append(link.Clicks, click)
	return copyLink(link), nil
}

func (m *MemoryLinkRepository) ListByOwner(_ context.Context, owner string, topic models.Topic, limit, offset int) ([]*models.ShortLink, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := m.ownerLinks(owner, topic)
	total := int64(len(matches))

	if offset >= len(matches) {
		return []*models.ShortLink{}, total, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}

	page := []*models.ShortLink{}
	for _, link := range matches[offset:end] {
		page = append(page, copyLink(link))
	}
	return page, total, nil
}

func (m *MemoryLinkRepository) AllByOwner(_ context.Context, owner string, topic models.Topic) ([]*models.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := []*models.ShortLink{}
	for _, link := range m.ownerLinks(owner, topic) {
		links = append(links, copyLink(link))
	}
	return links, nil
}

// ownerLinks returns the owner's links ordered by created_at
// descending, ties broken by alias for deterministic paging.
// Callers must hold at least the read lock.
func (m *MemoryLinkRepository) ownerLinks(owner string, topic models.Topic) []*models.ShortLink {
	matches := []*models.ShortLink{}
	for _, link := range m.links {
		if link.Owner != owner {
			continue
		}
		if topic != "" && link.Topic != topic {
			continue
		}
		matches = append(matches, link)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return strings.Compare(matches[i].Alias, matches[j].Alias) < 0
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

// copyLink returns a deep copy so callers cannot mutate the
// stored record or its click log.
func copyLink(link *models.ShortLink) *models.ShortLink {
	dup := *link
	dup.Clicks = make([]models.ClickEvent, len(link.Clicks))
	copy(dup.Clicks, link.Clicks)
	return &dup
}
