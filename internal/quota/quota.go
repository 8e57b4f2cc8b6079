// Package quota enforces the daily chat limit for users without a pro plan.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// DefaultDailyLimit is the number of chats a free user may send per day.
const DefaultDailyLimit = 5

// DefaultTimezone decides when "today" rolls over.
const DefaultTimezone = "Asia/Tokyo"

// Meta is the per-user usage record.
type Meta struct {
	Count int    `json:"dailyChatCount"`
	Date  string `json:"dailyChatCountDate"`
}

// Today returns now's calendar date in loc as YYYY-MM-DD.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(time.DateOnly)
}

// CurrentCount returns the number of chats sent today. A record from another day counts as zero.
func CurrentCount(meta Meta, today string) int {
	if meta.Date != today {
		return 0
	}
	return meta.Count
}

// IsLimitReached reports whether count has used up limit.
func IsLimitReached(count, limit int) bool {
	return count >= limit
}

// NextMeta returns the record after one more chat today.
func NextMeta(meta Meta, today string) Meta {
	return Meta{Count: CurrentCount(meta, today) + 1, Date: today}
}

// Check decides whether a chat may be sent and returns the record to store if so.
// Pro users are never limited and their record is left unchanged.
func Check(isPro bool, meta Meta, today string, limit int) (bool, Meta) {
	if isPro {
		return true, meta
	}
	if IsLimitReached(CurrentCount(meta, today), limit) {
		return false, meta
	}
	return true, NextMeta(meta, today)
}

// ErrNotFound is returned by stores for users without a record.
var ErrNotFound = errors.New("quota record not found")

// Store persists usage records.
type Store interface {
	Get(ctx context.Context, userID string) (Meta, error)
	Put(ctx context.Context, userID string, meta Meta) error
}

// Decision is the outcome of Limiter.Allow.
type Decision struct {
	Allowed   bool
	Remaining int // -1 when unlimited
	Limit     int
}

// Limiter applies Check against a Store.
type Limiter struct {
	store Store
	limit int
	loc   *time.Location
	pro   map[string]bool
	now   func() time.Time

	mu sync.Mutex
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithProUsers marks users that are never limited.
func WithProUsers(ids ...string) Option {
	return func(l *Limiter) {
		for _, id := range ids {
			l.pro[id] = true
		}
	}
}

// NewLimiter returns a Limiter allowing limit chats per day in timezone.
// A negative limit disables limiting.
func NewLimiter(store Store, limit int, timezone string, opts ...Option) (*Limiter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	l := &Limiter{
		store: store,
		limit: limit,
		loc:   loc,
		pro:   map[string]bool{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// IsPro reports whether the user is exempt from the limit.
func (l *Limiter) IsPro(userID string) bool {
	return l.limit < 0 || l.pro[userID]
}

// Allow checks the user's quota and, when allowed, records the chat.
func (l *Limiter) Allow(ctx context.Context, userID string) (Decision, error) {
	if l.IsPro(userID) {
		return Decision{Allowed: true, Remaining: -1, Limit: l.limit}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	meta, err := l.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Decision{}, fmt.Errorf("failed to load quota: %w", err)
	}

	today := Today(l.now(), l.loc)
	allowed, next := Check(false, meta, today, l.limit)
	if !allowed {
		return Decision{Allowed: false, Remaining: 0, Limit: l.limit}, nil
	}
	if err := l.store.Put(ctx, userID, next); err != nil {
		return Decision{}, fmt.Errorf("failed to store quota: %w", err)
	}
	return Decision{Allowed: true, Remaining: l.limit - next.Count, Limit: l.limit}, nil
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Meta{}}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.data[userID]
	if !ok {
		return Meta{}, ErrNotFound
	}
	return meta, nil
}

func (m *MemoryStore) Put(_ context.Context, userID string, meta Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = meta
	return nil
}
