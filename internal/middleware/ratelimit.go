package middleware

import (
	"sync"
	"time"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
	entryTTL        = 5 * time.Minute
	windowDuration  = time.Minute
)

type rateLimitEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

type RateLimiter struct {
	mu          sync.RWMutex
	store       map[string]*rateLimitEntry
	lastCleanup time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		store:       make(map[string]*rateLimitEntry),
		lastCleanup: time.Now(),
	}
}

func (rl *RateLimiter) cleanup() {
	now := time.Now()
	if now.Sub(rl.lastCleanup) < cleanupInterval {
		return
	}
	rl.lastCleanup = now

	for key, entry := range rl.store {
		if now.Sub(entry.lastAccess) > entryTTL {
			delete(rl.store, key)
		}
	}

	if len(rl.store) > maxEntries {
		oldest := make([]string, 0, len(rl.store)/5)
		for key := range rl.store {
			oldest = append(oldest, key)
			if len(oldest) >= len(rl.store)/5 {
				break
			}
		}
		for _, key := range oldest {
			delete(rl.store, key)
		}
	}
}

func (rl *RateLimiter) Check(accountID string, limit int) (allowed bool, remaining int, resetAt int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup()

	now := time.Now()
	windowStart := now.Add(-windowDuration)

	entry, exists := rl.store[accountID]
	if !exists {
		entry = &rateLimitEntry{
			timestamps: make([]time.Time, 0),
			lastAccess: now,
		}
		rl.store[accountID] = entry
	}

	entry.lastAccess = now

	filtered := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	entry.timestamps = filtered

	remaining = limit - len(entry.timestamps)
	if remaining < 0 {
		remaining = 0
	}

	if len(entry.timestamps) > 0 {
		resetAt = entry.timestamps[0].Add(windowDuration).Unix()
	} else {
		resetAt = now.Add(windowDuration).Unix()
	}

	if len(entry.timestamps) >= limit {
		return false, 0, resetAt
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, remaining - 1, resetAt
}
