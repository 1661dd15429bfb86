package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/pkg/metrics"
)

type typingEntry struct {
	username string
	lastSeen time.Time
}

// TypingTracker keeps per-room typing state with a TTL. Entries expire
// either lazily when read or via the periodic sweep, whichever comes
// first. The notify callback runs outside the lock.
type TypingTracker struct {
	mu    sync.Mutex
	rooms map[string]map[uuid.UUID]*typingEntry

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	notify func(roomID string, users []TypingUser)
}

func NewTypingTracker(ttl, interval time.Duration, notify func(roomID string, users []TypingUser)) *TypingTracker {
	return &TypingTracker{
		rooms:    make(map[string]map[uuid.UUID]*typingEntry),
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		notify:   notify,
	}
}

// Set records or refreshes a typing entry (isTyping=true) or removes it
// (isTyping=false), returning the room's active typers afterwards.
func (t *TypingTracker) Set(roomID string, userID uuid.UUID, username string, isTyping bool) []TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isTyping {
		entries := t.rooms[roomID]
		if entries == nil {
			entries = make(map[uuid.UUID]*typingEntry)
			t.rooms[roomID] = entries
		}
		if e := entries[userID]; e != nil {
			e.username = username
			e.lastSeen = t.now()
		} else {
			entries[userID] = &typingEntry{username: username, lastSeen: t.now()}
			metrics.GatewayTypingEntriesActive.Inc()
		}
	} else {
		t.removeLocked(roomID, userID)
	}

	return t.activeLocked(roomID)
}

// Clear removes a user's typing entry from one room. changed is false
// when there was nothing to remove.
func (t *TypingTracker) Clear(roomID string, userID uuid.UUID) (changed bool, users []TypingUser) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed = t.removeLocked(roomID, userID)
	return changed, t.activeLocked(roomID)
}

// ClearUser removes a user's typing entries from the given rooms,
// returning the updated typer list for each room that changed.
func (t *TypingTracker) ClearUser(rooms []string, userID uuid.UUID) map[string][]TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()

	updates := make(map[string][]TypingUser)
	for _, roomID := range rooms {
		if t.removeLocked(roomID, userID) {
			updates[roomID] = t.activeLocked(roomID)
		}
	}
	return updates
}

// Active returns the unexpired typers in a room.
func (t *TypingTracker) Active(roomID string) []TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked(roomID)
}

// Run sweeps expired entries every interval until ctx is done.
func (t *TypingTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *TypingTracker) sweep() {
	t.mu.Lock()
	cutoff := t.now().Add(-t.ttl)
	updates := make(map[string][]TypingUser)
	for roomID, entries := range t.rooms {
		evicted := false
		for userID, e := range entries {
			if e.lastSeen.Before(cutoff) {
				delete(entries, userID)
				metrics.GatewayTypingEntriesActive.Dec()
				metrics.GatewayTypingSweepEvictionsTotal.Inc()
				evicted = true
			}
		}
		if !evicted {
			continue
		}
		if len(entries) == 0 {
			delete(t.rooms, roomID)
			updates[roomID] = nil
		} else {
			updates[roomID] = t.activeLocked(roomID)
		}
	}
	t.mu.Unlock()

	if t.notify == nil {
		return
	}
	for roomID, users := range updates {
		t.notify(roomID, users)
	}
}

// removeLocked deletes an entry if present. Caller holds t.mu.
func (t *TypingTracker) removeLocked(roomID string, userID uuid.UUID) bool {
	entries := t.rooms[roomID]
	if entries == nil {
		return false
	}
	if _, exists := entries[userID]; !exists {
		return false
	}
	delete(entries, userID)
	metrics.GatewayTypingEntriesActive.Dec()
	if len(entries) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// activeLocked filters out expired entries at read time so stale state
// is never reported between sweeps. Caller holds t.mu.
func (t *TypingTracker) activeLocked(roomID string) []TypingUser {
	entries := t.rooms[roomID]
	if len(entries) == 0 {
		return nil
	}

	cutoff := t.now().Add(-t.ttl)
	users := make([]TypingUser, 0, len(entries))
	for _, e := range entries {
		if e.lastSeen.Before(cutoff) {
			continue
		}
		users = append(users, TypingUser{Username: e.username, IsTyping: true})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if len(users) == 0 {
		return nil
	}
	return users
}
