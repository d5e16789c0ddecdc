package chat

import (
	"sync"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"
)

type cacheKey struct {
	sessionID string
	userID    string
}

// Cache is the in-memory working set of sessions the service reads and
// mutates before persisting. Entries are keyed by (sessionID, userID) so two
// users whose session identifiers collide can never see each other's history.
// Lookups return deep copies; writers mutate their copy and put it back with
// Upsert, holding the per-session lock across the whole read-mutate-persist
// sequence to avoid lost updates between concurrent requests.
type Cache struct {
	mu       sync.RWMutex
	sessions map[cacheKey]models.Session

	lockMu sync.Mutex
	locks  map[cacheKey]*sync.Mutex
}

func NewCache() *Cache {
	return &Cache{
		sessions: make(map[cacheKey]models.Session),
		locks:    make(map[cacheKey]*sync.Mutex),
	}
}

// ReplaceAll discards the entire cache content and installs the given user's
// sessions as the new working set. This is a wholesale replace, not a merge:
// the cache models a single logical working set that self-heals from the
// store on every list-all, so anything cached for other users is dropped.
func (c *Cache) ReplaceAll(userID string, sessions []models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions = make(map[cacheKey]models.Session, len(sessions))
	for _, session := range sessions {
		c.sessions[cacheKey{sessionID: session.ID, userID: userID}] = session.Clone()
	}
}

// Find locates a session by (sessionID, userID).
func (c *Cache) Find(sessionID, userID string) (models.Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, exists := c.sessions[cacheKey{sessionID: sessionID, userID: userID}]
	if !exists {
		return models.Session{}, ErrSessionNotFound
	}

	return session.Clone(), nil
}

// FindByID locates a session by sessionID alone. Reserved for server-side
// operations that have already been validated against ownership, such as the
// rename that follows summarization; user-initiated reads go through Find.
func (c *Cache) FindByID(sessionID string) (models.Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, session := range c.sessions {
		if key.sessionID == sessionID {
			return session.Clone(), nil
		}
	}

	return models.Session{}, ErrSessionNotFound
}

// Upsert installs or replaces a cache entry.
func (c *Cache) Upsert(session models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[cacheKey{sessionID: session.ID, userID: session.UserID}] = session.Clone()
}

// Remove drops a cache entry. Removing an absent entry is a no-op.
func (c *Cache) Remove(sessionID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, cacheKey{sessionID: sessionID, userID: userID})
}

// List returns the cached sessions belonging to a user.
func (c *Cache) List(userID string) []models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sessions := make([]models.Session, 0)
	for key, session := range c.sessions {
		if key.userID == userID {
			sessions = append(sessions, session.Clone())
		}
	}

	return sessions
}

// Len returns the number of cached sessions across all users.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.sessions)
}

// Lock acquires the per-session mutex for (sessionID, userID) and returns the
// unlock function. The mutex outlives cache entries so a delete/reload cycle
// cannot hand two requests different locks for the same session.
func (c *Cache) Lock(sessionID, userID string) func() {
	key := cacheKey{sessionID: sessionID, userID: userID}

	c.lockMu.Lock()
	lock, exists := c.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	c.lockMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
