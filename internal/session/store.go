// Package session keeps uploaded documents and their reports in memory
// for the lifetime of a review session. Nothing is persisted: when a
// session expires or the process exits, the document and its scores are
// gone.
package session

import (
	"log"
	"sync"
	"time"

	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/ports"
)

// Revision records one section rewrite applied during a session, with
// the generation audit so the provenance of edited text stays traceable.
type Revision struct {
	Section   string                `json:"section"`
	Audit     ports.GenerationAudit `json:"audit"`
	AppliedAt time.Time             `json:"applied_at"`
}

// Session is one uploaded document under review together with its most
// recent report. The Document and Report fields are snapshots: callers
// build new values (Document.WithSection, a fresh validation run) and
// store an updated Session rather than mutating these in place.
type Session struct {
	ID        core.SessionID
	Filename  string
	Document  *protocol.Document
	Report    *validation.Report
	History   []Revision
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithRevision returns a copy of the session carrying a new document,
// report and revision entry. The receiver is left untouched so handlers
// holding the old pointer keep a consistent view.
func (s *Session) WithRevision(doc *protocol.Document, report *validation.Report, rev Revision) *Session {
	next := *s
	next.Document = doc
	next.Report = report
	next.History = append(append([]Revision(nil), s.History...), rev)
	return &next
}

// Store is an in-memory session table with TTL-based eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	ttl      time.Duration
}

// NewStore creates a session store. Sessions untouched for longer than
// ttl are eligible for eviction; a non-positive ttl falls back to two
// hours.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: make(map[core.SessionID]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session for a scored document and returns it.
func (st *Store) Create(filename string, doc *protocol.Document, report *validation.Report) *Session {
	now := time.Now()
	sess := &Session{
		ID:        core.NewSessionID(),
		Filename:  filename,
		Document:  doc,
		Report:    report,
		CreatedAt: now,
		UpdatedAt: now,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session with the given ID and refreshes its TTL
// clock. Unknown or expired IDs yield core.ErrSessionNotFound.
func (st *Store) Get(id core.SessionID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	if time.Since(sess.UpdatedAt) > st.ttl {
		delete(st.sessions, id)
		return nil, core.ErrSessionNotFound
	}
	sess.UpdatedAt = time.Now()
	return sess, nil
}

// Put replaces the stored session with an updated snapshot. Sessions
// that were never created (or already evicted) are ignored so a slow
// handler cannot resurrect an expired session.
func (st *Store) Put(sess *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[sess.ID]; !ok {
		return
	}
	sess.UpdatedAt = time.Now()
	st.sessions[sess.ID] = sess
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (st *Store) Delete(id core.SessionID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// CleanupExpired evicts every session idle for longer than the TTL and
// returns the number removed.
func (st *Store) CleanupExpired() int {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor launches a background sweep that calls CleanupExpired
// every interval. The returned function stops the sweep.
func (st *Store) StartJanitor(interval time.Duration) func() {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := st.CleanupExpired(); n > 0 {
					log.Printf("[SessionStore] Evicted %d expired sessions", n)
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
