// Package server implements the server-side components: System (protocol
// handshake), User (identification and direct messages), and Channel (join,
// leave, messaging, ops, kicks, and bans). All three share one UserTable per
// listening server, since uniqueness and lookups span every connection.
package server

import (
	"sync"
	"sync/atomic"

	"relaychat/internal/dispatch"
)

// UserRecord is the server's view of one connected peer (spec §3's "User
// component state" rendered as a struct instead of loose session fields, the
// way rustyguts-bken's server/client.go tracks a connected client). It is
// installed on the owning Session's UserRef by the User component's
// OnConnect, and read from there by the Channel component so the two never
// import each other.
type UserRecord struct {
	ID      uint32
	Session *dispatch.Session

	mu         sync.Mutex
	enabled    bool
	identified bool
	username   string
	hostname   string
}

func (r *UserRecord) setEnabled(v bool) {
	r.mu.Lock()
	r.enabled = v
	r.mu.Unlock()
}

func (r *UserRecord) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *UserRecord) Identified() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identified
}

func (r *UserRecord) Username() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.username
}

func (r *UserRecord) Hostname() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostname
}

func (r *UserRecord) identify(username, hashedHostname string) {
	r.mu.Lock()
	r.identified = true
	r.username = username
	r.hostname = hashedHostname
	r.mu.Unlock()
}

// UserTable is the shared registry of every connected user record, keyed by
// a monotonic connection id so it survives a peer re-identifying itself.
// One instance is shared across every Session a server accepts.
type UserTable struct {
	mu     sync.RWMutex
	byID   map[uint32]*UserRecord
	nextID atomic.Uint32
}

func NewUserTable() *UserTable {
	return &UserTable{byID: make(map[uint32]*UserRecord)}
}

// Add installs a fresh, not-yet-identified record for a newly connected
// session and returns it.
func (t *UserTable) Add(s *dispatch.Session, hostname string) *UserRecord {
	rec := &UserRecord{
		ID:       t.nextID.Add(1),
		Session:  s,
		hostname: hostname,
	}
	t.mu.Lock()
	t.byID[rec.ID] = rec
	t.mu.Unlock()
	return rec
}

// Remove drops a record, e.g. on disconnect.
func (t *UserTable) Remove(id uint32) {
	t.mu.Lock()
	delete(t.byID, id)
	t.mu.Unlock()
}

// FindIdentified returns the identified record with the given username, if
// any such record exists and has completed identification.
func (t *UserTable) FindIdentified(username string) (*UserRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, rec := range t.byID {
		if rec.Identified() && rec.Username() == username {
			return rec, true
		}
	}
	return nil, false
}

// UsernameTaken reports whether an identified user already holds username,
// case-sensitively (spec §4.6 treats usernames as opaque byte strings).
func (t *UserTable) UsernameTaken(username string) bool {
	_, ok := t.FindIdentified(username)
	return ok
}

// Snapshot returns every currently registered record, identified or not.
func (t *UserTable) Snapshot() []*UserRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*UserRecord, 0, len(t.byID))
	for _, rec := range t.byID {
		out = append(out, rec)
	}
	return out
}

func recordFrom(s *dispatch.Session) *UserRecord {
	rec, _ := s.UserRef.(*UserRecord)
	return rec
}
