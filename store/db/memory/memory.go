// Package memory implements the session store driver on a plain in-process
// map. This is the default driver: sessions are ephemeral by design and do
// not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/pedalhaus/pedalhaus/store"
)

// Driver is an in-memory session driver.
type Driver struct {
	mu       sync.RWMutex
	sessions map[string]*store.Session
}

// New creates an empty in-memory driver.
func New() *Driver {
	return &Driver{sessions: make(map[string]*store.Session)}
}

func (d *Driver) CreateSession(_ context.Context, sess *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (d *Driver) GetSession(_ context.Context, id string) (*store.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sess, ok := d.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(sess), nil
}

func (d *Driver) PutSession(_ context.Context, sess *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (d *Driver) DeleteSession(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, id)
	return nil
}

func (d *Driver) ListSessions(_ context.Context) ([]*store.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*store.Session, 0, len(d.sessions))
	for _, sess := range d.sessions {
		out = append(out, cloneSession(sess))
	}
	return out, nil
}

// cloneSession copies a session so callers never share slices with the map.
func cloneSession(sess *store.Session) *store.Session {
	cp := *sess
	cp.History = append([]store.Turn(nil), sess.History...)
	cp.ShownProducts = append([]int(nil), sess.ShownProducts...)
	cp.Preferences.IntendedUse = append([]string(nil), sess.Preferences.IntendedUse...)
	return &cp
}
