// Package cart implements the ephemeral shopping cart. Carts live only in
// server memory for the duration of a shopping session, keyed by an opaque
// session id handed to the client on first mutation. A cart that sits idle
// past its TTL is discarded, which mirrors the original browser-memory cart
// being lost on reload. Nothing here touches the database.
package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a single cart line: one subscription package and a quantity.
// Price is the snapshot taken when the item was added.
type Item struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Store holds all live cart sessions. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time // swapped in tests
}

type session struct {
	items    []Item
	lastSeen time.Time
}

// NewStore returns a Store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add puts one unit of the titled package into the session's cart. If a
// line with the same title already exists its quantity is incremented by
// one; otherwise a new line with a fresh id and quantity 1 is appended.
// When sessionID is empty or expired a new session is created; the
// (possibly new) session id is returned so the client can carry it forward.
func (s *Store) Add(sessionID, title string, price decimal.Decimal) (string, Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, sid := s.touch(sessionID)
	for i := range sess.items {
		if sess.items[i].Title == title {
			sess.items[i].Quantity++
			return sid, sess.items[i]
		}
	}
	it := Item{ID: uuid.NewString(), Title: title, Price: price, Quantity: 1}
	sess.items = append(sess.items, it)
	return sid, it
}

// UpdateQuantity sets the quantity of the identified line. A quantity of
// zero or less removes the line. Returns false when the line is unknown.
func (s *Store) UpdateQuantity(sessionID, itemID string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.lookup(sessionID)
	if sess == nil {
		return false
	}
	for i := range sess.items {
		if sess.items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			sess.items = append(sess.items[:i], sess.items[i+1:]...)
		} else {
			sess.items[i].Quantity = quantity
		}
		return true
	}
	return false
}

// Remove deletes the identified line. Returns false when unknown.
func (s *Store) Remove(sessionID, itemID string) bool {
	return s.UpdateQuantity(sessionID, itemID, 0)
}

// Clear empties the session's cart. Called after a successful checkout.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Items returns a copy of the session's lines. An unknown or expired
// session yields an empty cart.
func (s *Store) Items(sessionID string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.lookup(sessionID)
	if sess == nil {
		return nil
	}
	out := make([]Item, len(sess.items))
	copy(out, sess.items)
	return out
}

// Total returns Σ price × quantity over the session's lines.
func (s *Store) Total(sessionID string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items(sessionID) {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// touch returns the live session for sessionID, creating a new one (with a
// new id) when the id is empty, unknown or expired. Caller holds s.mu.
func (s *Store) touch(sessionID string) (*session, string) {
	if sess := s.lookup(sessionID); sess != nil {
		return sess, sessionID
	}
	sid := uuid.NewString()
	sess := &session{lastSeen: s.now()}
	s.sessions[sid] = sess
	return sess, sid
}

// lookup returns the session if it exists and has not expired, refreshing
// its idle timer. Expired sessions are dropped eagerly. Caller holds s.mu.
func (s *Store) lookup(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, sessionID)
		return nil
	}
	sess.lastSeen = s.now()
	return sess
}
