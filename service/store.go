// Package service implements the business-logic collaborators consumed by
// the connection core: authentication, user/profile management, and friend
// management. Each handler satisfies the router.Handler contract — it takes
// a request packet, performs its work (which may block), and returns a
// response packet. Business failures are success=false responses, never
// errors or panics.
package service

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// UserStatus is the presence status a user advertises.
type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusOffline UserStatus = "OFFLINE"
	StatusAway    UserStatus = "AWAY"
	StatusBusy    UserStatus = "BUSY"
)

// validStatus reports whether s is a recognized status enumerant.
func validStatus(s UserStatus) bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	default:
		return false
	}
}

// User is an account record. PasswordHash is a bcrypt hash and never leaves
// the service layer.
type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	FullName      string
	AvatarURL     string
	StatusMessage string
	Status        UserStatus
	Verified      bool
	CreatedAt     time.Time
}

// FriendState is the state of a friendship edge.
type FriendState string

const (
	FriendPending  FriendState = "PENDING"
	FriendAccepted FriendState = "ACCEPTED"
	FriendBlocked  FriendState = "BLOCKED"
)

// Friendship is one edge between two users. RequesterID is the user who
// created the edge: the request sender for PENDING/ACCEPTED, the blocker
// for BLOCKED.
type Friendship struct {
	RequesterID int64
	AddresseeID int64
	State       FriendState
	CreatedAt   time.Time
}

// Store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already registered")
)

// pairKey normalizes two user ids into an order-independent map key, so a
// pair of users has at most one friendship edge.
func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// Store is an in-memory user and friendship store guarded by a single
// RWMutex. It is the seam where a relational DAO would plug in; every
// method is safe for concurrent use and returns copies, never interior
// pointers.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	users       map[int64]*User
	byUsername  map[string]int64
	byEmail     map[string]int64
	friendships map[[2]int64]*Friendship
}

// NewStore returns an empty Store ready for use.
func NewStore() *Store {
	return &Store{
		users:       map[int64]*User{},
		byUsername:  map[string]int64{},
		byEmail:     map[string]int64{},
		friendships: map[[2]int64]*Friendship{},
	}
}

// CreateUser inserts a new user and assigns its ID. Username and email
// uniqueness are enforced case-insensitively.
//
// Parameters:
//   - u: The user to insert; ID and CreatedAt are assigned by the store
//
// Returns:
//   - A copy of the stored user
//   - ErrUsernameTaken or ErrEmailTaken on a uniqueness violation
func (s *Store) CreateUser(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uname := strings.ToLower(u.Username)
	email := strings.ToLower(u.Email)
	if _, ok := s.byUsername[uname]; ok {
		return User{}, ErrUsernameTaken
	}
	if _, ok := s.byEmail[email]; ok {
		return User{}, ErrEmailTaken
	}

	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	if u.Status == "" {
		u.Status = StatusOffline
	}

	stored := u
	s.users[u.ID] = &stored
	s.byUsername[uname] = u.ID
	s.byEmail[email] = u.ID

	return u, nil
}

// GetUser returns a copy of the user with the given id.
func (s *Store) GetUser(id int64) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}

	return *u, true
}

// GetByUsername returns a copy of the user with the given username,
// matched case-insensitively.
func (s *Store) GetByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return User{}, false
	}

	return *s.users[id], true
}

// GetByEmail returns a copy of the user with the given email, matched
// case-insensitively.
func (s *Store) GetByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, false
	}

	return *s.users[id], true
}

// UpdateUser applies mutate to the user with the given id under the store
// lock. If mutate returns an error the user is left unchanged.
//
// Parameters:
//   - id: The user to update
//   - mutate: Function applied to a working copy of the user
//
// Returns:
//   - ErrNotFound if no such user, or the error returned by mutate
func (s *Store) UpdateUser(id int64, mutate func(u *User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}

	working := *u
	if err := mutate(&working); err != nil {
		return err
	}

	// Identity fields are not updatable through this path.
	working.ID = u.ID
	working.Username = u.Username
	working.CreatedAt = u.CreatedAt
	*u = working

	return nil
}

// SearchUsers returns up to limit users whose username or full name
// contains query (case-insensitive), ordered by username. The user with id
// excludeID is omitted so callers do not see themselves in results.
//
// Parameters:
//   - query: Substring to match; empty matches nothing
//   - excludeID: User id to omit from results
//   - limit: Maximum number of results; non-positive means no limit
//
// Returns:
//   - Matching users, password hashes cleared
func (s *Store) SearchUsers(query string, excludeID int64, limit int) []User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.FullName), q) {
			cp := *u
			cp.PasswordHash = ""
			out = append(out, cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// GetFriendship returns a copy of the friendship edge between two users.
func (s *Store) GetFriendship(a, b int64) (Friendship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.friendships[pairKey(a, b)]
	if !ok {
		return Friendship{}, false
	}

	return *f, true
}

// PutFriendship inserts or replaces the friendship edge between the two
// users named by f.
func (s *Store) PutFriendship(f Friendship) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	stored := f
	s.friendships[pairKey(f.RequesterID, f.AddresseeID)] = &stored
}

// DeleteFriendship removes the edge between two users if present.
//
// Returns:
//   - true if an edge existed and was removed
func (s *Store) DeleteFriendship(a, b int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey(a, b)
	_, ok := s.friendships[k]
	delete(s.friendships, k)

	return ok
}

// FriendsOf returns the users that have an ACCEPTED edge with id, ordered
// by username, password hashes cleared.
func (s *Store) FriendsOf(id int64) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []User
	for _, f := range s.friendships {
		if f.State != FriendAccepted {
			continue
		}

		var other int64
		switch id {
		case f.RequesterID:
			other = f.AddresseeID
		case f.AddresseeID:
			other = f.RequesterID
		default:
			continue
		}

		if u, ok := s.users[other]; ok {
			cp := *u
			cp.PasswordHash = ""
			out = append(out, cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// PendingFor returns the PENDING edges addressed to id (incoming friend
// requests), newest first.
func (s *Store) PendingFor(id int64) []Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Friendship
	for _, f := range s.friendships {
		if f.State == FriendPending && f.AddresseeID == id {
			out = append(out, *f)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
