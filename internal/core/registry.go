package core

import (
	"slices"
	"strings"
	"sync"
)

// MatchPolicy decides how usernames are compared on lookup and removal.
type MatchPolicy int

const (
	// MatchFold compares usernames case-insensitively.
	MatchFold MatchPolicy = iota
	// MatchExact compares usernames byte for byte.
	MatchExact
)

func (p MatchPolicy) equal(a, b string) bool {
	if p == MatchExact {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// Registry is the set of users currently visible in the channel.
// Entries keep insertion order. All methods are safe for concurrent use and
// hold the lock only for the duration of the call.
type Registry struct {
	mu     sync.Mutex
	users  []User
	match  MatchPolicy
	dedupe bool
}

// NewRegistry constructs an empty registry. With dedupe set, Add replaces an
// existing entry for the same username in place instead of appending.
func NewRegistry(match MatchPolicy, dedupe bool) *Registry {
	return &Registry{match: match, dedupe: dedupe}
}

// ReplaceAll clears the registry and repopulates it in the given order.
func (r *Registry) ReplaceAll(users []User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = r.users[:0]
	if r.dedupe {
		for _, u := range users {
			r.addLocked(u)
		}
		return
	}
	r.users = append(r.users, users...)
}

// Add appends one user.
func (r *Registry) Add(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.addLocked(u)
}

func (r *Registry) addLocked(u User) {
	if r.dedupe {
		if i := r.indexLocked(u.Username); i >= 0 {
			r.users[i] = u
			return
		}
	}
	r.users = append(r.users, u)
}

// RemoveByUsername removes the first matching entry. Returns true if removed.
func (r *Registry) RemoveByUsername(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(name)
	if i < 0 {
		return false
	}
	r.users = slices.Delete(r.users, i, i+1)
	return true
}

// Find returns the first entry matching name under the registry's policy.
func (r *Registry) Find(name string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(name)
	if i < 0 {
		return User{}, false
	}
	return r.users[i], true
}

// Snapshot returns a copy of the entries in insertion order.
func (r *Registry) Snapshot() []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.users)
}

// SnapshotSorted copies the entries under the lock and sorts the copy after
// releasing it.
func (r *Registry) SnapshotSorted(cmp func(a, b User) int) []User {
	users := r.Snapshot()
	slices.SortStableFunc(users, cmp)
	return users
}

// Len returns the number of entries, duplicates included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users)
}

func (r *Registry) indexLocked(name string) int {
	return slices.IndexFunc(r.users, func(u User) bool {
		return r.match.equal(u.Username, name)
	})
}

// ByUsernameDesc orders users by username, highest first.
func ByUsernameDesc(a, b User) int {
	return strings.Compare(b.Username, a.Username)
}
