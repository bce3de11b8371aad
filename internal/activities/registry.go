// Package activities holds the in-memory activity registry and the
// signup/unregister rules that guard each roster.
package activities

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps activity names to their records. It is safe for
// concurrent use; one lock guards every roster.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	opts    Options
}

// New builds a registry from a seed set. The seed is copied, so later
// changes to the slice do not leak into the registry.
func New(seed []Activity, opts Options) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*entry, len(seed)),
		opts:    opts,
	}

	for _, a := range seed {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("%w: activity with empty name", ErrInvalidSeed)
		}
		if _, dup := r.entries[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate activity %q", ErrInvalidSeed, a.Name)
		}
		if a.MaxParticipants <= 0 {
			return nil, fmt.Errorf("%w: activity %q must have positive max_participants", ErrInvalidSeed, a.Name)
		}

		e := &entry{
			activity: a.clone(),
			members:  make(map[string]struct{}, len(a.Participants)),
		}
		for _, email := range a.Participants {
			if _, dup := e.members[email]; dup {
				return nil, fmt.Errorf("%w: %s listed twice in %q", ErrInvalidSeed, email, a.Name)
			}
			e.members[email] = struct{}{}
		}
		r.entries[a.Name] = e
	}

	return r, nil
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List() map[string]Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Activity, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.activity.clone()
	}
	return out
}

// Get returns a copy of a single activity.
func (r *Registry) Get(name string) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	return e.activity.clone(), nil
}

// Names returns the activity names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signup adds email to the named activity's roster.
func (r *Registry) Signup(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	if _, exists := e.members[email]; exists {
		return "", fmt.Errorf("%w: %s in %s", ErrAlreadyRegistered, email, name)
	}
	if r.opts.EnforceCapacity && len(e.activity.Participants) >= e.activity.MaxParticipants {
		return "", fmt.Errorf("%w: %s has %d/%d participants", ErrActivityFull, name,
			len(e.activity.Participants), e.activity.MaxParticipants)
	}

	e.members[email] = struct{}{}
	e.activity.Participants = append(e.activity.Participants, email)

	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the named activity's roster.
func (r *Registry) Unregister(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	if _, exists := e.members[email]; !exists {
		return "", fmt.Errorf("%w: %s in %s", ErrNotRegistered, email, name)
	}

	delete(e.members, email)
	participants := e.activity.Participants[:0]
	for _, p := range e.activity.Participants {
		if p != email {
			participants = append(participants, p)
		}
	}
	e.activity.Participants = participants

	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}
