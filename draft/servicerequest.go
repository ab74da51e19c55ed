package draft

import (
	"slices"
	"sync"
)

// Priority of a service request.
type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityStat    Priority = "stat"
)

func (p Priority) Valid() bool {
	return p == PriorityRoutine || p == PriorityStat
}

type ServiceRequestEntry struct {
	ID               string   `json:"id"`
	Display          string   `json:"display"`
	SelectedPriority Priority `json:"selectedPriority"`
	Note             string   `json:"note,omitempty"`
}

func serviceRequestID(entry ServiceRequestEntry) string {
	return entry.ID
}

// CategoryEntries are the service requests of a single category (e.g. "Lab Order").
type CategoryEntries struct {
	Category string                `json:"category"`
	Entries  []ServiceRequestEntry `json:"entries"`
}

// ServiceRequestsByCategory is an ordered category -> service requests dictionary.
// Categories without entries may be present (e.g. when built by hand); consumers skip them.
type ServiceRequestsByCategory []CategoryEntries

// ServiceRequestStore holds the investigations ordered during a consultation, grouped by category.
// A category is present only while it has at least one entry.
type ServiceRequestStore struct {
	mux        sync.RWMutex
	categories []string
	entries    map[string][]ServiceRequestEntry
}

func NewServiceRequestStore() *ServiceRequestStore {
	return &ServiceRequestStore{
		entries: map[string][]ServiceRequestEntry{},
	}
}

// Add adds the concept to the category with routine priority.
// Adding a concept that is already present in the category has no effect.
func (s *ServiceRequestStore) Add(category string, concept Coding) {
	s.mux.Lock()
	defer s.mux.Unlock()
	current, exists := s.entries[category]
	if indexOf(current, concept.Code, serviceRequestID) >= 0 {
		return
	}
	next := s.copyEntries()
	next[category] = append(slices.Clone(current), ServiceRequestEntry{
		ID:               concept.Code,
		Display:          concept.Display,
		SelectedPriority: PriorityRoutine,
	})
	if !exists {
		s.categories = append(slices.Clone(s.categories), category)
	}
	s.entries = next
}

// Remove removes the entry from the category. The category itself is removed when it has no entries left.
func (s *ServiceRequestStore) Remove(category string, id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	current, exists := s.entries[category]
	if !exists || indexOf(current, id, serviceRequestID) < 0 {
		return
	}
	next := s.copyEntries()
	remaining := removed(current, id, serviceRequestID)
	if len(remaining) == 0 {
		delete(next, category)
		s.categories = slices.DeleteFunc(slices.Clone(s.categories), func(c string) bool {
			return c == category
		})
	} else {
		next[category] = remaining
	}
	s.entries = next
}

func (s *ServiceRequestStore) UpdatePriority(category string, id string, priority Priority) {
	s.update(category, id, func(entry *ServiceRequestEntry) {
		entry.SelectedPriority = priority
	})
}

func (s *ServiceRequestStore) UpdateNote(category string, id string, note string) {
	s.update(category, id, func(entry *ServiceRequestEntry) {
		entry.Note = note
	})
}

func (s *ServiceRequestStore) update(category string, id string, fn func(entry *ServiceRequestEntry)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	current, exists := s.entries[category]
	if !exists || indexOf(current, id, serviceRequestID) < 0 {
		return
	}
	next := s.copyEntries()
	next[category] = updated(current, id, serviceRequestID, fn)
	s.entries = next
}

// copyEntries returns a shallow copy of the category dictionary; the entry slices themselves are never modified in place.
func (s *ServiceRequestStore) copyEntries() map[string][]ServiceRequestEntry {
	result := make(map[string][]ServiceRequestEntry, len(s.entries)+1)
	for category, entries := range s.entries {
		result[category] = entries
	}
	return result
}

// ValidateAll reports whether every service request has a known priority.
func (s *ServiceRequestStore) ValidateAll() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	for _, entries := range s.entries {
		for _, entry := range entries {
			if !entry.SelectedPriority.Valid() {
				return false
			}
		}
	}
	return true
}

// HasCategory reports whether the category has entries.
func (s *ServiceRequestStore) HasCategory(category string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, exists := s.entries[category]
	return exists
}

// Categories returns the categories in the order their first entry was added.
func (s *ServiceRequestStore) Categories() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.categories)
}

func (s *ServiceRequestStore) Entries(category string) []ServiceRequestEntry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.entries[category])
}

// Snapshot returns all service requests grouped by category, in category order.
func (s *ServiceRequestStore) Snapshot() ServiceRequestsByCategory {
	s.mux.RLock()
	defer s.mux.RUnlock()
	result := make(ServiceRequestsByCategory, 0, len(s.categories))
	for _, category := range s.categories {
		result = append(result, CategoryEntries{
			Category: category,
			Entries:  slices.Clone(s.entries[category]),
		})
	}
	return result
}

// Reset clears the store, replacing the category dictionary with a new instance.
func (s *ServiceRequestStore) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.categories = nil
	s.entries = map[string][]ServiceRequestEntry{}
}
