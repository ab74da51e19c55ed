package draft

import (
	"slices"
	"sync"
)

// AllergenType is the category of an allergen.
type AllergenType string

const (
	AllergenMedication  AllergenType = "medication"
	AllergenFood        AllergenType = "food"
	AllergenEnvironment AllergenType = "environment"
	AllergenBiologic    AllergenType = "biologic"
)

// AllergenConcept is an allergen selected from the terminology search.
type AllergenConcept struct {
	ID      string       `json:"id"`
	Display string       `json:"display"`
	Type    AllergenType `json:"type"`
}

type AllergyEntry struct {
	ID                string       `json:"id"`
	Display           string       `json:"display"`
	Type              AllergenType `json:"type"`
	SelectedSeverity  *Coding      `json:"selectedSeverity,omitempty"`
	SelectedReactions []Coding     `json:"selectedReactions,omitempty"`
	Note              string       `json:"note,omitempty"`
	Errors            FieldErrors  `json:"errors,omitempty"`
	HasBeenValidated  bool         `json:"hasBeenValidated"`
}

func allergyID(entry AllergyEntry) string {
	return entry.ID
}

// AllergyStore holds the allergies recorded during a consultation.
type AllergyStore struct {
	mux     sync.RWMutex
	entries []AllergyEntry
}

func NewAllergyStore() *AllergyStore {
	return &AllergyStore{}
}

// Add adds the allergen. Adding an allergen that is already present has no effect.
func (s *AllergyStore) Add(allergen AllergenConcept) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if indexOf(s.entries, allergen.ID, allergyID) >= 0 {
		return
	}
	s.entries = append(slices.Clone(s.entries), AllergyEntry{
		ID:      allergen.ID,
		Display: allergen.Display,
		Type:    allergen.Type,
	})
}

func (s *AllergyStore) Remove(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = removed(s.entries, id, allergyID)
}

func (s *AllergyStore) UpdateSeverity(id string, severity *Coding) {
	s.update(id, func(entry *AllergyEntry) {
		entry.SelectedSeverity = severity
	})
}

func (s *AllergyStore) UpdateReactions(id string, reactions []Coding) {
	s.update(id, func(entry *AllergyEntry) {
		entry.SelectedReactions = slices.Clone(reactions)
	})
}

func (s *AllergyStore) UpdateNote(id string, note string) {
	s.update(id, func(entry *AllergyEntry) {
		entry.Note = note
	})
}

func (s *AllergyStore) update(id string, fn func(entry *AllergyEntry)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = updated(s.entries, id, allergyID, fn)
}

// ValidateAll marks the field errors of every allergy and reports whether all of them are valid.
// An allergy needs a severity and at least one coded reaction.
func (s *AllergyStore) ValidateAll() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	valid := true
	result := make([]AllergyEntry, len(s.entries))
	for i, entry := range s.entries {
		errs := FieldErrors{}
		if !entry.SelectedSeverity.hasCode() {
			errs["severity"] = ErrDropdownValueRequired
		}
		if !slices.ContainsFunc(entry.SelectedReactions, func(reaction Coding) bool { return reaction.hasCode() }) {
			errs["reactions"] = ErrDropdownValueRequired
		}
		if len(errs) > 0 {
			valid = false
			entry.Errors = errs
		} else {
			entry.Errors = nil
		}
		entry.HasBeenValidated = true
		result[i] = entry
	}
	s.entries = result
	return valid
}

// Entries returns the allergies in the order they were added.
func (s *AllergyStore) Entries() []AllergyEntry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.entries)
}

func (s *AllergyStore) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = nil
}
