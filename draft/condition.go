package draft

import (
	"slices"
	"sync"
)

// Certainty codes of a diagnosis.
const (
	CertaintyConfirmed   = "confirmed"
	CertaintyProvisional = "provisional"
)

type DiagnosisEntry struct {
	ID                string      `json:"id"`
	Display           string      `json:"display"`
	SelectedCertainty *Coding     `json:"selectedCertainty,omitempty"`
	Errors            FieldErrors `json:"errors,omitempty"`
	HasBeenValidated  bool        `json:"hasBeenValidated"`
}

// ConditionEntry is a problem list condition, with its duration counted back from the consultation date.
type ConditionEntry struct {
	ID               string        `json:"id"`
	Display          string        `json:"display"`
	DurationValue    *int          `json:"durationValue"`
	DurationUnit     *DurationUnit `json:"durationUnit"`
	Errors           FieldErrors   `json:"errors,omitempty"`
	HasBeenValidated bool          `json:"hasBeenValidated"`
}

func diagnosisID(entry DiagnosisEntry) string {
	return entry.ID
}

func conditionID(entry ConditionEntry) string {
	return entry.ID
}

// ConditionStore holds the diagnoses and problem list conditions recorded during a consultation.
type ConditionStore struct {
	mux        sync.RWMutex
	diagnoses  []DiagnosisEntry
	conditions []ConditionEntry
}

func NewConditionStore() *ConditionStore {
	return &ConditionStore{}
}

// AddDiagnosis adds the concept as diagnosis. Adding a diagnosis that is already present has no effect.
func (s *ConditionStore) AddDiagnosis(concept Coding) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if indexOf(s.diagnoses, concept.Code, diagnosisID) >= 0 {
		return
	}
	s.diagnoses = append(slices.Clone(s.diagnoses), DiagnosisEntry{
		ID:      concept.Code,
		Display: concept.Display,
	})
}

func (s *ConditionStore) RemoveDiagnosis(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.diagnoses = removed(s.diagnoses, id, diagnosisID)
}

func (s *ConditionStore) UpdateCertainty(id string, certainty *Coding) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.diagnoses = updated(s.diagnoses, id, diagnosisID, func(entry *DiagnosisEntry) {
		entry.SelectedCertainty = certainty
	})
}

// MarkAsCondition moves the diagnosis to the problem list, with an empty duration.
// It has no effect if the diagnosis doesn't exist or is already on the problem list.
func (s *ConditionStore) MarkAsCondition(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	i := indexOf(s.diagnoses, id, diagnosisID)
	if i < 0 || indexOf(s.conditions, id, conditionID) >= 0 {
		return
	}
	diagnosis := s.diagnoses[i]
	s.conditions = append(slices.Clone(s.conditions), ConditionEntry{
		ID:      diagnosis.ID,
		Display: diagnosis.Display,
	})
	s.diagnoses = removed(s.diagnoses, id, diagnosisID)
}

// IsConditionDuplicate reports whether a condition with the given id is already on the problem list.
func (s *ConditionStore) IsConditionDuplicate(id string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return indexOf(s.conditions, id, conditionID) >= 0
}

func (s *ConditionStore) RemoveCondition(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.conditions = removed(s.conditions, id, conditionID)
}

// UpdateConditionDuration sets the duration of the condition. A nil value or unit clears it.
func (s *ConditionStore) UpdateConditionDuration(id string, value *int, unit *DurationUnit) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.conditions = updated(s.conditions, id, conditionID, func(entry *ConditionEntry) {
		entry.DurationValue = value
		entry.DurationUnit = unit
	})
}

// ValidateAllDiagnoses marks the field errors of every diagnosis and reports whether all of them are valid.
// A diagnosis needs a certainty.
func (s *ConditionStore) ValidateAllDiagnoses() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	valid := true
	result := make([]DiagnosisEntry, len(s.diagnoses))
	for i, entry := range s.diagnoses {
		entry.Errors = nil
		if !entry.SelectedCertainty.hasCode() {
			entry.Errors = FieldErrors{"certainty": ErrDropdownValueRequired}
			valid = false
		}
		entry.HasBeenValidated = true
		result[i] = entry
	}
	s.diagnoses = result
	return valid
}

// ValidateAllConditions marks the field errors of every condition and reports whether all of them are valid.
// A condition needs a non-negative duration value and a duration unit.
func (s *ConditionStore) ValidateAllConditions() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	valid := true
	result := make([]ConditionEntry, len(s.conditions))
	for i, entry := range s.conditions {
		errs := FieldErrors{}
		if entry.DurationValue == nil || *entry.DurationValue < 0 {
			errs["durationValue"] = ErrInputValueRequired
		}
		if entry.DurationUnit == nil || !entry.DurationUnit.Valid() {
			errs["durationUnit"] = ErrDropdownValueRequired
		}
		entry.Errors = nil
		if len(errs) > 0 {
			entry.Errors = errs
			valid = false
		}
		entry.HasBeenValidated = true
		result[i] = entry
	}
	s.conditions = result
	return valid
}

// Diagnoses returns the diagnoses in the order they were added.
func (s *ConditionStore) Diagnoses() []DiagnosisEntry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.diagnoses)
}

// Conditions returns the problem list conditions in the order they were added.
func (s *ConditionStore) Conditions() []ConditionEntry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.conditions)
}

func (s *ConditionStore) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.diagnoses = nil
	s.conditions = nil
}
