package draft

import (
	"slices"
	"sync"
	"time"
)

// Medication is a drug from the formulary.
type Medication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Frequency is a dosing frequency (e.g. "Twice a day"), with the number of administrations per day.
type Frequency struct {
	Coding
	TimesPerDay float64 `json:"timesPerDay"`
}

// MedicationDurationUnit is a unit of a medication course duration, expressed as UCUM time unit.
type MedicationDurationUnit struct {
	Coding
	// DaysMultiplier converts one unit into days, for the dispense quantity calculation.
	DaysMultiplier float64 `json:"daysMultiplier"`
}

var (
	DurationUnitDays   = MedicationDurationUnit{Coding: Coding{Code: "d", Display: "Day(s)"}, DaysMultiplier: 1}
	DurationUnitWeeks  = MedicationDurationUnit{Coding: Coding{Code: "wk", Display: "Week(s)"}, DaysMultiplier: 7}
	DurationUnitMonths = MedicationDurationUnit{Coding: Coding{Code: "mo", Display: "Month(s)"}, DaysMultiplier: 30}
)

type MedicationEntry struct {
	ID               string                  `json:"id"`
	Medication       Medication              `json:"medication"`
	Display          string                  `json:"display"`
	Dosage           float64                 `json:"dosage"`
	DosageUnit       *Coding                 `json:"dosageUnit,omitempty"`
	Frequency        *Frequency              `json:"frequency,omitempty"`
	Route            *Coding                 `json:"route,omitempty"`
	Duration         int                     `json:"duration"`
	DurationUnit     *MedicationDurationUnit `json:"durationUnit,omitempty"`
	Instruction      *Coding                 `json:"instruction,omitempty"`
	IsSTAT           bool                    `json:"isSTAT"`
	IsPRN            bool                    `json:"isPRN"`
	DispenseQuantity float64                 `json:"dispenseQuantity"`
	DispenseUnit     *Coding                 `json:"dispenseUnit,omitempty"`
	StartDate        time.Time               `json:"startDate"`
	Note             string                  `json:"note,omitempty"`
	Errors           FieldErrors             `json:"errors,omitempty"`
	HasBeenValidated bool                    `json:"hasBeenValidated"`
}

func medicationID(entry MedicationEntry) string {
	return entry.ID
}

// recalculateDispenseQuantity derives the quantity to dispense from the dosing: a STAT dose is dispensed once,
// otherwise dosage x frequency x course length in days.
func (e *MedicationEntry) recalculateDispenseQuantity() {
	if e.IsSTAT {
		e.DispenseQuantity = e.Dosage
		return
	}
	if e.Frequency == nil || e.DurationUnit == nil {
		e.DispenseQuantity = 0
		return
	}
	e.DispenseQuantity = e.Dosage * e.Frequency.TimesPerDay * float64(e.Duration) * e.DurationUnit.DaysMultiplier
}

// MedicationStore holds the medications prescribed during a consultation.
type MedicationStore struct {
	mux     sync.RWMutex
	entries []MedicationEntry
	now     func() time.Time
}

func NewMedicationStore() *MedicationStore {
	return &MedicationStore{now: time.Now}
}

// Add adds the medication, starting today. Adding a medication that is already present has no effect.
func (s *MedicationStore) Add(medication Medication, display string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if indexOf(s.entries, medication.ID, medicationID) >= 0 {
		return
	}
	s.entries = append(slices.Clone(s.entries), MedicationEntry{
		ID:         medication.ID,
		Medication: medication,
		Display:    display,
		StartDate:  s.now(),
	})
}

func (s *MedicationStore) Remove(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = removed(s.entries, id, medicationID)
}

func (s *MedicationStore) UpdateDosage(id string, dosage float64) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Dosage = dosage
		entry.recalculateDispenseQuantity()
	})
}

func (s *MedicationStore) UpdateDosageUnit(id string, unit *Coding) {
	s.update(id, func(entry *MedicationEntry) {
		entry.DosageUnit = unit
	})
}

func (s *MedicationStore) UpdateFrequency(id string, frequency *Frequency) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Frequency = frequency
		entry.recalculateDispenseQuantity()
	})
}

func (s *MedicationStore) UpdateRoute(id string, route *Coding) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Route = route
	})
}

func (s *MedicationStore) UpdateDuration(id string, duration int) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Duration = duration
		entry.recalculateDispenseQuantity()
	})
}

func (s *MedicationStore) UpdateDurationUnit(id string, unit *MedicationDurationUnit) {
	s.update(id, func(entry *MedicationEntry) {
		entry.DurationUnit = unit
		entry.recalculateDispenseQuantity()
	})
}

func (s *MedicationStore) UpdateInstruction(id string, instruction *Coding) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Instruction = instruction
	})
}

func (s *MedicationStore) UpdateIsPRN(id string, isPRN bool) {
	s.update(id, func(entry *MedicationEntry) {
		entry.IsPRN = isPRN
	})
}

// UpdateIsSTAT marks the medication as a single immediate dose. A STAT dose has no frequency or course duration.
func (s *MedicationStore) UpdateIsSTAT(id string, isSTAT bool) {
	s.update(id, func(entry *MedicationEntry) {
		entry.IsSTAT = isSTAT
		if isSTAT {
			entry.Frequency = nil
			entry.Duration = 0
			entry.DurationUnit = nil
		}
		entry.recalculateDispenseQuantity()
	})
}

// UpdateDispenseQuantity overrides the calculated dispense quantity.
func (s *MedicationStore) UpdateDispenseQuantity(id string, quantity float64) {
	s.update(id, func(entry *MedicationEntry) {
		entry.DispenseQuantity = quantity
	})
}

func (s *MedicationStore) UpdateDispenseUnit(id string, unit *Coding) {
	s.update(id, func(entry *MedicationEntry) {
		entry.DispenseUnit = unit
	})
}

func (s *MedicationStore) UpdateStartDate(id string, startDate time.Time) {
	s.update(id, func(entry *MedicationEntry) {
		entry.StartDate = startDate
	})
}

func (s *MedicationStore) UpdateNote(id string, note string) {
	s.update(id, func(entry *MedicationEntry) {
		entry.Note = note
	})
}

func (s *MedicationStore) update(id string, fn func(entry *MedicationEntry)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = updated(s.entries, id, medicationID, fn)
}

// ValidateAll marks the field errors of every medication and reports whether all of them are valid.
// Dosage, dosage unit and route are always required; frequency and course duration unless the dose is STAT.
func (s *MedicationStore) ValidateAll() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	valid := true
	result := make([]MedicationEntry, len(s.entries))
	for i, entry := range s.entries {
		errs := FieldErrors{}
		if entry.Dosage <= 0 {
			errs["dosage"] = ErrInputValueRequired
		}
		if !entry.DosageUnit.hasCode() {
			errs["dosageUnit"] = ErrDropdownValueRequired
		}
		if !entry.Route.hasCode() {
			errs["route"] = ErrDropdownValueRequired
		}
		if !entry.IsSTAT {
			if entry.Frequency == nil || !entry.Frequency.hasCode() {
				errs["frequency"] = ErrDropdownValueRequired
			}
			if entry.Duration <= 0 {
				errs["duration"] = ErrInputValueRequired
			}
			if entry.DurationUnit == nil || !entry.DurationUnit.hasCode() {
				errs["durationUnit"] = ErrDropdownValueRequired
			}
		}
		entry.Errors = nil
		if len(errs) > 0 {
			entry.Errors = errs
			valid = false
		}
		entry.HasBeenValidated = true
		result[i] = entry
	}
	s.entries = result
	return valid
}

// Entries returns the medications in the order they were added.
func (s *MedicationStore) Entries() []MedicationEntry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return slices.Clone(s.entries)
}

func (s *MedicationStore) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.entries = nil
}
