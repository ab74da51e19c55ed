// Package draft holds the in-progress clinical input of a consultation, one store per domain.
// Stores are plain state containers: they have no I/O and are reset after the consultation is saved.
package draft

import "slices"

// Domain identifies one of the clinical input domains of a consultation.
type Domain string

const (
	DomainAllergies       Domain = "allergies"
	DomainDiagnoses       Domain = "diagnoses"
	DomainConditions      Domain = "conditions"
	DomainServiceRequests Domain = "serviceRequests"
	DomainMedications     Domain = "medications"
	DomainEncounter       Domain = "encounter"
)

// Validation error keys, resolved to text by the UI's translation catalog.
const (
	ErrDropdownValueRequired = "DROPDOWN_VALUE_REQUIRED"
	ErrInputValueRequired    = "INPUT_VALUE_REQUIRED"
)

// Coding is a selected terminology concept or dropdown option.
type Coding struct {
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
	System  string `json:"system,omitempty"`
}

func (c *Coding) hasCode() bool {
	return c != nil && c.Code != ""
}

// FieldErrors maps a field name to its validation error key. A nil or empty map means the entry is valid.
type FieldErrors map[string]string

// DurationUnit is the unit of a condition's duration.
type DurationUnit string

const (
	DurationDays   DurationUnit = "days"
	DurationMonths DurationUnit = "months"
	DurationYears  DurationUnit = "years"
)

func (u DurationUnit) Valid() bool {
	switch u {
	case DurationDays, DurationMonths, DurationYears:
		return true
	}
	return false
}

// indexOf returns the index of the entry with the given id, or -1.
func indexOf[T any](entries []T, id string, key func(T) string) int {
	return slices.IndexFunc(entries, func(entry T) bool {
		return key(entry) == id
	})
}

// updated returns a copy of entries in which the entry with the given id is replaced by the result of fn.
// fn receives a copy of the entry, so other fields keep their value. If no entry has the id, entries is returned as-is.
func updated[T any](entries []T, id string, key func(T) string, fn func(entry *T)) []T {
	i := indexOf(entries, id, key)
	if i < 0 {
		return entries
	}
	result := slices.Clone(entries)
	entry := result[i]
	fn(&entry)
	result[i] = entry
	return result
}

// removed returns a copy of entries without the entry with the given id.
func removed[T any](entries []T, id string, key func(T) string) []T {
	i := indexOf(entries, id, key)
	if i < 0 {
		return entries
	}
	return slices.Delete(slices.Clone(entries), i, i+1)
}
