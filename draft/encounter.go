package draft

import (
	"slices"
	"sync"
	"time"
)

// Provider is a clinician taking part in the encounter.
type Provider struct {
	UUID    string `json:"uuid"`
	Display string `json:"display,omitempty"`
}

// EncounterDetails are the encounter-level facts of a consultation.
type EncounterDetails struct {
	PatientUUID      string      `json:"patientUUID"`
	PractitionerUUID string      `json:"practitionerUUID"`
	Location         *Coding     `json:"location,omitempty"`
	EncounterType    *Coding     `json:"encounterType,omitempty"`
	VisitType        *Coding     `json:"visitType,omitempty"`
	ActiveVisitID    string      `json:"activeVisitId,omitempty"`
	Participants     []Provider  `json:"participants,omitempty"`
	ConsultationDate time.Time   `json:"consultationDate"`
	Errors           FieldErrors `json:"errors,omitempty"`
	HasBeenValidated bool        `json:"hasBeenValidated"`
}

// EncounterDetailsStore holds the encounter details of a consultation.
type EncounterDetailsStore struct {
	mux     sync.RWMutex
	details EncounterDetails
}

func NewEncounterDetailsStore() *EncounterDetailsStore {
	return &EncounterDetailsStore{}
}

func (s *EncounterDetailsStore) SetPatient(patientUUID string) {
	s.update(func(details *EncounterDetails) {
		details.PatientUUID = patientUUID
	})
}

func (s *EncounterDetailsStore) SetPractitioner(practitionerUUID string) {
	s.update(func(details *EncounterDetails) {
		details.PractitionerUUID = practitionerUUID
	})
}

func (s *EncounterDetailsStore) SetLocation(location *Coding) {
	s.update(func(details *EncounterDetails) {
		details.Location = location
	})
}

func (s *EncounterDetailsStore) SetEncounterType(encounterType *Coding) {
	s.update(func(details *EncounterDetails) {
		details.EncounterType = encounterType
	})
}

func (s *EncounterDetailsStore) SetVisitType(visitType *Coding) {
	s.update(func(details *EncounterDetails) {
		details.VisitType = visitType
	})
}

func (s *EncounterDetailsStore) SetActiveVisit(visitID string) {
	s.update(func(details *EncounterDetails) {
		details.ActiveVisitID = visitID
	})
}

func (s *EncounterDetailsStore) SetParticipants(participants []Provider) {
	s.update(func(details *EncounterDetails) {
		details.Participants = slices.Clone(participants)
	})
}

func (s *EncounterDetailsStore) SetConsultationDate(date time.Time) {
	s.update(func(details *EncounterDetails) {
		details.ConsultationDate = date
	})
}

func (s *EncounterDetailsStore) update(fn func(details *EncounterDetails)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	next := s.details
	fn(&next)
	s.details = next
}

// ValidateAll marks missing encounter details and reports whether the details are complete.
func (s *EncounterDetailsStore) ValidateAll() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	next := s.details
	errs := FieldErrors{}
	if next.PatientUUID == "" {
		errs["patient"] = ErrInputValueRequired
	}
	if next.PractitionerUUID == "" {
		errs["practitioner"] = ErrInputValueRequired
	}
	if !next.Location.hasCode() {
		errs["location"] = ErrDropdownValueRequired
	}
	if !next.EncounterType.hasCode() {
		errs["encounterType"] = ErrDropdownValueRequired
	}
	if next.ActiveVisitID == "" {
		errs["visit"] = ErrDropdownValueRequired
	}
	if len(next.Participants) == 0 {
		errs["participants"] = ErrDropdownValueRequired
	}
	next.Errors = nil
	if len(errs) > 0 {
		next.Errors = errs
	}
	next.HasBeenValidated = true
	s.details = next
	return len(errs) == 0
}

func (s *EncounterDetailsStore) Details() EncounterDetails {
	s.mux.RLock()
	defer s.mux.RUnlock()
	result := s.details
	result.Participants = slices.Clone(s.details.Participants)
	return result
}

func (s *EncounterDetailsStore) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.details = EncounterDetails{}
}
