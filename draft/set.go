package draft

// Set is the draft state of a single consultation: one store per domain.
// Each consultation gets its own Set, so consultations never share state.
type Set struct {
	Allergies       *AllergyStore
	Conditions      *ConditionStore
	ServiceRequests *ServiceRequestStore
	Medications     *MedicationStore
	Encounter       *EncounterDetailsStore
}

func NewSet() *Set {
	return &Set{
		Allergies:       NewAllergyStore(),
		Conditions:      NewConditionStore(),
		ServiceRequests: NewServiceRequestStore(),
		Medications:     NewMedicationStore(),
		Encounter:       NewEncounterDetailsStore(),
	}
}

// ValidateAll runs the validation of every domain, so all field errors are marked, and returns the result per domain.
func (s *Set) ValidateAll() map[Domain]bool {
	return map[Domain]bool{
		DomainEncounter:       s.Encounter.ValidateAll(),
		DomainDiagnoses:       s.Conditions.ValidateAllDiagnoses(),
		DomainAllergies:       s.Allergies.ValidateAll(),
		DomainConditions:      s.Conditions.ValidateAllConditions(),
		DomainServiceRequests: s.ServiceRequests.ValidateAll(),
		DomainMedications:     s.Medications.ValidateAll(),
	}
}

// Invalid returns the domains that failed validation, in submission order.
func Invalid(results map[Domain]bool) []Domain {
	var result []Domain
	for _, domain := range []Domain{DomainEncounter, DomainDiagnoses, DomainAllergies, DomainConditions, DomainServiceRequests, DomainMedications} {
		if valid, ok := results[domain]; ok && !valid {
			result = append(result, domain)
		}
	}
	return result
}

// Reset clears every store.
func (s *Set) Reset() {
	s.Allergies.Reset()
	s.Conditions.Reset()
	s.ServiceRequests.Reset()
	s.Medications.Reset()
	s.Encounter.Reset()
}

// Snapshot is a point-in-time copy of all draft state.
type Snapshot struct {
	Encounter       EncounterDetails          `json:"encounter"`
	Diagnoses       []DiagnosisEntry          `json:"diagnoses"`
	Allergies       []AllergyEntry            `json:"allergies"`
	Conditions      []ConditionEntry          `json:"conditions"`
	ServiceRequests ServiceRequestsByCategory `json:"serviceRequests"`
	Medications     []MedicationEntry         `json:"medications"`
}

func (s *Set) Snapshot() Snapshot {
	return Snapshot{
		Encounter:       s.Encounter.Details(),
		Diagnoses:       s.Conditions.Diagnoses(),
		Allergies:       s.Allergies.Entries(),
		Conditions:      s.Conditions.Conditions(),
		ServiceRequests: s.ServiceRequests.Snapshot(),
		Medications:     s.Medications.Entries(),
	}
}
