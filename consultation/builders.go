package consultation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/resources"
	"github.com/google/uuid"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// BundleContext is shared by the resources of one consultation bundle.
type BundleContext struct {
	EncounterSubject   *fhir.Reference
	EncounterReference string
	PractitionerUUID   string
	ConsultationDate   time.Time
	// NewID generates the placeholder ids of new resources. Defaults to random UUIDs.
	NewID func() string
}

// check verifies the shared references, in order: subject, encounter reference, practitioner.
func (c BundleContext) check() error {
	if !coolfhir.HasReference(c.EncounterSubject) {
		return newError(ErrInvalidEncounterSubject, nil)
	}
	if strings.TrimSpace(c.EncounterReference) == "" {
		return newError(ErrInvalidEncounterReference, nil)
	}
	if strings.TrimSpace(c.PractitionerUUID) == "" {
		return newError(ErrInvalidPractitioner, nil)
	}
	return nil
}

func (c BundleContext) placeholder() string {
	if c.NewID != nil {
		return coolfhir.URNUUIDPrefix + c.NewID()
	}
	return coolfhir.URNUUIDPrefix + uuid.NewString()
}

func (c BundleContext) encounter() *fhir.Reference {
	return coolfhir.EncounterReference(c.EncounterReference)
}

func (c BundleContext) practitioner() *fhir.Reference {
	return coolfhir.PractitionerReference(c.PractitionerUUID)
}

// bundleEntries checks the context, then every entry, and only then creates a POST entry per resource.
func bundleEntries[T any](c BundleContext, entries []T, kind ErrorKind, check func(T) error, create func(T) (any, error)) ([]fhir.BundleEntry, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := check(entry); err != nil {
			return nil, newError(kind, err)
		}
	}
	result := make([]fhir.BundleEntry, 0, len(entries))
	for _, entry := range entries {
		resource, err := create(entry)
		if err != nil {
			if errors.Is(err, resources.ErrInvalidSubject) {
				return nil, newError(ErrInvalidEncounterSubject, err)
			}
			return nil, newError(kind, err)
		}
		bundleEntry, err := CreateBundleEntry(c.placeholder(), resource, fhir.HTTPVerbPOST, "")
		if err != nil {
			return nil, newError(kind, err)
		}
		result = append(result, bundleEntry)
	}
	return result, nil
}

// CreateDiagnosisBundleEntries creates encounter-diagnosis Conditions. Every diagnosis needs a certainty.
func CreateDiagnosisBundleEntries(c BundleContext, diagnoses []draft.DiagnosisEntry) ([]fhir.BundleEntry, error) {
	return bundleEntries(c, diagnoses, ErrInvalidDiagnosisParams,
		func(diagnosis draft.DiagnosisEntry) error {
			if diagnosis.SelectedCertainty == nil || diagnosis.SelectedCertainty.Code == "" {
				return fmt.Errorf("diagnosis %s: certainty is not set", diagnosis.ID)
			}
			return nil
		},
		func(diagnosis draft.DiagnosisEntry) (any, error) {
			return resources.CreateDiagnosisCondition(diagnosis, c.EncounterSubject, c.encounter(), c.practitioner(), c.ConsultationDate)
		})
}

// CreateAllergyBundleEntries creates AllergyIntolerances. Every allergy needs a severity and at least one reaction.
func CreateAllergyBundleEntries(c BundleContext, allergies []draft.AllergyEntry) ([]fhir.BundleEntry, error) {
	return bundleEntries(c, allergies, ErrInvalidAllergyParams,
		func(allergy draft.AllergyEntry) error {
			if allergy.SelectedSeverity == nil || allergy.SelectedSeverity.Code == "" {
				return fmt.Errorf("allergy %s: severity is not set", allergy.ID)
			}
			if len(allergy.SelectedReactions) == 0 {
				return fmt.Errorf("allergy %s: no reactions", allergy.ID)
			}
			return nil
		},
		func(allergy draft.AllergyEntry) (any, error) {
			return resources.CreateAllergyIntolerance(allergy, c.EncounterSubject, c.encounter(), c.practitioner())
		})
}

// CreateConditionBundleEntries creates problem-list-item Conditions. Every condition needs a duration value and unit.
func CreateConditionBundleEntries(c BundleContext, conditions []draft.ConditionEntry) ([]fhir.BundleEntry, error) {
	return bundleEntries(c, conditions, ErrInvalidConditionParams,
		func(condition draft.ConditionEntry) error {
			if condition.DurationValue == nil || condition.DurationUnit == nil {
				return fmt.Errorf("condition %s: duration is not set", condition.ID)
			}
			return nil
		},
		func(condition draft.ConditionEntry) (any, error) {
			return resources.CreateProblemListCondition(condition, c.EncounterSubject, c.encounter(), c.practitioner(), c.ConsultationDate)
		})
}

// CreateServiceRequestBundleEntries creates ServiceRequests, category by category. Categories without entries are skipped.
func CreateServiceRequestBundleEntries(c BundleContext, serviceRequests draft.ServiceRequestsByCategory) ([]fhir.BundleEntry, error) {
	var entries []draft.ServiceRequestEntry
	for _, category := range serviceRequests {
		entries = append(entries, category.Entries...)
	}
	return bundleEntries(c, entries, ErrInvalidServiceRequestParams,
		func(serviceRequest draft.ServiceRequestEntry) error {
			if serviceRequest.ID == "" {
				return errors.New("service request: concept is not set")
			}
			return nil
		},
		func(serviceRequest draft.ServiceRequestEntry) (any, error) {
			return resources.CreateServiceRequest(serviceRequest, c.EncounterSubject, c.encounter(), c.practitioner())
		})
}

// CreateMedicationBundleEntries creates MedicationRequests.
func CreateMedicationBundleEntries(c BundleContext, medications []draft.MedicationEntry) ([]fhir.BundleEntry, error) {
	return bundleEntries(c, medications, ErrInvalidMedicationParams,
		func(medication draft.MedicationEntry) error {
			if medication.Medication.ID == "" {
				return fmt.Errorf("medication %s: drug is not set", medication.ID)
			}
			return nil
		},
		func(medication draft.MedicationEntry) (any, error) {
			return resources.CreateMedicationRequest(medication, c.EncounterSubject, c.encounter(), c.practitioner())
		})
}
