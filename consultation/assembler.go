package consultation

import (
	"errors"
	"slices"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/bahmni/consultation/notification"
	"github.com/bahmni/consultation/resources"
	"github.com/google/uuid"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// Assembly is an assembled consultation bundle.
type Assembly struct {
	Bundle             fhir.Bundle
	EncounterReference string
	EncounterMethod    fhir.HTTPVerb
	UpdatedResources   notification.UpdatedResources
}

func NewAssembler() *Assembler {
	return &Assembler{
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Assembler turns the drafts of a consultation into one transaction bundle.
type Assembler struct {
	newID func() string
	now   func() time.Time
}

// Assemble builds the transaction bundle from the drafts. Entries are ordered:
// encounter, diagnoses, allergies, conditions, service requests, medications.
// The encounter is created, or replaces the active encounter when there is one.
func (a *Assembler) Assemble(drafts draft.Snapshot, activeEncounter *fhir.Encounter) (*Assembly, error) {
	details := drafts.Encounter
	if details.ConsultationDate.IsZero() {
		details.ConsultationDate = a.now()
	}
	subject := &fhir.Reference{}
	if details.PatientUUID != "" {
		subject = coolfhir.PatientReference(details.PatientUUID)
	}

	encounterEntry, err := a.encounterEntry(details, subject, activeEncounter)
	if err != nil {
		return nil, err
	}
	bundleContext := BundleContext{
		EncounterSubject:   subject,
		EncounterReference: GetEncounterReference(activeEncounter, to.EmptyString(encounterEntry.FullUrl)),
		PractitionerUUID:   details.PractitionerUUID,
		ConsultationDate:   details.ConsultationDate,
		NewID:              a.newID,
	}

	diagnoses, err := CreateDiagnosisBundleEntries(bundleContext, drafts.Diagnoses)
	if err != nil {
		return nil, err
	}
	allergies, err := CreateAllergyBundleEntries(bundleContext, drafts.Allergies)
	if err != nil {
		return nil, err
	}
	conditions, err := CreateConditionBundleEntries(bundleContext, drafts.Conditions)
	if err != nil {
		return nil, err
	}
	serviceRequests, err := CreateServiceRequestBundleEntries(bundleContext, drafts.ServiceRequests)
	if err != nil {
		return nil, err
	}
	medications, err := CreateMedicationBundleEntries(bundleContext, drafts.Medications)
	if err != nil {
		return nil, err
	}

	builder := coolfhir.Transaction().AppendEntry(encounterEntry)
	for _, entry := range slices.Concat(diagnoses, allergies, conditions, serviceRequests, medications) {
		builder.AppendEntry(entry)
	}
	return &Assembly{
		Bundle:             builder.Bundle(),
		EncounterReference: bundleContext.EncounterReference,
		EncounterMethod:    encounterEntry.Request.Method,
		UpdatedResources: notification.UpdatedResources{
			Conditions:      len(drafts.Diagnoses)+len(drafts.Conditions) > 0,
			Allergies:       len(drafts.Allergies) > 0,
			ServiceRequests: len(serviceRequests) > 0,
			Medications:     len(drafts.Medications) > 0,
		},
	}, nil
}

func (a *Assembler) encounterEntry(details draft.EncounterDetails, subject *fhir.Reference, activeEncounter *fhir.Encounter) (fhir.BundleEntry, error) {
	if !coolfhir.HasReference(subject) {
		return fhir.BundleEntry{}, newError(ErrInvalidEncounterSubject, nil)
	}
	encounter, err := resources.CreateEncounter(details, subject)
	if err != nil {
		if errors.Is(err, resources.ErrInvalidSubject) {
			return fhir.BundleEntry{}, newError(ErrInvalidEncounterSubject, err)
		}
		return fhir.BundleEntry{}, newError(ErrInvalidEncounterParams, err)
	}
	entry, err := CreateEncounterBundleEntry(activeEncounter, *encounter, a.newID)
	if err != nil {
		return fhir.BundleEntry{}, newError(ErrInvalidEncounterParams, err)
	}
	return entry, nil
}
