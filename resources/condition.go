package resources

import (
	"fmt"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// CreateDiagnosisCondition creates an encounter-diagnosis Condition, recorded at the consultation date.
// Only the certainty "confirmed" yields a confirmed verification status, any other certainty is provisional.
func CreateDiagnosisCondition(diagnosis draft.DiagnosisEntry, subject *fhir.Reference, encounter *fhir.Reference,
	recorder *fhir.Reference, consultationDate time.Time) (*fhir.Condition, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	verificationStatus := draft.CertaintyProvisional
	if diagnosis.SelectedCertainty != nil && diagnosis.SelectedCertainty.Code == draft.CertaintyConfirmed {
		verificationStatus = draft.CertaintyConfirmed
	}
	return &fhir.Condition{
		ClinicalStatus:     coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ConditionClinicalStatusSystem, "active", "Active")),
		VerificationStatus: coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ConditionVerificationStatusSystem, verificationStatus, "")),
		Category: []fhir.CodeableConcept{
			*coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ConditionCategorySystem, "encounter-diagnosis", "Encounter Diagnosis")),
		},
		Code:         coolfhir.ConceptCodeableConcept(diagnosis.ID, diagnosis.Display),
		Subject:      *subject,
		Encounter:    encounter,
		Recorder:     recorder,
		RecordedDate: to.Ptr(coolfhir.FormatDateTime(consultationDate)),
	}, nil
}

// CreateProblemListCondition creates an active problem-list Condition.
// The onset is the consultation date minus the condition's duration.
func CreateProblemListCondition(condition draft.ConditionEntry, subject *fhir.Reference, encounter *fhir.Reference,
	recorder *fhir.Reference, consultationDate time.Time) (*fhir.Condition, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	if condition.DurationValue == nil || condition.DurationUnit == nil {
		return nil, fmt.Errorf("condition %s: duration is not set", condition.ID)
	}
	onset, err := OnsetDate(consultationDate, *condition.DurationValue, *condition.DurationUnit)
	if err != nil {
		return nil, fmt.Errorf("condition %s: %w", condition.ID, err)
	}
	return &fhir.Condition{
		ClinicalStatus: coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ConditionClinicalStatusSystem, "active", "Active")),
		Category: []fhir.CodeableConcept{
			*coolfhir.CodeableConcept("", coolfhir.Coding(coolfhir.ConditionCategorySystem, "problem-list-item", "Problem List Item")),
		},
		Code:          coolfhir.ConceptCodeableConcept(condition.ID, condition.Display),
		Subject:       *subject,
		Encounter:     encounter,
		Recorder:      recorder,
		OnsetDateTime: to.Ptr(coolfhir.FormatDateTime(onset)),
		RecordedDate:  to.Ptr(coolfhir.FormatDateTime(consultationDate)),
	}, nil
}

// OnsetDate subtracts the duration from the given date using calendar arithmetic.
// Month and year subtraction clamp to the last day of the target month (March 31st minus 1 month is February 28th or 29th).
func OnsetDate(from time.Time, value int, unit draft.DurationUnit) (time.Time, error) {
	switch unit {
	case draft.DurationDays:
		return from.AddDate(0, 0, -value), nil
	case draft.DurationMonths:
		return subtractMonths(from, value), nil
	case draft.DurationYears:
		return subtractMonths(from, value*12), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration unit: %q", unit)
	}
}

func subtractMonths(from time.Time, months int) time.Time {
	firstOfMonth := time.Date(from.Year(), from.Month()-time.Month(months), 1, 0, 0, 0, 0, from.Location())
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), min(from.Day(), lastDay),
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}
