package resources

import (
	"math"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// CreateMedicationRequest creates an active medication order from the prescription.
// A STAT prescription gets priority stat and no repeat timing, PRN maps to dosage asNeeded.
func CreateMedicationRequest(medication draft.MedicationEntry, subject *fhir.Reference, encounter *fhir.Reference,
	requester *fhir.Reference) (*fhir.MedicationRequest, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}
	priority := fhir.RequestPriorityRoutine
	if medication.IsSTAT {
		priority = fhir.RequestPriorityStat
	}
	dosage := fhir.Dosage{
		AsNeededBoolean: to.Ptr(medication.IsPRN),
		Route:           codeableConcept(medication.Route),
		DoseAndRate: []fhir.DosageDoseAndRate{
			{DoseQuantity: quantity(medication.Dosage, medication.DosageUnit)},
		},
	}
	if medication.Instruction != nil && medication.Instruction.Code != "" {
		dosage.AdditionalInstruction = []fhir.CodeableConcept{*codeableConcept(medication.Instruction)}
	}
	dosage.Timing = medicationTiming(medication)

	result := &fhir.MedicationRequest{
		Status:   "active",
		Intent:   "order",
		Priority: &priority,
		MedicationReference: &fhir.Reference{
			Reference: to.Ptr("Medication/" + medication.Medication.ID),
			Type:      to.Ptr("Medication"),
			Display:   to.NilString(medication.Display),
		},
		Subject:           *subject,
		Encounter:         encounter,
		Requester:         requester,
		DosageInstruction: []fhir.Dosage{dosage},
		Note:              annotations(medication.Note),
	}
	if medication.DispenseQuantity > 0 {
		result.DispenseRequest = &fhir.MedicationRequestDispenseRequest{
			Quantity: quantity(medication.DispenseQuantity, medication.DispenseUnit),
		}
	}
	return result, nil
}

func medicationTiming(medication draft.MedicationEntry) *fhir.Timing {
	timing := &fhir.Timing{}
	if !medication.StartDate.IsZero() {
		timing.Event = []string{coolfhir.FormatDateTime(medication.StartDate)}
	}
	if medication.IsSTAT {
		return timing
	}
	repeat := &fhir.TimingRepeat{}
	if medication.Frequency != nil {
		timing.Code = coolfhir.ConceptCodeableConcept(medication.Frequency.Code, medication.Frequency.Display)
		if medication.Frequency.TimesPerDay >= 1 {
			repeat.Frequency = to.Ptr(int(math.Round(medication.Frequency.TimesPerDay)))
			repeat.Period = to.Ptr(1.0)
		} else if medication.Frequency.TimesPerDay > 0 {
			// e.g. once every 2 days
			repeat.Frequency = to.Ptr(1)
			repeat.Period = to.Ptr(1 / medication.Frequency.TimesPerDay)
		}
		if repeat.Frequency != nil {
			repeat.PeriodUnit = to.Ptr("d")
		}
	}
	if medication.DurationUnit != nil && medication.Duration > 0 {
		repeat.BoundsDuration = &fhir.Duration{
			Value:  to.Ptr(float64(medication.Duration)),
			Unit:   to.NilString(medication.DurationUnit.Display),
			System: to.Ptr("http://unitsofmeasure.org"),
			Code:   to.Ptr(medication.DurationUnit.Code),
		}
	}
	timing.Repeat = repeat
	return timing
}

func codeableConcept(coding *draft.Coding) *fhir.CodeableConcept {
	if coding == nil || coding.Code == "" {
		return nil
	}
	return coolfhir.CodeableConcept(coding.Display, coolfhir.Coding(coding.System, coding.Code, coding.Display))
}

func quantity(value float64, unit *draft.Coding) *fhir.Quantity {
	result := &fhir.Quantity{Value: to.Ptr(value)}
	if unit != nil {
		result.Unit = to.NilString(unit.Display)
		result.System = to.NilString(unit.System)
		result.Code = to.NilString(unit.Code)
	}
	return result
}
