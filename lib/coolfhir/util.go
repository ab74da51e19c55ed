package coolfhir

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// DateTimeLayout is the FHIR dateTime format used for recorded and onset timestamps: UTC with milliseconds.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

// FormatDateTime formats the given time as FHIR dateTime in UTC with millisecond precision.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

func LiteralReference(resourceType string, id string) *fhir.Reference {
	return &fhir.Reference{
		Reference: to.Ptr(resourceType + "/" + id),
		Type:      to.Ptr(resourceType),
	}
}

func PatientReference(patientUUID string) *fhir.Reference {
	return LiteralReference("Patient", patientUUID)
}

func PractitionerReference(practitionerUUID string) *fhir.Reference {
	return LiteralReference("Practitioner", practitionerUUID)
}

// EncounterReference returns a reference to the encounter, which is either a literal (Encounter/<id>) or placeholder (urn:uuid:<uuid>) reference.
func EncounterReference(reference string) *fhir.Reference {
	return &fhir.Reference{
		Reference: to.Ptr(reference),
		Type:      to.Ptr("Encounter"),
	}
}

// HasReference reports whether the reference carries a non-blank reference string.
func HasReference(reference *fhir.Reference) bool {
	return reference != nil && reference.Reference != nil && strings.TrimSpace(*reference.Reference) != ""
}

// Coding creates a Coding. Empty system or display are omitted.
func Coding(system string, code string, display string) fhir.Coding {
	return fhir.Coding{
		System:  to.NilString(system),
		Code:    to.NilString(code),
		Display: to.NilString(display),
	}
}

// CodeableConcept creates a CodeableConcept from the given codings. Empty text is omitted.
func CodeableConcept(text string, codings ...fhir.Coding) *fhir.CodeableConcept {
	return &fhir.CodeableConcept{
		Coding: codings,
		Text:   to.NilString(text),
	}
}

// ConceptCodeableConcept creates a CodeableConcept for a terminology concept, identified by its UUID.
func ConceptCodeableConcept(conceptUUID string, display string) *fhir.CodeableConcept {
	return CodeableConcept(display, Coding("", conceptUUID, display))
}

// ParseCode converts a code into its typed FHIR value set representation (e.g. fhir.AllergyIntoleranceSeverity).
// It fails if the code is not part of the value set.
func ParseCode[T any](code string) (T, error) {
	var result T
	data, _ := json.Marshal(code)
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid code %q for %T: %w", code, result, err)
	}
	return result, nil
}
