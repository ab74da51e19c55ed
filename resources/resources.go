// Package resources maps validated draft entries onto FHIR R4 resources.
// Every function is pure: the same entry and references always yield the same resource.
package resources

import (
	"errors"

	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// ErrInvalidSubject is returned when the subject reference does not reference a patient.
var ErrInvalidSubject = errors.New("subject reference is empty")

func checkSubject(subject *fhir.Reference) error {
	if !coolfhir.HasReference(subject) {
		return ErrInvalidSubject
	}
	return nil
}

func annotations(note string) []fhir.Annotation {
	if text := to.NonBlank(note); text != nil {
		return []fhir.Annotation{{Text: *text}}
	}
	return nil
}
