package consultation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bahmni/consultation/draft"
)

// ErrorKind is the kind of failure of a consultation operation. Each kind has a translation key for the UI.
type ErrorKind int

const (
	ErrInvalidEncounterSubject ErrorKind = iota + 1
	ErrInvalidEncounterReference
	ErrInvalidPractitioner
	ErrInvalidDiagnosisParams
	ErrInvalidAllergyParams
	ErrInvalidConditionParams
	ErrInvalidServiceRequestParams
	ErrInvalidMedicationParams
	ErrInvalidEncounterParams
	ErrValidationFailed
	ErrSubmissionInProgress
	ErrSubmissionFailed
)

var errorKeys = map[ErrorKind]string{
	ErrInvalidEncounterSubject:     "CONSULTATION_ERROR_INVALID_ENCOUNTER_SUBJECT",
	ErrInvalidEncounterReference:   "CONSULTATION_ERROR_INVALID_ENCOUNTER_REFERENCE",
	ErrInvalidPractitioner:         "CONSULTATION_ERROR_INVALID_PRACTITIONER",
	ErrInvalidDiagnosisParams:      "CONSULTATION_ERROR_INVALID_DIAGNOSIS_PARAMS",
	ErrInvalidAllergyParams:        "CONSULTATION_ERROR_INVALID_ALLERGY_PARAMS",
	ErrInvalidConditionParams:      "CONSULTATION_ERROR_INVALID_CONDITION_PARAMS",
	ErrInvalidServiceRequestParams: "CONSULTATION_ERROR_INVALID_SERVICE_REQUEST_PARAMS",
	ErrInvalidMedicationParams:     "CONSULTATION_ERROR_INVALID_MEDICATION_PARAMS",
	ErrInvalidEncounterParams:      "CONSULTATION_ERROR_INVALID_ENCOUNTER_PARAMS",
	ErrValidationFailed:            "CONSULTATION_ERROR_VALIDATION_FAILED",
	ErrSubmissionInProgress:        "CONSULTATION_ERROR_SUBMISSION_IN_PROGRESS",
	ErrSubmissionFailed:            "CONSULTATION_ERROR_SUBMISSION_FAILED",
}

// paramsErrorKinds maps each domain to the kind reported when its entries can't be turned into resources.
var paramsErrorKinds = map[draft.Domain]ErrorKind{
	draft.DomainEncounter:       ErrInvalidEncounterParams,
	draft.DomainDiagnoses:       ErrInvalidDiagnosisParams,
	draft.DomainAllergies:       ErrInvalidAllergyParams,
	draft.DomainConditions:      ErrInvalidConditionParams,
	draft.DomainServiceRequests: ErrInvalidServiceRequestParams,
	draft.DomainMedications:     ErrInvalidMedicationParams,
}

// Key returns the translation key of the kind.
func (k ErrorKind) Key() string {
	if key, ok := errorKeys[k]; ok {
		return key
	}
	return fmt.Sprintf("CONSULTATION_ERROR_%d", int(k))
}

// Error makes a kind usable as errors.Is target.
func (k ErrorKind) Error() string {
	return k.Key()
}

// StatusCode returns the HTTP status code an error of this kind is reported with.
func (k ErrorKind) StatusCode() int {
	switch k {
	case ErrSubmissionInProgress:
		return http.StatusConflict
	case ErrSubmissionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// Error is a failed consultation operation.
type Error struct {
	Kind ErrorKind
	// Domains lists the draft domains that failed validation, for ErrValidationFailed.
	Domains []draft.Domain
	Cause   error
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Key())
	if len(e.Domains) > 0 {
		domains := make([]string, len(e.Domains))
		for i, domain := range e.Domains {
			domains[i] = string(domain)
		}
		b.WriteString(" (" + strings.Join(domains, ", ") + ")")
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}
