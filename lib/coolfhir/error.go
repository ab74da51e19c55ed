package coolfhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/to"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// SanitizeOperationOutcome removes security-related information from an OperationOutcome, replacing it with a generic message,
// so that it can be safely returned to the client.
// It follows the code list from the FHIR specification: https://www.hl7.org/fhir/codesystem-issue-type.html#issue-type-security
func SanitizeOperationOutcome(in fhir.OperationOutcome) fhir.OperationOutcome {
	result := in
	result.Issue = nil
	for _, issue := range in.Issue {
		switch issue.Code {
		case fhir.IssueTypeSecurity, fhir.IssueTypeLogin, fhir.IssueTypeUnknown,
			fhir.IssueTypeExpired, fhir.IssueTypeForbidden, fhir.IssueTypeSuppressed:
			result.Issue = append(result.Issue, fhir.OperationOutcomeIssue{
				Severity:    issue.Severity,
				Code:        fhir.IssueTypeProcessing,
				Diagnostics: to.Ptr("upstream FHIR server error"),
			})
		default:
			result.Issue = append(result.Issue, issue)
		}
	}
	return result
}

// ErrorWithCode is a wrapped error struct that can take an error message as well as an HTTP status code
type ErrorWithCode struct {
	Message    string
	StatusCode int
	// Cause is the underlying error, if any.
	Cause error
}

func (e ErrorWithCode) Error() string {
	return e.Message
}

func (e ErrorWithCode) Unwrap() error {
	return e.Cause
}

// NewErrorWithCode constructs a new ErrorWithCode custom wrapped error
func NewErrorWithCode(message string, statusCode int) error {
	return &ErrorWithCode{
		Message:    message,
		StatusCode: statusCode,
	}
}

// WrapWithCode attaches an HTTP status code to the given error, keeping it available to errors.Is and errors.As.
func WrapWithCode(err error, statusCode int) error {
	return &ErrorWithCode{
		Message:    err.Error(),
		StatusCode: statusCode,
		Cause:      err,
	}
}

// BadRequestError wraps an error with a status code of 400
func BadRequestError(err error) error {
	return WrapWithCode(err, http.StatusBadRequest)
}

// BadRequest creates an error with a status code of 400
func BadRequest(msg string, args ...any) error {
	return BadRequestError(fmt.Errorf(msg, args...))
}

// WriteOperationOutcomeFromError writes an OperationOutcome based on the given error as HTTP response.
// An ErrorWithCode determines the status code, otherwise it defaults to 500.
// Upstream OperationOutcomes are passed through, sanitized unless they describe a bad request.
func WriteOperationOutcomeFromError(ctx context.Context, err error, desc string, httpResponse http.ResponseWriter) {
	log.Ctx(ctx).Error().Err(err).Msgf("%s failed", desc)

	statusCode := http.StatusInternalServerError
	var operationOutcome fhir.OperationOutcome

	var operationOutcomeErr fhirclient.OperationOutcomeError
	var operationOutcomeErrPtr *fhirclient.OperationOutcomeError
	if errors.As(err, &operationOutcomeErrPtr) {
		operationOutcomeErr = *operationOutcomeErrPtr
	}
	if operationOutcomeErrPtr != nil || errors.As(err, &operationOutcomeErr) {
		if operationOutcomeErr.HttpStatusCode > 0 {
			statusCode = operationOutcomeErr.HttpStatusCode
		}
		var errorWithCode *ErrorWithCode
		if errors.As(err, &errorWithCode) && errorWithCode.StatusCode > 0 {
			statusCode = errorWithCode.StatusCode
		}
		operationOutcome = operationOutcomeErr.OperationOutcome
		if statusCode != http.StatusBadRequest {
			operationOutcome = SanitizeOperationOutcome(operationOutcome)
		}
	} else {
		var errorWithCode *ErrorWithCode
		if errors.As(err, &errorWithCode) && errorWithCode.StatusCode > 0 {
			statusCode = errorWithCode.StatusCode
		}
		diagnostics := http.StatusText(statusCode)
		// Client errors carry their message, server errors don't leak internals
		if statusCode < http.StatusInternalServerError {
			diagnostics = err.Error()
		}
		operationOutcome = fhir.OperationOutcome{
			Issue: []fhir.OperationOutcomeIssue{
				{
					Severity:    fhir.IssueSeverityError,
					Code:        fhir.IssueTypeProcessing,
					Diagnostics: to.Ptr(fmt.Sprintf("%s failed: %s", desc, diagnostics)),
				},
			},
		}
	}
	SendResponse(httpResponse, statusCode, operationOutcome)
}

// SendResponse writes the given resource as FHIR JSON with the given status code.
func SendResponse(httpResponse http.ResponseWriter, httpStatus int, resource interface{}, additionalHeaders ...map[string]string) {
	data, err := json.Marshal(resource)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to marshal response (type=%T)", resource)
		httpStatus = http.StatusInternalServerError
		data = []byte(`{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"processing","diagnostics":"failed to marshal response"}]}`)
	}
	for _, hdrs := range additionalHeaders {
		for key, value := range hdrs {
			httpResponse.Header().Set(key, value)
		}
	}
	httpResponse.Header().Set("Content-Type", FHIRContentType)
	httpResponse.WriteHeader(httpStatus)
	if _, err := httpResponse.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
