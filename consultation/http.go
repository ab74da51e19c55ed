package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/httpserv"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/bahmni/consultation/lib/otel"
	"github.com/bahmni/consultation/lib/to"
	"github.com/bahmni/consultation/session"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

const basePath = "/consultation"

// ErrorKeySystem is the coding system of the error keys in OperationOutcome.issue.details.
const ErrorKeySystem = "urn:bahmni:consultation:error"

type consultationView struct {
	ID          string         `json:"id"`
	PatientUUID string         `json:"patientUUID"`
	CreatedAt   time.Time      `json:"createdAt"`
	Submitting  bool           `json:"submitting"`
	Drafts      draft.Snapshot `json:"drafts"`
}

func newConsultationView(consultation *session.Consultation) consultationView {
	return consultationView{
		ID:          consultation.ID,
		PatientUUID: consultation.PatientUUID,
		CreatedAt:   consultation.CreatedAt,
		Submitting:  consultation.Submitting(),
		Drafts:      consultation.Drafts.Snapshot(),
	}
}

type createRequest struct {
	PatientUUID string `json:"patientUUID"`
}

type encounterRequest struct {
	PractitionerUUID *string          `json:"practitionerUUID"`
	Location         *draft.Coding    `json:"location"`
	EncounterType    *draft.Coding    `json:"encounterType"`
	VisitType        *draft.Coding    `json:"visitType"`
	ActiveVisitID    *string          `json:"activeVisitId"`
	Participants     []draft.Provider `json:"participants"`
	ConsultationDate *time.Time       `json:"consultationDate"`
}

type allergyPatch struct {
	Severity  *draft.Coding   `json:"severity"`
	Reactions *[]draft.Coding `json:"reactions"`
	Note      *string         `json:"note"`
}

type diagnosisPatch struct {
	Certainty *draft.Coding `json:"certainty"`
}

type conditionPatch struct {
	DurationValue *int                `json:"durationValue"`
	DurationUnit  *draft.DurationUnit `json:"durationUnit"`
}

type serviceRequestCreate struct {
	Category string       `json:"category"`
	Concept  draft.Coding `json:"concept"`
}

type serviceRequestPatch struct {
	Priority *draft.Priority `json:"priority"`
	Note     *string         `json:"note"`
}

type medicationCreate struct {
	Medication draft.Medication `json:"medication"`
	Display    string           `json:"display"`
}

type medicationPatch struct {
	Dosage           *float64                      `json:"dosage"`
	DosageUnit       *draft.Coding                 `json:"dosageUnit"`
	Frequency        *draft.Frequency              `json:"frequency"`
	Route            *draft.Coding                 `json:"route"`
	Duration         *int                          `json:"duration"`
	DurationUnit     *draft.MedicationDurationUnit `json:"durationUnit"`
	Instruction      *draft.Coding                 `json:"instruction"`
	IsSTAT           *bool                         `json:"isSTAT"`
	IsPRN            *bool                         `json:"isPRN"`
	DispenseQuantity *float64                      `json:"dispenseQuantity"`
	DispenseUnit     *draft.Coding                 `json:"dispenseUnit"`
	StartDate        *time.Time                    `json:"startDate"`
	Note             *string                       `json:"note"`
}

// consultationHandler handles a request on an existing consultation.
type consultationHandler func(writer http.ResponseWriter, request *http.Request, consultation *session.Consultation)

// draftsHandler edits the drafts of a consultation. It is not called while the consultation is being submitted.
type draftsHandler func(request *http.Request, drafts *draft.Set) error

func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	traced := func(operation string) httpserv.Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return otel.HandlerWithTracing(tracer, operation, next)
		}
	}
	route := func(method string, path string, operation string, handler http.HandlerFunc) httpserv.Route {
		return httpserv.Route{
			Method:     method,
			Path:       basePath + path,
			Handler:    handler,
			Middleware: []httpserv.Middleware{httpserv.Recover, traced(operation)},
		}
	}
	httpserv.RegisterRoutes(mux,
		route(http.MethodPost, "", "Consultation/Create", s.handleCreate),
		route(http.MethodGet, "/{id}", "Consultation/Read", s.withConsultation(s.handleRead)),
		route(http.MethodDelete, "/{id}", "Consultation/Cancel", s.withConsultation(s.handleCancel)),
		route(http.MethodPut, "/{id}/encounter", "Consultation/Encounter", s.withDrafts("Consultation/Encounter", s.handleEncounter)),
		route(http.MethodPost, "/{id}/allergies", "Consultation/AddAllergy", s.withDrafts("Consultation/AddAllergy", s.handleAddAllergy)),
		route(http.MethodPatch, "/{id}/allergies/{entry}", "Consultation/UpdateAllergy", s.withDrafts("Consultation/UpdateAllergy", s.handleUpdateAllergy)),
		route(http.MethodDelete, "/{id}/allergies/{entry}", "Consultation/RemoveAllergy", s.withDrafts("Consultation/RemoveAllergy", s.handleRemoveAllergy)),
		route(http.MethodPost, "/{id}/diagnoses", "Consultation/AddDiagnosis", s.withDrafts("Consultation/AddDiagnosis", s.handleAddDiagnosis)),
		route(http.MethodPatch, "/{id}/diagnoses/{entry}", "Consultation/UpdateDiagnosis", s.withDrafts("Consultation/UpdateDiagnosis", s.handleUpdateDiagnosis)),
		route(http.MethodDelete, "/{id}/diagnoses/{entry}", "Consultation/RemoveDiagnosis", s.withDrafts("Consultation/RemoveDiagnosis", s.handleRemoveDiagnosis)),
		route(http.MethodPost, "/{id}/diagnoses/{entry}/condition", "Consultation/MarkAsCondition", s.withDrafts("Consultation/MarkAsCondition", s.handleMarkAsCondition)),
		route(http.MethodPatch, "/{id}/conditions/{entry}", "Consultation/UpdateCondition", s.withDrafts("Consultation/UpdateCondition", s.handleUpdateCondition)),
		route(http.MethodDelete, "/{id}/conditions/{entry}", "Consultation/RemoveCondition", s.withDrafts("Consultation/RemoveCondition", s.handleRemoveCondition)),
		route(http.MethodPost, "/{id}/servicerequests", "Consultation/AddServiceRequest", s.withDrafts("Consultation/AddServiceRequest", s.handleAddServiceRequest)),
		route(http.MethodPatch, "/{id}/servicerequests/{category}/{entry}", "Consultation/UpdateServiceRequest", s.withDrafts("Consultation/UpdateServiceRequest", s.handleUpdateServiceRequest)),
		route(http.MethodDelete, "/{id}/servicerequests/{category}/{entry}", "Consultation/RemoveServiceRequest", s.withDrafts("Consultation/RemoveServiceRequest", s.handleRemoveServiceRequest)),
		route(http.MethodPost, "/{id}/medications", "Consultation/AddMedication", s.withDrafts("Consultation/AddMedication", s.handleAddMedication)),
		route(http.MethodPatch, "/{id}/medications/{entry}", "Consultation/UpdateMedication", s.withDrafts("Consultation/UpdateMedication", s.handleUpdateMedication)),
		route(http.MethodDelete, "/{id}/medications/{entry}", "Consultation/RemoveMedication", s.withDrafts("Consultation/RemoveMedication", s.handleRemoveMedication)),
		route(http.MethodPost, "/{id}/$submit", "Consultation/Submit", s.withConsultation(s.handleSubmit)),
	)
}

func (s *Service) withConsultation(handler consultationHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id := request.PathValue("id")
		consultation := s.sessions.Get(id)
		if consultation == nil {
			coolfhir.WriteOperationOutcomeFromError(request.Context(), coolfhir.NewErrorWithCode("consultation not found", http.StatusNotFound), "Consultation", writer)
			return
		}
		ctx := logging.AppendCtx(request.Context(), logging.FieldConsultation, id)
		handler(writer, request.WithContext(ctx), consultation)
	}
}

// withDrafts applies the edit and responds with the updated consultation.
// Edits are refused while a submission is in flight, since the submission resets the drafts once it completes.
func (s *Service) withDrafts(operation string, handler draftsHandler) http.HandlerFunc {
	return s.withConsultation(func(writer http.ResponseWriter, request *http.Request, consultation *session.Consultation) {
		var err error
		if !consultation.Edit(func(drafts *draft.Set) {
			err = handler(request, drafts)
		}) {
			writeError(request.Context(), newError(ErrSubmissionInProgress, nil), operation, writer)
			return
		}
		if err != nil {
			coolfhir.WriteOperationOutcomeFromError(request.Context(), err, operation, writer)
			return
		}
		writeJSON(writer, http.StatusOK, newConsultationView(consultation))
	})
}

func (s *Service) handleCreate(writer http.ResponseWriter, request *http.Request) {
	var body createRequest
	if err := decode(request, &body); err != nil {
		coolfhir.WriteOperationOutcomeFromError(request.Context(), err, "Consultation/Create", writer)
		return
	}
	if body.PatientUUID == "" {
		coolfhir.WriteOperationOutcomeFromError(request.Context(), coolfhir.BadRequest("patientUUID is required"), "Consultation/Create", writer)
		return
	}
	consultation := s.sessions.Create(body.PatientUUID)
	writer.Header().Set("Location", basePath+"/"+consultation.ID)
	writeJSON(writer, http.StatusCreated, newConsultationView(consultation))
}

func (s *Service) handleRead(writer http.ResponseWriter, _ *http.Request, consultation *session.Consultation) {
	writeJSON(writer, http.StatusOK, newConsultationView(consultation))
}

func (s *Service) handleCancel(writer http.ResponseWriter, request *http.Request, consultation *session.Consultation) {
	if !consultation.Edit(func(*draft.Set) {
		s.sessions.Destroy(consultation.ID)
	}) {
		writeError(request.Context(), newError(ErrSubmissionInProgress, nil), "Consultation/Cancel", writer)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleEncounter(request *http.Request, drafts *draft.Set) error {
	var body encounterRequest
	if err := decode(request, &body); err != nil {
		return err
	}
	store := drafts.Encounter
	if body.PractitionerUUID != nil {
		store.SetPractitioner(*body.PractitionerUUID)
	}
	if body.Location != nil {
		store.SetLocation(body.Location)
	}
	if body.EncounterType != nil {
		store.SetEncounterType(body.EncounterType)
	}
	if body.VisitType != nil {
		store.SetVisitType(body.VisitType)
	}
	if body.ActiveVisitID != nil {
		store.SetActiveVisit(*body.ActiveVisitID)
	}
	if body.Participants != nil {
		store.SetParticipants(body.Participants)
	}
	if body.ConsultationDate != nil {
		store.SetConsultationDate(*body.ConsultationDate)
	}
	return nil
}

func (s *Service) handleAddAllergy(request *http.Request, drafts *draft.Set) error {
	var body draft.AllergenConcept
	if err := decode(request, &body); err != nil {
		return err
	}
	if body.ID == "" {
		return coolfhir.BadRequest("allergen id is required")
	}
	drafts.Allergies.Add(body)
	return nil
}

func (s *Service) handleUpdateAllergy(request *http.Request, drafts *draft.Set) error {
	var body allergyPatch
	if err := decode(request, &body); err != nil {
		return err
	}
	id := request.PathValue("entry")
	store := drafts.Allergies
	if body.Severity != nil {
		store.UpdateSeverity(id, body.Severity)
	}
	if body.Reactions != nil {
		store.UpdateReactions(id, *body.Reactions)
	}
	if body.Note != nil {
		store.UpdateNote(id, *body.Note)
	}
	return nil
}

func (s *Service) handleRemoveAllergy(request *http.Request, drafts *draft.Set) error {
	drafts.Allergies.Remove(request.PathValue("entry"))
	return nil
}

func (s *Service) handleAddDiagnosis(request *http.Request, drafts *draft.Set) error {
	var body draft.Coding
	if err := decode(request, &body); err != nil {
		return err
	}
	if body.Code == "" {
		return coolfhir.BadRequest("diagnosis code is required")
	}
	drafts.Conditions.AddDiagnosis(body)
	return nil
}

func (s *Service) handleUpdateDiagnosis(request *http.Request, drafts *draft.Set) error {
	var body diagnosisPatch
	if err := decode(request, &body); err != nil {
		return err
	}
	drafts.Conditions.UpdateCertainty(request.PathValue("entry"), body.Certainty)
	return nil
}

func (s *Service) handleRemoveDiagnosis(request *http.Request, drafts *draft.Set) error {
	drafts.Conditions.RemoveDiagnosis(request.PathValue("entry"))
	return nil
}

func (s *Service) handleMarkAsCondition(request *http.Request, drafts *draft.Set) error {
	id := request.PathValue("entry")
	if drafts.Conditions.IsConditionDuplicate(id) {
		return coolfhir.NewErrorWithCode("condition is already on the problem list", http.StatusConflict)
	}
	drafts.Conditions.MarkAsCondition(id)
	return nil
}

func (s *Service) handleUpdateCondition(request *http.Request, drafts *draft.Set) error {
	var body conditionPatch
	if err := decode(request, &body); err != nil {
		return err
	}
	if body.DurationUnit != nil && !body.DurationUnit.Valid() {
		return coolfhir.BadRequest("unsupported duration unit: %s", *body.DurationUnit)
	}
	drafts.Conditions.UpdateConditionDuration(request.PathValue("entry"), body.DurationValue, body.DurationUnit)
	return nil
}

func (s *Service) handleRemoveCondition(request *http.Request, drafts *draft.Set) error {
	drafts.Conditions.RemoveCondition(request.PathValue("entry"))
	return nil
}

func (s *Service) handleAddServiceRequest(request *http.Request, drafts *draft.Set) error {
	var body serviceRequestCreate
	if err := decode(request, &body); err != nil {
		return err
	}
	if body.Category == "" || body.Concept.Code == "" {
		return coolfhir.BadRequest("category and concept code are required")
	}
	drafts.ServiceRequests.Add(body.Category, body.Concept)
	return nil
}

func (s *Service) handleUpdateServiceRequest(request *http.Request, drafts *draft.Set) error {
	var body serviceRequestPatch
	if err := decode(request, &body); err != nil {
		return err
	}
	category, id := request.PathValue("category"), request.PathValue("entry")
	store := drafts.ServiceRequests
	if body.Priority != nil {
		if !body.Priority.Valid() {
			return coolfhir.BadRequest("unsupported priority: %s", *body.Priority)
		}
		store.UpdatePriority(category, id, *body.Priority)
	}
	if body.Note != nil {
		store.UpdateNote(category, id, *body.Note)
	}
	return nil
}

func (s *Service) handleRemoveServiceRequest(request *http.Request, drafts *draft.Set) error {
	drafts.ServiceRequests.Remove(request.PathValue("category"), request.PathValue("entry"))
	return nil
}

func (s *Service) handleAddMedication(request *http.Request, drafts *draft.Set) error {
	var body medicationCreate
	if err := decode(request, &body); err != nil {
		return err
	}
	if body.Medication.ID == "" {
		return coolfhir.BadRequest("medication id is required")
	}
	drafts.Medications.Add(body.Medication, body.Display)
	return nil
}

func (s *Service) handleUpdateMedication(request *http.Request, drafts *draft.Set) error {
	var body medicationPatch
	if err := decode(request, &body); err != nil {
		return err
	}
	id := request.PathValue("entry")
	store := drafts.Medications
	if body.Dosage != nil {
		store.UpdateDosage(id, *body.Dosage)
	}
	if body.DosageUnit != nil {
		store.UpdateDosageUnit(id, body.DosageUnit)
	}
	if body.Frequency != nil {
		store.UpdateFrequency(id, body.Frequency)
	}
	if body.Route != nil {
		store.UpdateRoute(id, body.Route)
	}
	if body.Duration != nil {
		store.UpdateDuration(id, *body.Duration)
	}
	if body.DurationUnit != nil {
		store.UpdateDurationUnit(id, body.DurationUnit)
	}
	if body.Instruction != nil {
		store.UpdateInstruction(id, body.Instruction)
	}
	if body.IsPRN != nil {
		store.UpdateIsPRN(id, *body.IsPRN)
	}
	if body.IsSTAT != nil {
		store.UpdateIsSTAT(id, *body.IsSTAT)
	}
	// an explicit quantity overrides the one calculated from the dosing above
	if body.DispenseQuantity != nil {
		store.UpdateDispenseQuantity(id, *body.DispenseQuantity)
	}
	if body.DispenseUnit != nil {
		store.UpdateDispenseUnit(id, body.DispenseUnit)
	}
	if body.StartDate != nil {
		store.UpdateStartDate(id, *body.StartDate)
	}
	if body.Note != nil {
		store.UpdateNote(id, *body.Note)
	}
	return nil
}

func (s *Service) handleRemoveMedication(request *http.Request, drafts *draft.Set) error {
	drafts.Medications.Remove(request.PathValue("entry"))
	return nil
}

func (s *Service) handleSubmit(writer http.ResponseWriter, request *http.Request, consultation *session.Consultation) {
	result, err := s.Submit(request.Context(), consultation)
	if err != nil {
		writeError(request.Context(), err, "Consultation/Submit", writer)
		return
	}
	s.sessions.Destroy(consultation.ID)
	writeJSON(writer, http.StatusOK, result)
}

func decode(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return coolfhir.BadRequest("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// writeError writes a consultation error as OperationOutcome, with the error key as issue details.
// Issues reported by the EHR are passed on, sanitized. Other errors are written as usual.
func writeError(ctx context.Context, err error, operation string, writer http.ResponseWriter) {
	var consultationErr *Error
	if !errors.As(err, &consultationErr) {
		coolfhir.WriteOperationOutcomeFromError(ctx, err, operation, writer)
		return
	}
	log.Ctx(ctx).Warn().Err(err).Msgf("%s failed", operation)
	issueType := fhir.IssueTypeInvariant
	switch consultationErr.Kind {
	case ErrSubmissionInProgress:
		issueType = fhir.IssueTypeConflict
	case ErrSubmissionFailed:
		issueType = fhir.IssueTypeTransient
	}
	outcome := fhir.OperationOutcome{
		Issue: []fhir.OperationOutcomeIssue{{
			Severity: fhir.IssueSeverityError,
			Code:     issueType,
			Details: coolfhir.CodeableConcept(consultationErr.Kind.Key(),
				coolfhir.Coding(ErrorKeySystem, consultationErr.Kind.Key(), "")),
			Diagnostics: to.Ptr(operation + " failed: " + err.Error()),
		}},
	}
	for _, domain := range consultationErr.Domains {
		outcome.Issue[0].Expression = append(outcome.Issue[0].Expression, string(domain))
	}
	var upstreamErr fhirclient.OperationOutcomeError
	if errors.As(err, &upstreamErr) {
		outcome.Issue = append(outcome.Issue, coolfhir.SanitizeOperationOutcome(upstreamErr.OperationOutcome).Issue...)
	}
	coolfhir.SendResponse(writer, consultationErr.Kind.StatusCode(), outcome)
}
