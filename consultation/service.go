package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/encounter"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/bahmni/consultation/lib/metrics"
	"github.com/bahmni/consultation/lib/otel"
	"github.com/bahmni/consultation/notification"
	"github.com/bahmni/consultation/session"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
	baseotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = baseotel.Tracer("consultation")

// SubmitResult describes a consultation that was accepted by the EHR.
type SubmitResult struct {
	EncounterReference string                        `json:"encounterReference"`
	UpdatedResources   notification.UpdatedResources `json:"updatedResources"`
	// Response is the transaction-response Bundle of the EHR.
	Response *fhir.Bundle `json:"-"`
}

func New(sessions *session.Manager, encounters encounter.Lookup, transport Transport,
	dispatcher notification.Dispatcher, submissionMetrics *metrics.Metrics) *Service {
	if submissionMetrics == nil {
		submissionMetrics = metrics.NewUnregistered()
	}
	return &Service{
		sessions:   sessions,
		encounters: encounters,
		assembler:  NewAssembler(),
		transport:  transport,
		dispatcher: dispatcher,
		metrics:    submissionMetrics,
	}
}

// Service authors and submits consultations.
type Service struct {
	sessions   *session.Manager
	encounters encounter.Lookup
	assembler  *Assembler
	transport  Transport
	dispatcher notification.Dispatcher
	metrics    *metrics.Metrics
}

// Submit validates the drafts of the consultation, assembles them into one transaction bundle and submits it to the EHR.
// On success the drafts are reset and a ConsultationSaved notification is dispatched.
// On failure the drafts are left untouched, so the submission can be retried.
// Only one submission per consultation can be in flight.
func (s *Service) Submit(ctx context.Context, consultation *session.Consultation) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "consultation.submit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(otel.ConsultationID, consultation.ID),
			attribute.String(otel.ConsultationPatient, consultation.PatientUUID),
		),
	)
	defer span.End()
	ctx = logging.AppendCtx(ctx, logging.FieldConsultation, consultation.ID)

	if !consultation.BeginSubmission() {
		return nil, s.fail(span, metrics.OutcomeInProgress, newError(ErrSubmissionInProgress, nil))
	}
	defer consultation.EndSubmission()

	if invalid := draft.Invalid(consultation.Drafts.ValidateAll()); len(invalid) > 0 {
		domains := make([]string, len(invalid))
		for i, domain := range invalid {
			domains[i] = string(domain)
		}
		span.AddEvent(otel.ValidationFailed, trace.WithAttributes(attribute.StringSlice("consultation.domains", domains)))
		log.Ctx(ctx).Info().Strs(logging.FieldDomain, domains).Msg("Consultation drafts are invalid, not submitting")
		return nil, s.fail(span, metrics.OutcomeValidationFailed, &Error{Kind: ErrValidationFailed, Domains: invalid})
	}
	drafts := consultation.Drafts.Snapshot()

	activeEncounter, err := s.encounters.ActiveEncounter(ctx, consultation.PatientUUID)
	if err != nil {
		return nil, s.fail(span, metrics.OutcomeFailed, newError(ErrSubmissionFailed, fmt.Errorf("active encounter lookup: %w", err)))
	}
	assembly, err := s.assembler.Assemble(drafts, activeEncounter)
	if err != nil {
		return nil, s.fail(span, metrics.OutcomeValidationFailed, err)
	}
	span.AddEvent(otel.BundleAssembled, trace.WithAttributes(
		attribute.Int(otel.FHIRBundleEntryCount, len(assembly.Bundle.Entry)),
		attribute.String(otel.ConsultationEncounter, assembly.EncounterReference),
		attribute.String(otel.ConsultationEncounterMethod, assembly.EncounterMethod.Code()),
	))
	log.Ctx(ctx).Debug().
		Int(logging.FieldCount, len(assembly.Bundle.Entry)).
		Str(logging.FieldEncounterRef, assembly.EncounterReference).
		Str(logging.FieldEncounterMethod, assembly.EncounterMethod.Code()).
		Msg("Assembled consultation bundle")

	start := time.Now()
	response, err := s.transport.Submit(ctx, assembly.Bundle)
	s.metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := metrics.OutcomeFailed
		if !IsTransportFailure(err) {
			outcome = metrics.OutcomeRejected
		}
		return nil, s.fail(span, outcome, newError(ErrSubmissionFailed, err))
	}
	span.AddEvent(otel.TransactionExecuted)
	s.metrics.BundleEntries.Observe(float64(len(assembly.Bundle.Entry)))
	s.metrics.Submissions.WithLabelValues(metrics.OutcomeSubmitted).Inc()
	span.SetAttributes(attribute.String(otel.ConsultationOutcome, metrics.OutcomeSubmitted))

	consultation.Drafts.Reset()
	s.encounters.Invalidate(consultation.PatientUUID)
	log.Ctx(ctx).Info().
		Str(logging.FieldPatient, consultation.PatientUUID).
		Str(logging.FieldEncounterRef, assembly.EncounterReference).
		Msg("Consultation saved")

	result := &SubmitResult{
		EncounterReference: assembly.EncounterReference,
		UpdatedResources:   assembly.UpdatedResources,
		Response:           response,
	}
	s.notify(ctx, span, consultation, result)
	return result, nil
}

// notify dispatches ConsultationSaved. The consultation is already saved, so failures are only logged.
func (s *Service) notify(ctx context.Context, span trace.Span, consultation *session.Consultation, result *SubmitResult) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.DispatchConsultationSaved(ctx, notification.ConsultationSaved{
		ConsultationID:     consultation.ID,
		PatientUUID:        consultation.PatientUUID,
		EncounterReference: result.EncounterReference,
		UpdatedResources:   result.UpdatedResources,
	})
	if err != nil {
		s.metrics.Notifications.WithLabelValues("failed").Inc()
		span.AddEvent(otel.NotificationFailed, trace.WithAttributes(attribute.String("error", err.Error())))
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to dispatch ConsultationSaved")
		return
	}
	s.metrics.Notifications.WithLabelValues("dispatched").Inc()
}

func (s *Service) fail(span trace.Span, outcome string, err error) error {
	s.metrics.Submissions.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String(otel.ConsultationOutcome, outcome))
	var consultationErr *Error
	if errors.As(err, &consultationErr) {
		return otel.Error(span, err, attribute.String(otel.ConsultationErrorKind, consultationErr.Kind.Key()))
	}
	return otel.Error(span, err)
}
