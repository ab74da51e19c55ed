package otel

// Attribute keys used across the service.
const (
	// FHIR attributes
	FHIROperation        = "fhir.operation"
	FHIRPath             = "fhir.path"
	FHIRResourceType     = "fhir.resource_type"
	FHIRSearchParamCount = "fhir.search.param_count"
	FHIRBundleType       = "fhir.bundle.type"
	FHIRBundleEntryCount = "fhir.bundle.entry_count"

	// Consultation attributes
	ConsultationID              = "consultation.id"
	ConsultationPatient         = "consultation.patient"
	ConsultationEncounter       = "consultation.encounter_reference"
	ConsultationEncounterMethod = "consultation.encounter_method"
	ConsultationOutcome         = "consultation.outcome"
	ConsultationErrorKind       = "consultation.error_kind"

	// Messaging attributes
	MessagingDestination = "messaging.destination"
	MessagingSystem      = "messaging.system"
)

// Span events
const (
	ValidationFailed    = "consultation.validation.failed"
	BundleAssembled     = "consultation.bundle.assembled"
	TransactionExecuted = "consultation.transaction.executed"
	NotificationFailed  = "consultation.notification.failed"
)
