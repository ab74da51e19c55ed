package logging

// Common log field keys used throughout the application
const (
	FieldCategory          = "category"
	FieldConsultation      = "consultation_id"
	FieldCount             = "count"
	FieldDomain            = "domain"
	FieldEncounterMethod   = "encounter_method"
	FieldEncounterRef      = "encounter_reference"
	FieldEndpoint          = "endpoint"
	FieldPatient           = "patient"
	FieldPath              = "path"
	FieldResourceReference = "resource_reference"
	FieldResourceType      = "resource_type"
	FieldSpanID            = "span_id"
	FieldTopic             = "topic"
	FieldTraceID           = "trace_id"
)
