package coolfhir

// FHIRContentType is the content-type for FHIR payloads
const FHIRContentType = "application/fhir+json"

// Code systems used by clinical resources.
const (
	ConditionCategorySystem           = "http://terminology.hl7.org/CodeSystem/condition-category"
	ConditionVerificationStatusSystem = "http://terminology.hl7.org/CodeSystem/condition-ver-status"
	ConditionClinicalStatusSystem     = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	AllergyClinicalStatusSystem       = "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical"
	ActCodeSystem                     = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	ParticipationTypeSystem           = "http://terminology.hl7.org/CodeSystem/v3-ParticipationType"
)

// OpenMRS specific systems, as served by the OpenMRS FHIR2 module.
const (
	EncounterTagSystem  = "http://fhir.openmrs.org/ext/encounter-tag"
	EncounterTypeSystem = "http://fhir.openmrs.org/code-system/encounter-type"
	VisitTypeSystem     = "http://fhir.openmrs.org/code-system/visit-type"
)
