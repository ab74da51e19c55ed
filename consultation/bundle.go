package consultation

import (
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/to"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

// undefinedID is the id used for an active encounter without id. Such an encounter can't be updated meaningfully,
// the PUT entry is still produced so the FHIR server rejects the transaction.
const undefinedID = "undefined"

// CreateBundleEntry wraps the resource in a transaction entry. An empty resourceURL defaults to the resource type.
func CreateBundleEntry(fullURL string, resource any, method fhir.HTTPVerb, resourceURL string) (fhir.BundleEntry, error) {
	return coolfhir.NewBundleEntry(fullURL, resource, method, resourceURL)
}

// CreateEncounterBundleEntry creates the entry for the consultation encounter.
// Without an active encounter, the encounter is created (POST) under a fresh placeholder fullUrl.
// Otherwise the active encounter is replaced (PUT) and the resource takes over its id.
func CreateEncounterBundleEntry(activeEncounter *fhir.Encounter, encounter fhir.Encounter, newID func() string) (fhir.BundleEntry, error) {
	if activeEncounter == nil {
		return CreateBundleEntry(coolfhir.URNUUIDPrefix+newID(), encounter, fhir.HTTPVerbPOST, "Encounter")
	}
	id := activeEncounterID(activeEncounter)
	if id == undefinedID {
		log.Warn().Msg("Active encounter has no id, the encounter entry will be Encounter/undefined")
	}
	encounter.Id = to.Ptr(id)
	return CreateBundleEntry("Encounter/"+id, encounter, fhir.HTTPVerbPUT, "Encounter/"+id)
}

// GetEncounterReference returns the reference the resources of a consultation use for its encounter:
// the active encounter if there is one, otherwise the placeholder of the encounter entry.
func GetEncounterReference(activeEncounter *fhir.Encounter, placeholder string) string {
	if activeEncounter == nil {
		return placeholder
	}
	return "Encounter/" + activeEncounterID(activeEncounter)
}

func activeEncounterID(activeEncounter *fhir.Encounter) string {
	if activeEncounter.Id == nil {
		return undefinedID
	}
	return *activeEncounter.Id
}
