//go:generate mockgen -destination=./lookup_mock.go -package=encounter -source=lookup.go
package encounter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/bahmni/consultation/lib/to"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

const DefaultCacheTTL = 30 * time.Second

// Lookup resolves the encounter a new consultation is attached to.
type Lookup interface {
	// ActiveEncounter returns the in-progress consultation encounter of the patient, or nil if there is none.
	ActiveEncounter(ctx context.Context, patientUUID string) (*fhir.Encounter, error)
	// Invalidate drops the cached encounter of the patient, e.g. after a consultation was saved.
	Invalidate(patientUUID string)
}

var _ Lookup = &FHIRLookup{}

// NewFHIRLookup creates a Lookup that searches the EHR FHIR server. Results (including "no active encounter") are cached for cacheTTL.
func NewFHIRLookup(client fhirclient.Client, cacheTTL time.Duration) *FHIRLookup {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &FHIRLookup{
		client: client,
		cache: ttlcache.New[string, *fhir.Encounter](
			ttlcache.WithTTL[string, *fhir.Encounter](cacheTTL),
			ttlcache.WithDisableTouchOnHit[string, *fhir.Encounter](),
		),
	}
}

type FHIRLookup struct {
	client fhirclient.Client
	cache  *ttlcache.Cache[string, *fhir.Encounter]
}

func (l *FHIRLookup) Start() {
	go l.cache.Start()
}

func (l *FHIRLookup) Stop() {
	l.cache.Stop()
}

func (l *FHIRLookup) ActiveEncounter(ctx context.Context, patientUUID string) (*fhir.Encounter, error) {
	if patientUUID == "" {
		return nil, errors.New("patient UUID is empty")
	}
	if item := l.cache.Get(patientUUID); item != nil {
		return item.Value(), nil
	}
	query := url.Values{
		"subject": []string{"Patient/" + patientUUID},
		"status":  []string{fhir.EncounterStatusInProgress.Code()},
		"_tag":    []string{coolfhir.EncounterTagSystem + "|encounter"},
		"_sort":   []string{"-date"},
		"_count":  []string{"1"},
	}
	var searchSet fhir.Bundle
	if err := l.client.SearchWithContext(ctx, "Encounter", query, &searchSet); err != nil {
		return nil, fmt.Errorf("search active encounter: %w", err)
	}
	var encounters []fhir.Encounter
	if err := coolfhir.ResourcesInBundle(&searchSet, coolfhir.EntryIsOfType("Encounter"), &encounters); err != nil {
		return nil, fmt.Errorf("search active encounter: %w", err)
	}
	var result *fhir.Encounter
	if len(encounters) > 0 {
		result = &encounters[0]
		log.Ctx(ctx).Debug().
			Str(logging.FieldPatient, patientUUID).
			Str(logging.FieldResourceReference, "Encounter/"+to.EmptyString(result.Id)).
			Msg("Found active encounter")
	}
	l.cache.Set(patientUUID, result, ttlcache.DefaultTTL)
	return result, nil
}

func (l *FHIRLookup) Invalidate(patientUUID string) {
	l.cache.Delete(patientUUID)
}
