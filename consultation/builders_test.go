package consultation

import (
	"testing"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

type domainBuilder struct {
	name string
	kind ErrorKind
	// subject is the property that references the patient
	subject string
	// valid builds entries that pass the domain checks
	valid func(c BundleContext) ([]fhir.BundleEntry, error)
	// invalid builds entries that fail the domain checks
	invalid func(c BundleContext) ([]fhir.BundleEntry, error)
}

func domainBuilders() []domainBuilder {
	return []domainBuilder{
		{
			name:    "diagnoses",
			subject: "subject",
			kind:    ErrInvalidDiagnosisParams,
			valid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateDiagnosisBundleEntries(c, []draft.DiagnosisEntry{
					{ID: "fever-uuid", Display: "Fever", SelectedCertainty: &draft.Coding{Code: "confirmed"}},
				})
			},
			invalid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateDiagnosisBundleEntries(c, []draft.DiagnosisEntry{{ID: "fever-uuid"}})
			},
		},
		{
			name:    "allergies",
			subject: "patient",
			kind:    ErrInvalidAllergyParams,
			valid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateAllergyBundleEntries(c, []draft.AllergyEntry{{
					ID:                "peanut-uuid",
					Type:              draft.AllergenFood,
					SelectedSeverity:  &draft.Coding{Code: "mild"},
					SelectedReactions: []draft.Coding{{Code: "hives-uuid"}},
				}})
			},
			invalid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateAllergyBundleEntries(c, []draft.AllergyEntry{{
					ID:               "peanut-uuid",
					Type:             draft.AllergenFood,
					SelectedSeverity: &draft.Coding{Code: "mild"},
				}})
			},
		},
		{
			name:    "conditions",
			subject: "subject",
			kind:    ErrInvalidConditionParams,
			valid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateConditionBundleEntries(c, []draft.ConditionEntry{{
					ID:            "diabetes-uuid",
					DurationValue: to.Ptr(3),
					DurationUnit:  to.Ptr(draft.DurationMonths),
				}})
			},
			invalid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateConditionBundleEntries(c, []draft.ConditionEntry{{ID: "diabetes-uuid", DurationValue: to.Ptr(3)}})
			},
		},
		{
			name:    "service requests",
			subject: "subject",
			kind:    ErrInvalidServiceRequestParams,
			valid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateServiceRequestBundleEntries(c, draft.ServiceRequestsByCategory{
					{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{{ID: "cbc-uuid", SelectedPriority: draft.PriorityStat}}},
				})
			},
			invalid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateServiceRequestBundleEntries(c, draft.ServiceRequestsByCategory{
					{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{{SelectedPriority: draft.PriorityRoutine}}},
				})
			},
		},
		{
			name:    "medications",
			subject: "subject",
			kind:    ErrInvalidMedicationParams,
			valid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateMedicationBundleEntries(c, []draft.MedicationEntry{{
					ID:         "paracetamol-uuid",
					Medication: draft.Medication{ID: "paracetamol-uuid", Name: "Paracetamol"},
					Dosage:     1,
					IsSTAT:     true,
					StartDate:  consultationDate,
				}})
			},
			invalid: func(c BundleContext) ([]fhir.BundleEntry, error) {
				return CreateMedicationBundleEntries(c, []draft.MedicationEntry{{ID: "paracetamol-uuid"}})
			},
		},
	}
}

func TestBundleBuilders_Preconditions(t *testing.T) {
	for _, builder := range domainBuilders() {
		t.Run(builder.name, func(t *testing.T) {
			t.Run("missing subject is reported first", func(t *testing.T) {
				c := validBundleContext()
				c.EncounterSubject = nil
				c.EncounterReference = ""
				c.PractitionerUUID = ""

				_, err := builder.invalid(c)

				require.ErrorIs(t, err, ErrInvalidEncounterSubject)
			})
			t.Run("subject without reference", func(t *testing.T) {
				c := validBundleContext()
				c.EncounterSubject = &fhir.Reference{Reference: to.Ptr("  ")}

				_, err := builder.valid(c)

				require.ErrorIs(t, err, ErrInvalidEncounterSubject)
			})
			t.Run("missing encounter reference before practitioner", func(t *testing.T) {
				c := validBundleContext()
				c.EncounterReference = ""
				c.PractitionerUUID = ""

				_, err := builder.invalid(c)

				require.ErrorIs(t, err, ErrInvalidEncounterReference)
			})
			t.Run("missing practitioner before domain checks", func(t *testing.T) {
				c := validBundleContext()
				c.PractitionerUUID = ""

				_, err := builder.invalid(c)

				require.ErrorIs(t, err, ErrInvalidPractitioner)
			})
			t.Run("domain checks", func(t *testing.T) {
				_, err := builder.invalid(validBundleContext())

				require.ErrorIs(t, err, builder.kind)
			})
			t.Run("valid", func(t *testing.T) {
				entries, err := builder.valid(validBundleContext())

				require.NoError(t, err)
				require.Len(t, entries, 1)
				assert.Equal(t, fhir.HTTPVerbPOST, entries[0].Request.Method)
				assert.Equal(t, "urn:uuid:id-1", *entries[0].FullUrl)
				resource := entryResource(t, entries[0])
				assert.Equal(t, entries[0].Request.Url, resource["resourceType"])
				assert.Equal(t, "urn:uuid:encounter-placeholder", referenceOf(t, resource, "encounter"))
				assert.Equal(t, "Patient/patient-uuid", referenceOf(t, resource, builder.subject))
			})
			t.Run("no entries", func(t *testing.T) {
				noEntries := func(c BundleContext) ([]fhir.BundleEntry, error) {
					switch builder.kind {
					case ErrInvalidDiagnosisParams:
						return CreateDiagnosisBundleEntries(c, nil)
					case ErrInvalidAllergyParams:
						return CreateAllergyBundleEntries(c, nil)
					case ErrInvalidConditionParams:
						return CreateConditionBundleEntries(c, nil)
					case ErrInvalidServiceRequestParams:
						return CreateServiceRequestBundleEntries(c, nil)
					default:
						return CreateMedicationBundleEntries(c, nil)
					}
				}
				entries, err := noEntries(validBundleContext())

				require.NoError(t, err)
				assert.Empty(t, entries)
			})
		})
	}
}

func TestCreateDiagnosisBundleEntries(t *testing.T) {
	t.Run("every resource gets its own placeholder", func(t *testing.T) {
		entries, err := CreateDiagnosisBundleEntries(validBundleContext(), []draft.DiagnosisEntry{
			{ID: "fever-uuid", SelectedCertainty: &draft.Coding{Code: "confirmed"}},
			{ID: "cough-uuid", SelectedCertainty: &draft.Coding{Code: "provisional"}},
		})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "urn:uuid:id-1", *entries[0].FullUrl)
		assert.Equal(t, "urn:uuid:id-2", *entries[1].FullUrl)
	})
	t.Run("recorder is the practitioner", func(t *testing.T) {
		entries, err := CreateDiagnosisBundleEntries(validBundleContext(), []draft.DiagnosisEntry{
			{ID: "fever-uuid", SelectedCertainty: &draft.Coding{Code: "confirmed"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "Practitioner/practitioner-uuid", referenceOf(t, entryResource(t, entries[0]), "recorder"))
	})
	t.Run("one invalid diagnosis fails all", func(t *testing.T) {
		entries, err := CreateDiagnosisBundleEntries(validBundleContext(), []draft.DiagnosisEntry{
			{ID: "fever-uuid", SelectedCertainty: &draft.Coding{Code: "confirmed"}},
			{ID: "cough-uuid", SelectedCertainty: &draft.Coding{}},
		})

		require.ErrorIs(t, err, ErrInvalidDiagnosisParams)
		require.ErrorContains(t, err, "diagnosis cough-uuid: certainty is not set")
		assert.Nil(t, entries)
	})
}

func TestCreateAllergyBundleEntries(t *testing.T) {
	t.Run("missing severity", func(t *testing.T) {
		_, err := CreateAllergyBundleEntries(validBundleContext(), []draft.AllergyEntry{{
			ID:                "peanut-uuid",
			SelectedReactions: []draft.Coding{{Code: "hives-uuid"}},
		}})

		require.ErrorIs(t, err, ErrInvalidAllergyParams)
		require.ErrorContains(t, err, "severity is not set")
	})
	t.Run("unknown severity", func(t *testing.T) {
		_, err := CreateAllergyBundleEntries(validBundleContext(), []draft.AllergyEntry{{
			ID:                "peanut-uuid",
			Type:              draft.AllergenFood,
			SelectedSeverity:  &draft.Coding{Code: "deadly"},
			SelectedReactions: []draft.Coding{{Code: "hives-uuid"}},
		}})

		require.ErrorIs(t, err, ErrInvalidAllergyParams)
	})
}

func TestCreateConditionBundleEntries(t *testing.T) {
	t.Run("onset is counted back from the consultation date", func(t *testing.T) {
		entries, err := CreateConditionBundleEntries(validBundleContext(), []draft.ConditionEntry{{
			ID:            "diabetes-uuid",
			DurationValue: to.Ptr(2),
			DurationUnit:  to.Ptr(draft.DurationYears),
		}})

		require.NoError(t, err)
		assert.Equal(t, "2023-01-15T10:30:00.000Z", entryResource(t, entries[0])["onsetDateTime"])
	})
	t.Run("missing duration value", func(t *testing.T) {
		_, err := CreateConditionBundleEntries(validBundleContext(), []draft.ConditionEntry{{
			ID:           "diabetes-uuid",
			DurationUnit: to.Ptr(draft.DurationDays),
		}})

		require.ErrorIs(t, err, ErrInvalidConditionParams)
	})
}

func TestCreateServiceRequestBundleEntries(t *testing.T) {
	cbc := draft.ServiceRequestEntry{ID: "cbc-uuid", Display: "CBC", SelectedPriority: draft.PriorityRoutine}
	xray := draft.ServiceRequestEntry{ID: "xray-uuid", Display: "X-Ray", SelectedPriority: draft.PriorityStat}

	t.Run("only empty categories", func(t *testing.T) {
		entries, err := CreateServiceRequestBundleEntries(validBundleContext(), draft.ServiceRequestsByCategory{
			{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{}},
			{Category: "Radiology Order", Entries: nil},
		})

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
	t.Run("populated and empty category", func(t *testing.T) {
		entries, err := CreateServiceRequestBundleEntries(validBundleContext(), draft.ServiceRequestsByCategory{
			{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{cbc}},
			{Category: "Radiology Order", Entries: nil},
		})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "ServiceRequest", entries[0].Request.Url)
	})
	t.Run("category order is kept", func(t *testing.T) {
		entries, err := CreateServiceRequestBundleEntries(validBundleContext(), draft.ServiceRequestsByCategory{
			{Category: "Radiology Order", Entries: []draft.ServiceRequestEntry{xray}},
			{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{cbc}},
		})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "stat", entryResource(t, entries[0])["priority"])
		assert.Equal(t, "routine", entryResource(t, entries[1])["priority"])
	})
	t.Run("requester is the practitioner", func(t *testing.T) {
		entries, err := CreateServiceRequestBundleEntries(validBundleContext(), draft.ServiceRequestsByCategory{
			{Category: "Lab Order", Entries: []draft.ServiceRequestEntry{cbc}},
		})

		require.NoError(t, err)
		assert.Equal(t, "Practitioner/practitioner-uuid", referenceOf(t, entryResource(t, entries[0]), "requester"))
	})
}

func TestCreateMedicationBundleEntries(t *testing.T) {
	t.Run("missing drug", func(t *testing.T) {
		_, err := CreateMedicationBundleEntries(validBundleContext(), []draft.MedicationEntry{{ID: "paracetamol-uuid", Dosage: 1}})

		require.ErrorIs(t, err, ErrInvalidMedicationParams)
		require.ErrorContains(t, err, "drug is not set")
	})
}
