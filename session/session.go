// Package session keeps the consultations that are being authored.
// Every consultation owns its own draft.Set, so concurrent consultations never share draft state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
)

// DefaultLifetime is how long an untouched consultation is kept.
const DefaultLifetime = 2 * time.Hour

// Consultation is a consultation being authored for a patient.
type Consultation struct {
	ID          string
	PatientUUID string
	Drafts      *draft.Set
	CreatedAt   time.Time

	// mux guards submitting. Edits hold the read lock, so they either complete before a submission starts or are refused.
	mux        sync.RWMutex
	submitting bool
}

// BeginSubmission marks the consultation as being submitted. It returns false if a submission is already in flight.
// It waits for edits that are being applied.
func (c *Consultation) BeginSubmission() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.submitting {
		return false
	}
	c.submitting = true
	return true
}

func (c *Consultation) EndSubmission() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.submitting = false
}

func (c *Consultation) Submitting() bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.submitting
}

// Edit applies fn to the drafts, unless a submission is in flight. It returns false if fn was not applied.
// Edits may run concurrently with each other; the draft stores serialize them.
func (c *Consultation) Edit(fn func(drafts *draft.Set)) bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	if c.submitting {
		return false
	}
	fn(c.Drafts)
	return true
}

// Manager holds consultations in memory. Consultations expire after the configured lifetime without access.
type Manager struct {
	store *ttlcache.Cache[string, *Consultation]
	newID func() string
}

func NewManager(lifetime time.Duration) *Manager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	store := ttlcache.New[string, *Consultation](
		ttlcache.WithTTL[string, *Consultation](lifetime),
	)
	store.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Consultation]) {
		// draft state must not outlive the consultation
		item.Value().Drafts.Reset()
		if reason == ttlcache.EvictionReasonExpired {
			log.Info().
				Str(logging.FieldConsultation, item.Key()).
				Msg("Consultation expired, discarded its drafts")
		}
	})
	return &Manager{
		store: store,
		newID: uuid.NewString,
	}
}

// Start removes expired consultations until Close is called. It blocks, so it's typically called in a goroutine.
func (m *Manager) Start() {
	m.store.Start()
}

func (m *Manager) Close() {
	m.store.Stop()
}

// Create starts a new consultation for the patient, with empty drafts.
func (m *Manager) Create(patientUUID string) *Consultation {
	consultation := &Consultation{
		ID:          m.newID(),
		PatientUUID: patientUUID,
		Drafts:      draft.NewSet(),
		CreatedAt:   time.Now(),
	}
	consultation.Drafts.Encounter.SetPatient(patientUUID)
	m.store.Set(consultation.ID, consultation, ttlcache.DefaultTTL)
	log.Info().
		Str(logging.FieldConsultation, consultation.ID).
		Str(logging.FieldPatient, patientUUID).
		Msg("Consultation started")
	return consultation
}

// Get returns the consultation and extends its lifetime, or nil if it doesn't exist (anymore).
func (m *Manager) Get(id string) *Consultation {
	item := m.store.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Destroy resets the consultation's drafts and removes it. Destroying an unknown consultation is a no-op.
func (m *Manager) Destroy(id string) {
	item := m.store.Get(id, ttlcache.WithDisableTouchOnHit[string, *Consultation]())
	if item == nil {
		return
	}
	log.Info().Str(logging.FieldConsultation, id).Msg("Destroying consultation")
	item.Value().Drafts.Reset()
	m.store.Delete(id)
}

func (m *Manager) Count() int {
	return m.store.Len()
}
