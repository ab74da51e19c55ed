package session

import (
	"sync"
	"testing"
	"time"

	"github.com/bahmni/consultation/draft"
	"github.com/stretchr/testify/require"
)

// Test_Manager_Lifecycle creates a consultation, retrieves it, destroys it and verifies that its drafts are gone.
func Test_Manager_Lifecycle(t *testing.T) {
	manager := NewManager(time.Minute)
	defer manager.Close()

	consultation := manager.Create("patient-uuid")
	require.NotEmpty(t, consultation.ID)
	require.Equal(t, "patient-uuid", consultation.PatientUUID)
	require.Equal(t, "patient-uuid", consultation.Drafts.Encounter.Details().PatientUUID)
	require.Equal(t, 1, manager.Count())

	other := manager.Create("other-patient-uuid")
	require.NotEqual(t, consultation.ID, other.ID)

	retrieved := manager.Get(consultation.ID)
	require.Same(t, consultation, retrieved)
	retrieved.Drafts.Allergies.Add(draft.AllergenConcept{ID: "peanut-uuid", Type: draft.AllergenFood})

	manager.Destroy(consultation.ID)

	require.Nil(t, manager.Get(consultation.ID))
	require.Empty(t, consultation.Drafts.Allergies.Entries())
	require.Equal(t, 1, manager.Count())
	require.Same(t, other, manager.Get(other.ID))

	t.Run("destroy unknown consultation", func(t *testing.T) {
		manager.Destroy("unknown")
		require.Equal(t, 1, manager.Count())
	})
}

func Test_Manager_Expiry(t *testing.T) {
	manager := NewManager(50 * time.Millisecond)
	go manager.Start()
	defer manager.Close()

	consultation := manager.Create("patient-uuid")
	consultation.Drafts.Allergies.Add(draft.AllergenConcept{ID: "peanut-uuid", Type: draft.AllergenFood})

	require.Eventually(t, func() bool {
		return len(consultation.Drafts.Allergies.Entries()) == 0
	}, time.Second, 10*time.Millisecond)
	require.Nil(t, manager.Get(consultation.ID))
}

func Test_Consultation_Submission(t *testing.T) {
	consultation := NewManager(time.Minute).Create("patient-uuid")

	require.True(t, consultation.BeginSubmission())
	require.True(t, consultation.Submitting())
	require.False(t, consultation.BeginSubmission())

	consultation.EndSubmission()
	require.False(t, consultation.Submitting())

	t.Run("concurrent submissions", func(t *testing.T) {
		var started int32
		var mux sync.Mutex
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if consultation.BeginSubmission() {
					mux.Lock()
					started++
					mux.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), started)
	})
}

func Test_Consultation_Edit(t *testing.T) {
	consultation := NewManager(time.Minute).Create("patient-uuid")
	peanut := draft.AllergenConcept{ID: "peanut-uuid", Display: "Peanut", Type: draft.AllergenFood}

	t.Run("applied when idle", func(t *testing.T) {
		applied := consultation.Edit(func(drafts *draft.Set) {
			drafts.Allergies.Add(peanut)
		})

		require.True(t, applied)
		require.Len(t, consultation.Drafts.Allergies.Entries(), 1)
	})
	t.Run("refused while submitting", func(t *testing.T) {
		require.True(t, consultation.BeginSubmission())
		defer consultation.EndSubmission()

		applied := consultation.Edit(func(drafts *draft.Set) {
			drafts.Allergies.Remove(peanut.ID)
		})

		require.False(t, applied)
		require.Len(t, consultation.Drafts.Allergies.Entries(), 1)
	})
	t.Run("submission waits for a running edit", func(t *testing.T) {
		editing := make(chan struct{})
		release := make(chan struct{})
		done := make(chan bool)
		go func() {
			done <- consultation.Edit(func(drafts *draft.Set) {
				close(editing)
				<-release
				drafts.Allergies.Remove(peanut.ID)
			})
		}()
		<-editing
		began := make(chan bool)
		go func() {
			began <- consultation.BeginSubmission()
		}()
		close(release)

		require.True(t, <-done)
		require.True(t, <-began)
		require.Empty(t, consultation.Drafts.Allergies.Entries())
		consultation.EndSubmission()
	})
}
