package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bahmni/consultation/consultation"
	"github.com/bahmni/consultation/draft"
	"github.com/bahmni/consultation/lib/to"
	"github.com/spf13/cobra"
	"github.com/zorgbijjou/golang-fhir-models/fhir-models/fhir"
)

func assembleCommand() *cobra.Command {
	var activeEncounterID string
	command := &cobra.Command{
		Use:   "assemble <drafts.json>",
		Short: "Print the transaction bundle for the drafts in the given file, without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return assemble(command.OutOrStdout(), args[0], activeEncounterID)
		},
	}
	command.Flags().StringVar(&activeEncounterID, "active-encounter", "",
		"ID of the patient's active encounter, which is then updated instead of created")
	return command
}

func assemble(out io.Writer, draftsFile string, activeEncounterID string) error {
	data, err := os.ReadFile(draftsFile)
	if err != nil {
		return fmt.Errorf("read drafts: %w", err)
	}
	var drafts draft.Snapshot
	if err := json.Unmarshal(data, &drafts); err != nil {
		return fmt.Errorf("parse drafts: %w", err)
	}
	var activeEncounter *fhir.Encounter
	if activeEncounterID != "" {
		activeEncounter = &fhir.Encounter{Id: to.Ptr(activeEncounterID)}
	}
	assembly, err := consultation.NewAssembler().Assemble(drafts, activeEncounter)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(assembly.Bundle)
}
