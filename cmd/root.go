package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the consultation command line, with the serve and assemble commands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "consultation",
		Short:         "Authors consultations and submits them to the EHR as one FHIR transaction bundle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand())
	root.AddCommand(assembleCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the consultation server",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			config, err := LoadConfig()
			if err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				return err
			}
			log.Info().Msgf("Submitting consultations to %s", config.FHIR.BaseURL)
			return Start(command.Context(), *config)
		},
	}
}
