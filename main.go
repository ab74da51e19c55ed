package main

import (
	"context"

	"github.com/bahmni/consultation/cmd"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cmd.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Consultation failed")
	}
	log.Info().Msg("Goodbye!")
}
