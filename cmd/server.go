package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bahmni/consultation/consultation"
	"github.com/bahmni/consultation/encounter"
	"github.com/bahmni/consultation/events"
	"github.com/bahmni/consultation/healthcheck"
	"github.com/bahmni/consultation/lib/breaker"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/bahmni/consultation/lib/metrics"
	"github.com/bahmni/consultation/lib/otel"
	"github.com/bahmni/consultation/messaging"
	"github.com/bahmni/consultation/notification"
	"github.com/bahmni/consultation/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	baseotel "go.opentelemetry.io/otel"
)

const shutdownTimeout = 10 * time.Second

// Start runs the consultation server until the context is cancelled or the process is interrupted.
func Start(ctx context.Context, config Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Configure(config.LogLevel, config.LogFormat)
	tracerProvider, err := otel.Initialize(ctx, config.OpenTelemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to shut down tracer provider")
		}
	}()

	// Set up dependencies
	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)
	circuitBreaker := breaker.New("ehr", config.CircuitBreaker, consultation.IsTransportFailure, func(name string, state gobreaker.State) {
		appMetrics.CircuitBreakerState.WithLabelValues(name).Set(breaker.StateValue(state))
	})
	_, fhirClient, err := coolfhir.NewAuthRoundTripper(config.FHIR, coolfhir.Config())
	if err != nil {
		return fmt.Errorf("failed to create FHIR client: %w", err)
	}
	fhirClient = coolfhir.NewTracedFHIRClient(fhirClient, baseotel.Tracer("fhir-client"))

	messageBroker, err := messaging.New(config.Messaging, []messaging.Topic{notification.ConsultationSavedTopic})
	if err != nil {
		return fmt.Errorf("failed to create message broker: %w", err)
	}
	defer func() {
		if err := messageBroker.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close message broker")
		}
	}()
	notifier, err := notification.New(events.NewManager(messageBroker), notification.NewStream())
	if err != nil {
		return fmt.Errorf("failed to create notification service: %w", err)
	}

	sessions := session.NewManager(config.Session.Lifetime)
	go sessions.Start()
	defer sessions.Close()
	encounters := encounter.NewFHIRLookup(fhirClient, config.Encounter.CacheTTL)
	encounters.Start()
	defer encounters.Stop()

	consultationService := consultation.New(sessions, encounters,
		consultation.NewFHIRTransport(fhirClient, config.FHIR.SubmitPath, circuitBreaker), notifier, appMetrics)
	healthService := healthcheck.New(healthcheck.Check{
		Name: "ehr",
		Check: func(context.Context) error {
			if circuitBreaker.State() == gobreaker.StateOpen {
				return breaker.ErrOpen
			}
			return nil
		},
	})

	// Register services
	httpHandler := http.NewServeMux()
	services := []Service{consultationService, notifier, healthService, appMetrics}
	for _, service := range services {
		service.RegisterHandlers(httpHandler)
	}

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    config.Public.Address,
		Handler: httpHandler,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("Public interface listens on %s", config.Public.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

type Service interface {
	RegisterHandlers(mux *http.ServeMux)
}
