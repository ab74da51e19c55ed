package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Check reports the health of a dependency. A nil error means it's healthy.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func New(checks ...Check) *Service {
	return &Service{
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

type Service struct {
	checks  []Check
	timeout time.Duration
}

func (s Service) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealthCheck)
}

func (s Service) handleHealthCheck(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), s.timeout)
	defer cancel()
	result := response{Status: StatusUp}
	status := http.StatusOK
	for _, check := range s.checks {
		if result.Checks == nil {
			result.Checks = make(map[string]string, len(s.checks))
		}
		if err := check.Check(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msgf("Health check %s failed", check.Name)
			result.Checks[check.Name] = StatusDown + ": " + err.Error()
			result.Status = StatusDown
			status = http.StatusServiceUnavailable
			continue
		}
		result.Checks[check.Name] = StatusUp
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(result)
}
