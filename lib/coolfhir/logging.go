package coolfhir

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bahmni/consultation/lib/logging"
	"github.com/rs/zerolog/log"
)

// unmaskedSearchParameters are search parameters that never identify a patient.
var unmaskedSearchParameters = map[string]bool{
	"_include": true,
	"_sort":    true,
	"_count":   true,
	"_tag":     true,
	"status":   true,
}

// FhirUrlLoggerSanitizer masks the values of query parameters that could identify a patient.
func FhirUrlLoggerSanitizer(in *url.URL) *url.URL {
	result := *in
	q := url.Values{}
	for name, values := range in.Query() {
		for _, value := range values {
			if unmaskedSearchParameters[name] {
				q.Add(name, value)
			} else {
				q.Add(name, "****")
			}
		}
	}
	result.RawQuery = q.Encode()
	return &result
}

var _ http.RoundTripper = &LoggingRoundTripper{}

// LoggingRoundTripper logs every request to the FHIR server at debug level, with a sanitized URL.
type LoggingRoundTripper struct {
	Next http.RoundTripper
}

func (l LoggingRoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	start := time.Now()
	requestURL := FhirUrlLoggerSanitizer(request.URL).String()
	response, err := l.Next.RoundTrip(request)
	if err != nil {
		log.Ctx(request.Context()).Warn().Err(err).
			Str(logging.FieldEndpoint, requestURL).
			Msgf("FHIR request failed (%s)", request.Method)
		return nil, err
	}
	log.Ctx(request.Context()).Debug().
		Str(logging.FieldEndpoint, requestURL).
		Int("status", response.StatusCode).
		Dur("duration", time.Since(start)).
		Msgf("FHIR request (%s)", request.Method)
	return response, nil
}
