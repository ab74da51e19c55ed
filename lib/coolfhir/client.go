package coolfhir

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	fhirclient "github.com/SanteonNL/go-fhir-client"
	"github.com/rs/zerolog/log"
)

const AzureManagedIdentity = "azure-managedidentity"

type ClientConfig struct {
	// BaseURL is the base URL of the FHIR server to connect to.
	BaseURL string `koanf:"url"`
	// Auth is the authentication configuration for the FHIR server.
	Auth AuthConfig `koanf:"auth"`
	// SubmitPath is the path, relative to BaseURL, transaction bundles are posted to.
	SubmitPath string `koanf:"submitpath"`
}

func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("fhir.url is not configured")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid fhir.url: %w", err)
	}
	switch c.Auth.Type {
	case "", AzureManagedIdentity:
	default:
		return fmt.Errorf("invalid FHIR authentication type: %s", c.Auth.Type)
	}
	return nil
}

type AuthConfig struct {
	// Type of authentication to use, supported options: azure-managedidentity.
	// Leave empty for no authentication.
	Type         string   `koanf:"type"`
	OAuth2Scopes []string `koanf:"scopes"`
}

func Config() *fhirclient.Config {
	config := fhirclient.DefaultConfig()
	config.DefaultOptions = []fhirclient.Option{
		fhirclient.RequestHeaders(map[string][]string{
			"Cache-Control": {"no-cache"},
		}),
	}
	config.Non2xxStatusHandler = func(response *http.Response, responseBody []byte) {
		log.Debug().Msgf("Non-2xx status code from FHIR server (%s %s, status=%d), content: %s", response.Request.Method, response.Request.URL, response.StatusCode, string(responseBody))
	}
	return &config
}

// NewAuthRoundTripper creates the HTTP transport and FHIR client for the configured FHIR server.
func NewAuthRoundTripper(config ClientConfig, fhirClientConfig *fhirclient.Config) (http.RoundTripper, fhirclient.Client, error) {
	fhirURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	var transport http.RoundTripper
	switch config.Auth.Type {
	case AzureManagedIdentity:
		credential, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to get credential for Azure FHIR API client: %w", err)
		}
		var scopes []string
		if len(config.Auth.OAuth2Scopes) > 0 {
			scopes = config.Auth.OAuth2Scopes
		} else {
			scopes = DefaultAzureScope(fhirURL)
		}
		transport = NewAzureHTTPClient(credential, scopes).Transport
	case "":
		transport = http.DefaultTransport
	default:
		return nil, nil, fmt.Errorf("invalid FHIR authentication type: %s", config.Auth.Type)
	}
	transport = LoggingRoundTripper{Next: transport}
	fhirClient := fhirclient.New(fhirURL, &http.Client{Transport: transport}, fhirClientConfig)
	return transport, fhirClient, nil
}
