package coolfhir

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const azureTokenTimeout = 10 * time.Second

// DefaultAzureScope returns the OAuth2 scope Azure Health Data Services expects for the given FHIR base URL.
func DefaultAzureScope(fhirBaseURL *url.URL) []string {
	return []string{fhirBaseURL.Scheme + "://" + fhirBaseURL.Host + "/.default"}
}

// NewAzureHTTPClient returns an HTTP client that authenticates requests with access tokens from the Azure credential.
// Tokens are reused until they expire.
func NewAzureHTTPClient(credential azcore.TokenCredential, scopes []string) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, azureTokenSource{credential: credential, scopes: scopes}),
			Base:   http.DefaultTransport,
		},
	}
}

type azureTokenSource struct {
	credential azcore.TokenCredential
	scopes     []string
}

func (a azureTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), azureTokenTimeout)
	defer cancel()
	accessToken, err := a.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: a.scopes})
	if err != nil {
		return nil, fmt.Errorf("unable to get access token for FHIR server (scopes=%v): %w", a.scopes, err)
	}
	log.Debug().Msgf("Acquired access token for FHIR server (expires=%s)", accessToken.ExpiresOn.Format(time.RFC3339))
	return &oauth2.Token{
		AccessToken: accessToken.Token,
		TokenType:   "Bearer",
		Expiry:      accessToken.ExpiresOn,
	}, nil
}
