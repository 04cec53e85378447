package wlsystem

import (
	"github.com/liftingsocial/wlbridge/go/clients"
)

// Client talks to the WL-System competition-management API. Admin-scoped
// endpoints require a bearer token; the public scoreboard endpoint does not.
type Client struct {
	*clients.BaseClient
}

func NewClient(baseURL, bearerToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if bearerToken != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+bearerToken)
	}

	return client
}
