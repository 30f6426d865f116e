package auth

import (
	"errors"

	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the RTE data portal token endpoint.
const DefaultTokenURL = "https://digital.iservices.rte-france.com/token/oauth/"

// Conf represents the configuration needed for authentication.
// It includes the client ID, client secret, and the token URL.
type Conf struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURL      string `json:"auth_url"`
}

// SetDefaults points AuthURL at the RTE token endpoint when empty.
func (c *Conf) SetDefaults() {
	if c.AuthURL == "" {
		c.AuthURL = DefaultTokenURL
	}
}

// Validate requires both credentials.
func (c Conf) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("auth: client_id and client_secret are required")
	}
	return nil
}

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
	}
}
