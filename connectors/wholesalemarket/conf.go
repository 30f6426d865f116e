package wholesalemarket

import (
	"time"

	"github.com/kilianp07/drflex/auth"
)

// DefaultBaseURL is the RTE wholesale market France power exchanges endpoint.
const DefaultBaseURL = "https://digital.iservices.rte-france.com/open_api/wholesale_market/v2/france_power_exchanges"

// Conf configures the wholesale market client.
type Conf struct {
	Auth    auth.Conf     `json:"auth"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// SetDefaults fills the endpoint, token URL and timeout.
func (c *Conf) SetDefaults() {
	c.Auth.SetDefaults()
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the credentials.
func (c Conf) Validate() error {
	return c.Auth.Validate()
}
