package config

import (
	"fmt"

	"github.com/kilianp07/drflex/connectors/wholesalemarket"
)

const (
	// MarketSourceFile reads spot prices from inputs.prices.
	MarketSourceFile = "file"
	// MarketSourceRTE fetches spot prices from the RTE wholesale market API.
	MarketSourceRTE = "rte"
)

// MarketConfig selects the spot price source.
type MarketConfig struct {
	Source string               `json:"source"`
	RTE    wholesalemarket.Conf `json:"rte"`
}

// SetDefaults selects the file source.
func (c *MarketConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = MarketSourceFile
	}
	c.RTE.SetDefaults()
}

// Validate requires credentials for the RTE source.
func (c MarketConfig) Validate() error {
	switch c.Source {
	case MarketSourceFile:
		return nil
	case MarketSourceRTE:
		if err := c.RTE.Validate(); err != nil {
			return fmt.Errorf("market.rte: %w", err)
		}
		return nil
	}
	return fmt.Errorf("market.source: unknown source %q", c.Source)
}
